package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// BidsAccepted counts bids that passed evaluation and were stored.
	BidsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auctions_bids_accepted_total",
		Help: "Total number of accepted bids",
	})

	// BidsRejected counts rejected bids by reason.
	BidsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctions_bids_rejected_total",
		Help: "Total number of rejected bids by reason",
	}, []string{"reason"})

	// AuctionsClosed counts close operations.
	AuctionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auctions_closed_total",
		Help: "Total number of auction close operations",
	})

	// RateLimited counts requests turned away by a rate limit rule.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctions_rate_limited_total",
		Help: "Total number of requests rejected by rate limiting, by rule",
	}, []string{"rule"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auctions_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketEventsTotal counts auction events delivered to WebSocket clients by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctions_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped because a client was too slow.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctions_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

const queryStartKey = "observability:query_start"

// RegisterQueryMetrics installs GORM callbacks that feed DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	errs := []error{
		cb.Create().Before("gorm:create").Register("metrics:before_create", before),
		cb.Create().After("gorm:create").Register("metrics:after_create", after("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", before),
		cb.Query().After("gorm:query").Register("metrics:after_query", after("query")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", before),
		cb.Update().After("gorm:update").Register("metrics:after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")),
	}
	return errors.Join(errs...)
}
