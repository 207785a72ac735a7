package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auctions_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// ActiveWebSockets is the number of open listing feeds.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auctions_active_websockets",
		Help: "Number of open WebSocket connections",
	})
)

var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the HTTP metrics middleware. Call RegisterAt on it to expose /metrics.
// The collectors live in the default registry, so only the first serviceName is used.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = fiberprometheus.New(serviceName)
		promMW.SetSkipPaths([]string{"/metrics", "/health/live", "/health/ready"})
	})
	return promMW
}
