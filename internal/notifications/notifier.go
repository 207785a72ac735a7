// Package notifications fans auction events out to WebSocket subscribers through Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"auctions/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Event types pushed to listing feeds.
const (
	EventBidPlaced     = "bid_placed"
	EventAuctionClosed = "auction_closed"
	EventCommentAdded  = "comment_added"
)

const auctionChannelPrefix = "auctions:"

// Event is the JSON envelope written to subscribers.
type Event struct {
	Type      string      `json:"type"`
	AuctionID uint        `json:"auction_id"`
	Payload   interface{} `json:"payload"`
	SentAt    time.Time   `json:"sent_at"`
}

// Notifier publishes auction events into Redis channels. Without Redis it hands
// events straight to the local hub, if one is attached.
type Notifier struct {
	rdb   *redis.Client
	local *Hub
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// WithLocalFallback delivers events to h directly when Redis is not configured.
func (n *Notifier) WithLocalFallback(h *Hub) *Notifier {
	n.local = h
	return n
}

// PublishAuctionEvent sends an event to every subscriber of the auction.
func (n *Notifier) PublishAuctionEvent(ctx context.Context, auctionID uint, eventType string, payload interface{}) error {
	body, err := json.Marshal(Event{
		Type:      eventType,
		AuctionID: auctionID,
		Payload:   payload,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if n.rdb == nil {
		if n.local != nil {
			n.local.Broadcast(auctionID, string(body))
		}
		return nil
	}
	return n.rdb.Publish(ctx, AuctionChannel(auctionID), string(body)).Err()
}

// StartAuctionSubscriber subscribes to `auctions:*` and calls onMessage for each
// message until ctx is cancelled.
func (n *Notifier) StartAuctionSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, auctionChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe auction events: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in auction subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// AuctionChannel derives the Redis channel name for an auction.
func AuctionChannel(auctionID uint) string {
	return auctionChannelPrefix + strconv.FormatUint(uint64(auctionID), 10)
}

// ParseAuctionChannel extracts the auction ID from a channel name.
func ParseAuctionChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, auctionChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
