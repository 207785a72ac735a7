// Package service holds the auction use cases that sit between HTTP handlers and repositories.
package service

import (
	"context"
	"log/slog"

	"auctions/internal/middleware"
)

// EventPublisher pushes realtime auction events. notifications.Notifier satisfies it.
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, auctionID uint, eventType string, payload interface{}) error
}

// publish is fire-and-forget; a failed push never fails the request that caused it.
func publish(ctx context.Context, p EventPublisher, auctionID uint, eventType string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.PublishAuctionEvent(ctx, auctionID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish auction event",
			slog.Uint64("auction_id", uint64(auctionID)),
			slog.String("event", eventType),
			slog.String("error", err.Error()),
		)
	}
}
