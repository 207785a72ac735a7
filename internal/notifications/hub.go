package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"auctions/internal/middleware"
	"auctions/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max viewers of a single listing feed
	maxConnsPerAuction = 500
	// Max total connections
	maxTotalConns = 10000
)

// Hub maps auctionID to the clients watching its live feed.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[uint]map[*Client]struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "auction hub" }

// Register adds a connection to an auction feed. Returns an error if limits are exceeded.
func (h *Hub) Register(auctionID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.New("hub is shut down")
	}
	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[auctionID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[auctionID] = m
	}
	if len(m) >= maxConnsPerAuction {
		return nil, errors.New("auction connection limit reached")
	}

	client := NewClient(h, conn, auctionID)
	m[client] = struct{}{}
	h.totalConns++
	return client, nil
}

// UnregisterClient removes the client and closes its send channel.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.AuctionID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		close(client.Send)
	}
	if len(m) == 0 {
		delete(h.conns, client.AuctionID)
	}
}

// Subscribers reports how many clients follow an auction.
func (h *Hub) Subscribers(auctionID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[auctionID])
}

// Broadcast sends message to all clients of the auction.
func (h *Hub) Broadcast(auctionID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.conns[auctionID]
	if !ok {
		return
	}
	data := []byte(message)
	for c := range clients {
		c.TrySend(data)
	}
	observability.WebSocketEventsTotal.WithLabelValues("broadcast").Inc()
}

// StartWiring subscribes the hub to auction events published through n.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartAuctionSubscriber(ctx, func(channel, payload string) {
		auctionID, ok := ParseAuctionChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid auction channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(auctionID, payload)
	})
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for auctionID, clients := range h.conns {
		for client := range clients {
			if client.Conn != nil {
				if err := client.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
					middleware.Logger.Debug("failed to write close message",
						slog.Uint64("auction_id", uint64(auctionID)), slog.String("error", err.Error()))
				}
				_ = client.Conn.Close()
			}
			close(client.Send)
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
