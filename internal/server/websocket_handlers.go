package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"auctions/internal/middleware"
	"auctions/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// websocketUpgrade rejects plain HTTP requests and unknown auctions before the upgrade.
func (s *Server) websocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.auctionService.GetAuction(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}

	c.Locals("auctionID", id)
	return c.Next()
}

// WebSocketAuctionHandler streams bid_placed, auction_closed and comment_added
// events for one auction. The feed is read-only and public.
func (s *Server) WebSocketAuctionHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		auctionID, ok := conn.Locals("auctionID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(auctionID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register failed",
				slog.Uint64("auction_id", uint64(auctionID)), slog.String("error", err.Error()))
			body, _ := json.Marshal(models.ErrorResponse{Error: err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, body)
			_ = conn.Close()
			return
		}

		hello, _ := json.Marshal(fiber.Map{
			"type":       "subscribed",
			"auction_id": auctionID,
			"sent_at":    time.Now().UTC(),
		})
		client.TrySend(hello)

		go client.WritePump()
		client.ReadPump()
	})
}
