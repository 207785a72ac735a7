package server

import (
	"auctions/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Watch godoc
// @Summary Add an auction to the watchlist
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Param id path int true "Auction ID"
// @Success 200 {object} models.WatchlistEntry
// @Failure 404 {object} models.ErrorResponse
// @Router /watch/{id} [post]
func (s *Server) Watch(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	entry, err := s.watchlistService.Watch(c.UserContext(), currentUsername(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

// Unwatch godoc
// @Summary Remove an auction from the watchlist
// @Tags watchlist
// @Security BearerAuth
// @Param id path int true "Auction ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /unwatch/{id} [post]
func (s *Server) Unwatch(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.watchlistService.Unwatch(c.UserContext(), currentUsername(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetWatchlist godoc
// @Summary Auctions the caller watches
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Auction
// @Router /watchlist [get]
func (s *Server) GetWatchlist(c *fiber.Ctx) error {
	auctions, err := s.watchlistService.List(c.UserContext(), currentUsername(c))
	if err != nil {
		return respondError(c, err)
	}
	if auctions == nil {
		auctions = []*models.Auction{}
	}
	return c.JSON(auctions)
}
