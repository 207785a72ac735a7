package server

import (
	"net/url"

	"auctions/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetCategories godoc
// @Summary Distinct auction categories
// @Tags categories
// @Produce json
// @Success 200 {array} string
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.auctionService.Categories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if categories == nil {
		categories = []string{}
	}
	return c.JSON(categories)
}

// GetCategoryListings godoc
// @Summary Active auctions in a category
// @Tags categories
// @Produce json
// @Param category path string true "Category name"
// @Success 200 {array} models.Auction
// @Router /categories/{category} [get]
func (s *Server) GetCategoryListings(c *fiber.Ctx) error {
	category, err := url.PathUnescape(c.Params("category"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid category"))
	}

	auctions, err := s.auctionService.ListByCategory(c.UserContext(), category)
	if err != nil {
		return respondError(c, err)
	}
	if auctions == nil {
		auctions = []*models.Auction{}
	}
	return c.JSON(fiber.Map{
		"category": category,
		"auctions": auctions,
	})
}
