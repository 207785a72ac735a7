package server

import (
	"strings"

	"auctions/internal/models"
	"auctions/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createListingRequest struct {
	Title       string `json:"title" form:"title"`
	StartingBid string `json:"bid" form:"bid"`
	Description string `json:"description" form:"description"`
	PhotoURL    string `json:"url" form:"url"`
	Category    string `json:"category" form:"category"`
}

// listingActionRequest is the combined form on the listing page.
// Exactly one of the fields is expected.
type listingActionRequest struct {
	BidPrice string `json:"bid_price" form:"bid_price"`
	Comment  string `json:"comment" form:"comment"`
}

type bidRequest struct {
	BidPrice string `json:"bid_price" form:"bid_price"`
}

type commentRequest struct {
	Comment string `json:"comment" form:"comment"`
}

// Index godoc
// @Summary List active auctions
// @Tags listings
// @Produce json
// @Success 200 {array} models.Auction
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	auctions, err := s.auctionService.ListActive(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if auctions == nil {
		auctions = []*models.Auction{}
	}
	return c.JSON(auctions)
}

// CreateListing godoc
// @Summary Create an auction
// @Tags listings
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param request body createListingRequest true "Listing"
// @Success 201 {object} models.Auction
// @Failure 400 {object} models.ErrorResponse
// @Router /create [post]
func (s *Server) CreateListing(c *fiber.Ctx) error {
	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	auction, err := s.auctionService.CreateAuction(c.UserContext(), service.CreateAuctionInput{
		Owner:         currentUsername(c),
		Title:         req.Title,
		StartingPrice: req.StartingBid,
		Description:   req.Description,
		PhotoURL:      req.PhotoURL,
		Category:      req.Category,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(auction)
}

// GetListing godoc
// @Summary Auction detail
// @Tags listings
// @Produce json
// @Param id path int true "Auction ID"
// @Success 200 {object} models.AuctionDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id} [get]
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.auctionService.Detail(c.UserContext(), id, s.optionalUsername(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// PostListing godoc
// @Summary Bid or comment from the listing page
// @Description A bid_price field places a bid; otherwise a comment field adds a comment.
// @Description Rejections return 400 with the message and the current listing.
// @Tags listings
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path int true "Auction ID"
// @Param request body listingActionRequest true "Action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /listings/{id} [post]
func (s *Server) PostListing(c *fiber.Ctx) error {
	ctx := c.UserContext()
	username := currentUsername(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req listingActionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var result fiber.Map
	switch {
	case strings.TrimSpace(req.BidPrice) != "":
		bid, bidErr := s.auctionService.PlaceBid(ctx, service.PlaceBidInput{
			Bidder:    username,
			AuctionID: id,
			Amount:    req.BidPrice,
		})
		if bidErr != nil {
			return s.respondListingError(c, id, username, bidErr)
		}
		result = fiber.Map{"bid": bid}
	case req.Comment != "":
		comment, commentErr := s.commentService.CreateComment(ctx, service.CreateCommentInput{
			Author:    username,
			AuctionID: id,
			Text:      req.Comment,
		})
		if commentErr != nil {
			return s.respondListingError(c, id, username, commentErr)
		}
		result = fiber.Map{"comment": comment}
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Either bid_price or comment is required"))
	}

	detail, err := s.auctionService.Detail(ctx, id, username)
	if err != nil {
		return respondError(c, err)
	}
	result["listing"] = detail
	return c.JSON(result)
}

// respondListingError renders validation failures the way the listing page shows
// them: the message next to the current state of the listing.
func (s *Server) respondListingError(c *fiber.Ctx, id uint, username string, err error) error {
	if !models.IsCode(err, models.CodeValidation) {
		return respondError(c, err)
	}

	body := fiber.Map{
		"error":   err.Error(),
		"code":    models.CodeValidation,
		"message": err.Error(),
	}
	if detail, detailErr := s.auctionService.Detail(c.UserContext(), id, username); detailErr == nil {
		body["listing"] = detail
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// GetBids godoc
// @Summary Bids on an auction, oldest first
// @Tags listings
// @Produce json
// @Param id path int true "Auction ID"
// @Success 200 {array} models.Bid
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id}/bids [get]
func (s *Server) GetBids(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	bids, err := s.auctionService.ListBids(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	return c.JSON(bids)
}

// PlaceBid godoc
// @Summary Place a bid
// @Tags listings
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path int true "Auction ID"
// @Param request body bidRequest true "Bid"
// @Success 201 {object} models.Bid
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id}/bids [post]
func (s *Server) PlaceBid(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req bidRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	bid, err := s.auctionService.PlaceBid(c.UserContext(), service.PlaceBidInput{
		Bidder:    currentUsername(c),
		AuctionID: id,
		Amount:    req.BidPrice,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bid)
}

// GetComments godoc
// @Summary Comments on an auction, newest first
// @Tags listings
// @Produce json
// @Param id path int true "Auction ID"
// @Success 200 {array} models.Comment
// @Router /listings/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return c.JSON(comments)
}

// CreateComment godoc
// @Summary Comment on an auction
// @Tags listings
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path int true "Auction ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Router /listings/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		Author:    currentUsername(c),
		AuctionID: id,
		Text:      req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// CloseListing godoc
// @Summary Close an auction
// @Description Only the seller may close. The highest bidder wins; with no bids the seller is recorded as winner.
// @Tags listings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Auction ID"
// @Success 200 {object} models.Auction
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id}/close [post]
func (s *Server) CloseListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	auction, err := s.auctionService.CloseAuction(c.UserContext(), service.CloseAuctionInput{
		Username:  currentUsername(c),
		AuctionID: id,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(auction)
}
