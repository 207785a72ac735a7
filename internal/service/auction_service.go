package service

import (
	"context"
	"log/slog"
	"strings"

	"auctions/internal/bidding"
	"auctions/internal/middleware"
	"auctions/internal/models"
	"auctions/internal/notifications"
	"auctions/internal/observability"
	"auctions/internal/repository"
	"auctions/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type AuctionService struct {
	auctionRepo   repository.AuctionRepository
	bidRepo       repository.BidRepository
	commentRepo   repository.CommentRepository
	watchlistRepo repository.WatchlistRepository
	publisher     EventPublisher
}

type CreateAuctionInput struct {
	Owner         string
	Title         string
	StartingPrice string
	Description   string
	PhotoURL      string
	Category      string
}

type PlaceBidInput struct {
	Bidder    string
	AuctionID uint
	Amount    string
}

type CloseAuctionInput struct {
	Username  string
	AuctionID uint
}

func NewAuctionService(
	auctionRepo repository.AuctionRepository,
	bidRepo repository.BidRepository,
	commentRepo repository.CommentRepository,
	watchlistRepo repository.WatchlistRepository,
	publisher EventPublisher,
) *AuctionService {
	return &AuctionService{
		auctionRepo:   auctionRepo,
		bidRepo:       bidRepo,
		commentRepo:   commentRepo,
		watchlistRepo: watchlistRepo,
		publisher:     publisher,
	}
}

// CreateAuction validates the listing and stores it as an active auction owned by in.Owner.
func (s *AuctionService) CreateAuction(ctx context.Context, in CreateAuctionInput) (*models.Auction, error) {
	if in.Owner == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	listing := validation.ListingInput{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
	}
	if err := validation.ValidateListing(listing); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	price, err := validation.ParseAmount(in.StartingPrice)
	if err != nil {
		return nil, models.NewValidationError("Starting bid: " + err.Error())
	}
	if !price.IsPositive() {
		return nil, models.NewValidationError("Starting bid must be greater than zero")
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	auction := &models.Auction{
		OwnerUsername: in.Owner,
		Title:         strings.TrimSpace(in.Title),
		StartingPrice: price,
		Description:   in.Description,
		PhotoURL:      listing.PhotoURL,
		Category:      category,
		Active:        true,
	}
	if err := s.auctionRepo.Create(ctx, auction); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "auction created",
		slog.Uint64("auction_id", uint64(auction.ID)),
		slog.String("category", auction.Category),
	)
	return auction, nil
}

func (s *AuctionService) ListActive(ctx context.Context) ([]*models.Auction, error) {
	return s.auctionRepo.ListActive(ctx)
}

func (s *AuctionService) ListByCategory(ctx context.Context, category string) ([]*models.Auction, error) {
	return s.auctionRepo.ListByCategory(ctx, category)
}

func (s *AuctionService) Categories(ctx context.Context) ([]string, error) {
	return s.auctionRepo.Categories(ctx)
}

func (s *AuctionService) GetAuction(ctx context.Context, id uint) (*models.Auction, error) {
	return s.auctionRepo.GetByID(ctx, id)
}

// Detail assembles the listing page. viewer may be empty for anonymous requests.
func (s *AuctionService) Detail(ctx context.Context, id uint, viewer string) (*models.AuctionDetail, error) {
	auction, err := s.auctionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bids, err := s.bidRepo.ListByAuction(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	detail := &models.AuctionDetail{
		Auction:      auction,
		AmountOfBids: len(bids),
		CurrentBid:   bidding.CurrentPrice(auction.StartingPrice, bids),
		Comments:     comments,
	}
	if lead, ok := bidding.LeadingBid(bids); ok {
		detail.LeadingBid = &lead
	}

	if viewer != "" {
		watching, err := s.watchlistRepo.IsWatching(ctx, viewer, id)
		if err != nil {
			return nil, err
		}
		detail.Watching = watching
		detail.CanClose = auction.Active && auction.OwnerUsername == viewer
	}

	return detail, nil
}

func (s *AuctionService) ListBids(ctx context.Context, auctionID uint) ([]models.Bid, error) {
	if _, err := s.auctionRepo.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.bidRepo.ListByAuction(ctx, auctionID)
}

// PlaceBid submits a bid. Rejections come back as VALIDATION_ERROR with the reason's message.
func (s *AuctionService) PlaceBid(ctx context.Context, in PlaceBidInput) (*models.Bid, error) {
	ctx, span := observability.StartServiceSpan(ctx, "auction", "PlaceBid",
		attribute.Int64("auction.id", int64(in.AuctionID)))
	defer span.End()

	if in.Bidder == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	amount, err := validation.ParseAmount(in.Amount)
	if err != nil {
		return nil, models.NewValidationError("Bid price: " + err.Error())
	}

	bid, decision, err := s.bidRepo.PlaceBid(ctx, in.AuctionID, in.Bidder, amount)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !decision.Accepted {
		observability.BidsRejected.WithLabelValues(string(decision.Reason)).Inc()
		span.SetAttributes(attribute.String("bid.rejected", string(decision.Reason)))
		return nil, decision.Err()
	}

	observability.BidsAccepted.Inc()
	middleware.Logger.InfoContext(ctx, "bid accepted",
		slog.Uint64("auction_id", uint64(in.AuctionID)),
		slog.String("amount", amount.StringFixed(2)),
	)
	publish(ctx, s.publisher, in.AuctionID, notifications.EventBidPlaced, bidEventPayload(bid))
	return bid, nil
}

// CloseAuction ends bidding. Only the owner may close; closing twice recomputes the winner.
func (s *AuctionService) CloseAuction(ctx context.Context, in CloseAuctionInput) (*models.Auction, error) {
	ctx, span := observability.StartServiceSpan(ctx, "auction", "CloseAuction",
		attribute.Int64("auction.id", int64(in.AuctionID)))
	defer span.End()

	auction, err := s.auctionRepo.GetByID(ctx, in.AuctionID)
	if err != nil {
		return nil, err
	}
	if auction.OwnerUsername != in.Username {
		return nil, models.NewForbiddenError("Only the seller can close this auction")
	}

	closed, err := s.auctionRepo.Close(ctx, in.AuctionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	observability.AuctionsClosed.Inc()
	winner := ""
	if closed.Winner != nil {
		winner = *closed.Winner
	}
	middleware.Logger.InfoContext(ctx, "auction closed",
		slog.Uint64("auction_id", uint64(closed.ID)),
		slog.String("winner", winner),
	)
	publish(ctx, s.publisher, closed.ID, notifications.EventAuctionClosed, map[string]interface{}{
		"auction_id": closed.ID,
		"winner":     winner,
	})
	return closed, nil
}

func bidEventPayload(b *models.Bid) map[string]interface{} {
	return map[string]interface{}{
		"id":         b.ID,
		"bidder":     b.BidderUsername,
		"amount":     b.Amount.StringFixed(2),
		"created_at": b.CreatedAt,
	}
}
