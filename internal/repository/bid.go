package repository

import (
	"context"

	"auctions/internal/bidding"
	"auctions/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BidRepository defines persistence operations for bids.
type BidRepository interface {
	// PlaceBid evaluates and stores a bid atomically. A rejected bid returns its
	// decision with a nil bid and nil error.
	PlaceBid(ctx context.Context, auctionID uint, bidder string, amount decimal.Decimal) (*models.Bid, bidding.Decision, error)
	ListByAuction(ctx context.Context, auctionID uint) ([]models.Bid, error)
}

type bidRepository struct {
	db *gorm.DB
}

// NewBidRepository returns a GORM-backed BidRepository.
func NewBidRepository(db *gorm.DB) BidRepository {
	return &bidRepository{db: db}
}

func (r *bidRepository) PlaceBid(ctx context.Context, auctionID uint, bidder string, amount decimal.Decimal) (*models.Bid, bidding.Decision, error) {
	var (
		placed   *models.Bid
		decision bidding.Decision
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var auction models.Auction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&auction, auctionID).Error; err != nil {
			return notFoundOr(err, "Auction", auctionID)
		}

		var bids []models.Bid
		if err := tx.Where("auction_id = ?", auctionID).Find(&bids).Error; err != nil {
			return models.NewInternalError(err)
		}

		decision = bidding.EvaluateForAuction(&auction, bids, amount)
		if !decision.Accepted {
			return nil
		}

		bid := &models.Bid{
			AuctionID:      auctionID,
			BidderUsername: bidder,
			Amount:         amount,
		}
		if err := tx.Create(bid).Error; err != nil {
			return models.NewInternalError(err)
		}
		placed = bid
		return nil
	})
	if err != nil {
		return nil, bidding.Decision{}, err
	}
	return placed, decision, nil
}

// ListByAuction returns bids in placement order.
func (r *bidRepository) ListByAuction(ctx context.Context, auctionID uint) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("created_at asc, id asc").
		Find(&bids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bids, nil
}
