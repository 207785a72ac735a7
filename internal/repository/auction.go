package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"auctions/internal/bidding"
	"auctions/internal/cache"
	"auctions/internal/middleware"
	"auctions/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuctionRepository defines persistence operations for auctions.
type AuctionRepository interface {
	Create(ctx context.Context, auction *models.Auction) error
	GetByID(ctx context.Context, id uint) (*models.Auction, error)
	ListActive(ctx context.Context) ([]*models.Auction, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Auction, error)
	Categories(ctx context.Context) ([]string, error)
	Close(ctx context.Context, id uint) (*models.Auction, error)
}

type auctionRepository struct {
	db *gorm.DB
}

// NewAuctionRepository returns a GORM-backed AuctionRepository.
func NewAuctionRepository(db *gorm.DB) AuctionRepository {
	return &auctionRepository{db: db}
}

func (r *auctionRepository) Create(ctx context.Context, auction *models.Auction) error {
	if err := r.db.WithContext(ctx).Create(auction).Error; err != nil {
		return models.NewInternalError(fmt.Errorf("create auction: %w", err))
	}
	cache.InvalidateCategories(ctx)
	return nil
}

func (r *auctionRepository) GetByID(ctx context.Context, id uint) (*models.Auction, error) {
	var auction models.Auction
	err := cache.Aside(ctx, cache.AuctionKey(id), &auction, cache.AuctionTTL, func() error {
		if err := r.db.WithContext(ctx).First(&auction, id).Error; err != nil {
			return notFoundOr(err, "Auction", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

func (r *auctionRepository) ListActive(ctx context.Context) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at desc, id desc").
		Find(&auctions).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return auctions, nil
}

func (r *auctionRepository) ListByCategory(ctx context.Context, category string) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.WithContext(ctx).
		Where("active = ? AND category = ?", true, category).
		Order("created_at desc, id desc").
		Find(&auctions).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return auctions, nil
}

// Categories returns every category in use, sorted. Closed auctions still contribute.
func (r *auctionRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoriesTTL, func() error {
		return r.db.WithContext(ctx).
			Model(&models.Auction{}).
			Distinct("category").
			Order("category asc").
			Pluck("category", &categories).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// Close marks the auction inactive and records the winner picked from its bids.
// The auction row is locked for the duration so no bid can slip in between.
func (r *auctionRepository) Close(ctx context.Context, id uint) (*models.Auction, error) {
	cache.InvalidateAuction(ctx, id)

	var auction models.Auction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&auction, id).Error; err != nil {
			return notFoundOr(err, "Auction", id)
		}

		var bids []models.Bid
		if err := tx.Where("auction_id = ?", id).Find(&bids).Error; err != nil {
			return models.NewInternalError(err)
		}

		winner := bidding.SelectWinner(auction.OwnerUsername, bids)
		now := time.Now()
		res := tx.Model(&models.Auction{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"active":     false,
				"winner":     winner,
				"updated_at": now,
			})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}

		auction.Active = false
		auction.Winner = &winner
		auction.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A reader that missed the cache during the transaction may have stored the
	// open row; overwrite it with the committed state.
	if err := cache.SetJSON(ctx, cache.AuctionKey(id), &auction, cache.AuctionTTL); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed",
			slog.String("key", cache.AuctionKey(id)), slog.String("error", err.Error()))
		cache.InvalidateAuction(ctx, id)
	}
	return &auction, nil
}
