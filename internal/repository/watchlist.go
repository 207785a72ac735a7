package repository

import (
	"context"
	"errors"

	"auctions/internal/models"

	"gorm.io/gorm"
)

// WatchlistRepository tracks which users follow which auctions.
type WatchlistRepository interface {
	Add(ctx context.Context, username string, auctionID uint) (*models.WatchlistEntry, error)
	Remove(ctx context.Context, username string, auctionID uint) error
	ListAuctions(ctx context.Context, username string) ([]*models.Auction, error)
	IsWatching(ctx context.Context, username string, auctionID uint) (bool, error)
}

type watchlistRepository struct {
	db *gorm.DB
}

// NewWatchlistRepository returns a GORM-backed WatchlistRepository.
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

// Add inserts the membership or returns the existing one.
func (r *watchlistRepository) Add(ctx context.Context, username string, auctionID uint) (*models.WatchlistEntry, error) {
	db := r.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&models.Auction{}).Where("id = ?", auctionID).Count(&exists).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if exists == 0 {
		return nil, models.NewNotFoundError("Auction", auctionID)
	}

	entry, err := r.find(ctx, username, auctionID)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	entry = &models.WatchlistEntry{Username: username, AuctionID: auctionID}
	if err := db.Create(entry).Error; err != nil {
		// Lost a race with a concurrent add of the same pair.
		if isUniqueViolation(err) {
			existing, findErr := r.find(ctx, username, auctionID)
			if findErr != nil {
				return nil, models.NewInternalError(findErr)
			}
			return existing, nil
		}
		return nil, models.NewInternalError(err)
	}
	return entry, nil
}

func (r *watchlistRepository) find(ctx context.Context, username string, auctionID uint) (*models.WatchlistEntry, error) {
	var entry models.WatchlistEntry
	err := r.db.WithContext(ctx).
		Where("username = ? AND auction_id = ?", username, auctionID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *watchlistRepository) Remove(ctx context.Context, username string, auctionID uint) error {
	res := r.db.WithContext(ctx).
		Where("username = ? AND auction_id = ?", username, auctionID).
		Delete(&models.WatchlistEntry{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Watchlist entry", auctionID)
	}
	return nil
}

// ListAuctions returns the watched auctions, most recently watched first.
func (r *watchlistRepository) ListAuctions(ctx context.Context, username string) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.WithContext(ctx).
		Joins("JOIN watchlist_entries ON watchlist_entries.auction_id = auctions.id").
		Where("watchlist_entries.username = ?", username).
		Order("watchlist_entries.created_at desc, watchlist_entries.id desc").
		Find(&auctions).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return auctions, nil
}

func (r *watchlistRepository) IsWatching(ctx context.Context, username string, auctionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WatchlistEntry{}).
		Where("username = ? AND auction_id = ?", username, auctionID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
