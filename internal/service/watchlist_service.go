package service

import (
	"context"

	"auctions/internal/models"
	"auctions/internal/repository"
)

type WatchlistService struct {
	watchlistRepo repository.WatchlistRepository
}

func NewWatchlistService(watchlistRepo repository.WatchlistRepository) *WatchlistService {
	return &WatchlistService{watchlistRepo: watchlistRepo}
}

// Watch adds the auction to the user's watchlist. Watching twice is a no-op.
func (s *WatchlistService) Watch(ctx context.Context, username string, auctionID uint) (*models.WatchlistEntry, error) {
	if username == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.watchlistRepo.Add(ctx, username, auctionID)
}

// Unwatch removes the auction. Removing something not on the list is NOT_FOUND.
func (s *WatchlistService) Unwatch(ctx context.Context, username string, auctionID uint) error {
	if username == "" {
		return models.NewUnauthorizedError("Authentication required")
	}
	return s.watchlistRepo.Remove(ctx, username, auctionID)
}

func (s *WatchlistService) List(ctx context.Context, username string) ([]*models.Auction, error) {
	if username == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.watchlistRepo.ListAuctions(ctx, username)
}

func (s *WatchlistService) IsWatching(ctx context.Context, username string, auctionID uint) (bool, error) {
	if username == "" {
		return false, nil
	}
	return s.watchlistRepo.IsWatching(ctx, username, auctionID)
}
