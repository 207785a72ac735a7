package service

import (
	"context"
	"sync"

	"auctions/internal/bidding"
	"auctions/internal/models"

	"github.com/shopspring/decimal"
)

type auctionRepoStub struct {
	createFn         func(ctx context.Context, auction *models.Auction) error
	getByIDFn        func(ctx context.Context, id uint) (*models.Auction, error)
	listActiveFn     func(ctx context.Context) ([]*models.Auction, error)
	listByCategoryFn func(ctx context.Context, category string) ([]*models.Auction, error)
	categoriesFn     func(ctx context.Context) ([]string, error)
	closeFn          func(ctx context.Context, id uint) (*models.Auction, error)
}

func (s *auctionRepoStub) Create(ctx context.Context, auction *models.Auction) error {
	return s.createFn(ctx, auction)
}
func (s *auctionRepoStub) GetByID(ctx context.Context, id uint) (*models.Auction, error) {
	return s.getByIDFn(ctx, id)
}
func (s *auctionRepoStub) ListActive(ctx context.Context) ([]*models.Auction, error) {
	return s.listActiveFn(ctx)
}
func (s *auctionRepoStub) ListByCategory(ctx context.Context, category string) ([]*models.Auction, error) {
	return s.listByCategoryFn(ctx, category)
}
func (s *auctionRepoStub) Categories(ctx context.Context) ([]string, error) {
	return s.categoriesFn(ctx)
}
func (s *auctionRepoStub) Close(ctx context.Context, id uint) (*models.Auction, error) {
	return s.closeFn(ctx, id)
}

func noopAuctionRepo() *auctionRepoStub {
	return &auctionRepoStub{
		createFn: func(context.Context, *models.Auction) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Auction, error) {
			return nil, models.NewNotFoundError("Auction", id)
		},
		listActiveFn:     func(context.Context) ([]*models.Auction, error) { return nil, nil },
		listByCategoryFn: func(context.Context, string) ([]*models.Auction, error) { return nil, nil },
		categoriesFn:     func(context.Context) ([]string, error) { return nil, nil },
		closeFn: func(_ context.Context, id uint) (*models.Auction, error) {
			return nil, models.NewNotFoundError("Auction", id)
		},
	}
}

// auctionFixture makes GetByID return a copy of a.
func auctionFixture(a models.Auction) *auctionRepoStub {
	repo := noopAuctionRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Auction, error) {
		if id != a.ID {
			return nil, models.NewNotFoundError("Auction", id)
		}
		cp := a
		return &cp, nil
	}
	return repo
}

type bidRepoStub struct {
	placeBidFn      func(ctx context.Context, auctionID uint, bidder string, amount decimal.Decimal) (*models.Bid, bidding.Decision, error)
	listByAuctionFn func(ctx context.Context, auctionID uint) ([]models.Bid, error)
}

func (s *bidRepoStub) PlaceBid(ctx context.Context, auctionID uint, bidder string, amount decimal.Decimal) (*models.Bid, bidding.Decision, error) {
	return s.placeBidFn(ctx, auctionID, bidder, amount)
}
func (s *bidRepoStub) ListByAuction(ctx context.Context, auctionID uint) ([]models.Bid, error) {
	return s.listByAuctionFn(ctx, auctionID)
}

func noopBidRepo() *bidRepoStub {
	return &bidRepoStub{
		placeBidFn: func(context.Context, uint, string, decimal.Decimal) (*models.Bid, bidding.Decision, error) {
			return nil, bidding.Decision{}, nil
		},
		listByAuctionFn: func(context.Context, uint) ([]models.Bid, error) { return nil, nil },
	}
}

type commentRepoStub struct {
	createFn        func(ctx context.Context, comment *models.Comment) error
	listByAuctionFn func(ctx context.Context, auctionID uint) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByAuction(ctx context.Context, auctionID uint) ([]models.Comment, error) {
	return s.listByAuctionFn(ctx, auctionID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:        func(context.Context, *models.Comment) error { return nil },
		listByAuctionFn: func(context.Context, uint) ([]models.Comment, error) { return nil, nil },
	}
}

type watchlistRepoStub struct {
	addFn          func(ctx context.Context, username string, auctionID uint) (*models.WatchlistEntry, error)
	removeFn       func(ctx context.Context, username string, auctionID uint) error
	listAuctionsFn func(ctx context.Context, username string) ([]*models.Auction, error)
	isWatchingFn   func(ctx context.Context, username string, auctionID uint) (bool, error)
}

func (s *watchlistRepoStub) Add(ctx context.Context, username string, auctionID uint) (*models.WatchlistEntry, error) {
	return s.addFn(ctx, username, auctionID)
}
func (s *watchlistRepoStub) Remove(ctx context.Context, username string, auctionID uint) error {
	return s.removeFn(ctx, username, auctionID)
}
func (s *watchlistRepoStub) ListAuctions(ctx context.Context, username string) ([]*models.Auction, error) {
	return s.listAuctionsFn(ctx, username)
}
func (s *watchlistRepoStub) IsWatching(ctx context.Context, username string, auctionID uint) (bool, error) {
	return s.isWatchingFn(ctx, username, auctionID)
}

func noopWatchlistRepo() *watchlistRepoStub {
	return &watchlistRepoStub{
		addFn: func(_ context.Context, username string, auctionID uint) (*models.WatchlistEntry, error) {
			return &models.WatchlistEntry{Username: username, AuctionID: auctionID}, nil
		},
		removeFn:       func(context.Context, string, uint) error { return nil },
		listAuctionsFn: func(context.Context, string) ([]*models.Auction, error) { return nil, nil },
		isWatchingFn:   func(context.Context, string, uint) (bool, error) { return false, nil },
	}
}

type userRepoStub struct {
	getByIDFn       func(ctx context.Context, id uint) (*models.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	createFn        func(ctx context.Context, user *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

type publishedEvent struct {
	AuctionID uint
	Type      string
	Payload   interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) PublishAuctionEvent(_ context.Context, auctionID uint, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{AuctionID: auctionID, Type: eventType, Payload: payload})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
