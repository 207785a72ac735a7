package service

import (
	"context"
	"errors"
	"testing"

	"auctions/internal/bidding"
	"auctions/internal/models"
	"auctions/internal/notifications"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuctionService(a *auctionRepoStub, b *bidRepoStub, p EventPublisher) *AuctionService {
	return NewAuctionService(a, b, noopCommentRepo(), noopWatchlistRepo(), p)
}

func TestAuctionService_CreateAuction_Validation(t *testing.T) {
	svc := newAuctionService(noopAuctionRepo(), noopBidRepo(), nil)

	tests := []struct {
		name string
		in   CreateAuctionInput
	}{
		{"missing title", CreateAuctionInput{Owner: "alice", Title: "  ", StartingPrice: "10"}},
		{"bad price", CreateAuctionInput{Owner: "alice", Title: "Lamp", StartingPrice: "ten"}},
		{"zero price", CreateAuctionInput{Owner: "alice", Title: "Lamp", StartingPrice: "0"}},
		{"negative price", CreateAuctionInput{Owner: "alice", Title: "Lamp", StartingPrice: "-4"}},
		{"too many decimals", CreateAuctionInput{Owner: "alice", Title: "Lamp", StartingPrice: "1.005"}},
		{"relative photo url", CreateAuctionInput{Owner: "alice", Title: "Lamp", StartingPrice: "5", PhotoURL: "/img.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAuction(context.Background(), tt.in)
			assertValidationError(t, err, "")
		})
	}
}

func TestAuctionService_CreateAuction_RequiresOwner(t *testing.T) {
	svc := newAuctionService(noopAuctionRepo(), noopBidRepo(), nil)
	_, err := svc.CreateAuction(context.Background(), CreateAuctionInput{Title: "Lamp", StartingPrice: "5"})
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestAuctionService_CreateAuction_DefaultsCategory(t *testing.T) {
	repo := noopAuctionRepo()
	var stored *models.Auction
	repo.createFn = func(_ context.Context, a *models.Auction) error {
		a.ID = 9
		stored = a
		return nil
	}
	svc := newAuctionService(repo, noopBidRepo(), nil)

	a, err := svc.CreateAuction(context.Background(), CreateAuctionInput{
		Owner:         "alice",
		Title:         "  Lamp ",
		StartingPrice: "12.5",
		Category:      "   ",
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uint(9), a.ID)
	assert.Equal(t, "Lamp", a.Title)
	assert.Equal(t, models.DefaultCategory, a.Category)
	assert.True(t, a.Active)
	assert.Nil(t, a.Winner)
	assert.True(t, a.StartingPrice.Equal(decimal.RequireFromString("12.50")))
}

func TestAuctionService_PlaceBid_Accepted(t *testing.T) {
	bids := noopBidRepo()
	bids.placeBidFn = func(_ context.Context, auctionID uint, bidder string, amount decimal.Decimal) (*models.Bid, bidding.Decision, error) {
		return &models.Bid{ID: 1, AuctionID: auctionID, BidderUsername: bidder, Amount: amount},
			bidding.Decision{Accepted: true}, nil
	}
	pub := &recordingPublisher{}
	svc := newAuctionService(noopAuctionRepo(), bids, pub)

	bid, err := svc.PlaceBid(context.Background(), PlaceBidInput{Bidder: "bob", AuctionID: 3, Amount: "15"})
	require.NoError(t, err)
	assert.Equal(t, "bob", bid.BidderUsername)
	assert.Equal(t, []string{notifications.EventBidPlaced}, pub.types())
	assert.Equal(t, uint(3), pub.events[0].AuctionID)
}

func TestAuctionService_PlaceBid_Rejected(t *testing.T) {
	reasons := []bidding.Reason{
		bidding.ReasonNonPositiveAmount,
		bidding.ReasonBelowStartingPrice,
		bidding.ReasonBelowCurrentLead,
		bidding.ReasonAuctionClosed,
	}

	for _, reason := range reasons {
		t.Run(string(reason), func(t *testing.T) {
			bids := noopBidRepo()
			bids.placeBidFn = func(context.Context, uint, string, decimal.Decimal) (*models.Bid, bidding.Decision, error) {
				return nil, bidding.Decision{Reason: reason}, nil
			}
			pub := &recordingPublisher{}
			svc := newAuctionService(noopAuctionRepo(), bids, pub)

			_, err := svc.PlaceBid(context.Background(), PlaceBidInput{Bidder: "bob", AuctionID: 3, Amount: "1"})
			assertValidationError(t, err, reason.Message())
			assert.Empty(t, pub.types())
		})
	}
}

func TestAuctionService_PlaceBid_UnparseableAmount(t *testing.T) {
	bids := noopBidRepo()
	bids.placeBidFn = func(context.Context, uint, string, decimal.Decimal) (*models.Bid, bidding.Decision, error) {
		t.Fatal("repository must not be called")
		return nil, bidding.Decision{}, nil
	}
	svc := newAuctionService(noopAuctionRepo(), bids, nil)

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{Bidder: "bob", AuctionID: 3, Amount: "abc"})
	assertValidationError(t, err, "")
}

func TestAuctionService_PlaceBid_PublishFailureIsIgnored(t *testing.T) {
	bids := noopBidRepo()
	bids.placeBidFn = func(_ context.Context, auctionID uint, bidder string, amount decimal.Decimal) (*models.Bid, bidding.Decision, error) {
		return &models.Bid{ID: 2, AuctionID: auctionID, BidderUsername: bidder, Amount: amount},
			bidding.Decision{Accepted: true}, nil
	}
	pub := &recordingPublisher{err: errors.New("redis down")}
	svc := newAuctionService(noopAuctionRepo(), bids, pub)

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{Bidder: "bob", AuctionID: 3, Amount: "20"})
	require.NoError(t, err)
}

func TestAuctionService_CloseAuction(t *testing.T) {
	owned := models.Auction{ID: 4, OwnerUsername: "alice", Active: true}

	t.Run("owner closes and event is published", func(t *testing.T) {
		repo := auctionFixture(owned)
		winner := "bob"
		repo.closeFn = func(_ context.Context, id uint) (*models.Auction, error) {
			return &models.Auction{ID: id, OwnerUsername: "alice", Active: false, Winner: &winner}, nil
		}
		pub := &recordingPublisher{}
		svc := newAuctionService(repo, noopBidRepo(), pub)

		closed, err := svc.CloseAuction(context.Background(), CloseAuctionInput{Username: "alice", AuctionID: 4})
		require.NoError(t, err)
		assert.False(t, closed.Active)
		require.NotNil(t, closed.Winner)
		assert.Equal(t, "bob", *closed.Winner)
		assert.Equal(t, []string{notifications.EventAuctionClosed}, pub.types())
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		repo := auctionFixture(owned)
		repo.closeFn = func(context.Context, uint) (*models.Auction, error) {
			t.Fatal("close must not run for a non-owner")
			return nil, nil
		}
		svc := newAuctionService(repo, noopBidRepo(), nil)

		_, err := svc.CloseAuction(context.Background(), CloseAuctionInput{Username: "mallory", AuctionID: 4})
		assertAppError(t, err, models.CodeForbidden)
	})

	t.Run("unknown auction", func(t *testing.T) {
		svc := newAuctionService(noopAuctionRepo(), noopBidRepo(), nil)
		_, err := svc.CloseAuction(context.Background(), CloseAuctionInput{Username: "alice", AuctionID: 77})
		assertAppError(t, err, models.CodeNotFound)
	})
}

func TestAuctionService_Detail(t *testing.T) {
	auction := models.Auction{
		ID:            5,
		OwnerUsername: "alice",
		StartingPrice: decimal.RequireFromString("10"),
		Active:        true,
	}
	bids := noopBidRepo()
	bids.listByAuctionFn = func(context.Context, uint) ([]models.Bid, error) {
		return []models.Bid{
			{ID: 1, BidderUsername: "bob", Amount: decimal.RequireFromString("11")},
			{ID: 2, BidderUsername: "carol", Amount: decimal.RequireFromString("14")},
		}, nil
	}
	watch := noopWatchlistRepo()
	watch.isWatchingFn = func(_ context.Context, username string, _ uint) (bool, error) {
		return username == "bob", nil
	}
	svc := NewAuctionService(auctionFixture(auction), bids, noopCommentRepo(), watch, nil)

	t.Run("owner view", func(t *testing.T) {
		d, err := svc.Detail(context.Background(), 5, "alice")
		require.NoError(t, err)
		assert.Equal(t, 2, d.AmountOfBids)
		assert.True(t, d.CurrentBid.Equal(decimal.RequireFromString("14")))
		require.NotNil(t, d.LeadingBid)
		assert.Equal(t, "carol", d.LeadingBid.BidderUsername)
		assert.True(t, d.CanClose)
		assert.False(t, d.Watching)
		assert.NotNil(t, d.Comments)
	})

	t.Run("watcher view", func(t *testing.T) {
		d, err := svc.Detail(context.Background(), 5, "bob")
		require.NoError(t, err)
		assert.False(t, d.CanClose)
		assert.True(t, d.Watching)
	})

	t.Run("anonymous view", func(t *testing.T) {
		d, err := svc.Detail(context.Background(), 5, "")
		require.NoError(t, err)
		assert.False(t, d.CanClose)
		assert.False(t, d.Watching)
	})

	t.Run("missing auction", func(t *testing.T) {
		_, err := svc.Detail(context.Background(), 6, "")
		assertAppError(t, err, models.CodeNotFound)
	})
}

func TestAuctionService_Detail_NoBidsShowsStartingPrice(t *testing.T) {
	auction := models.Auction{ID: 1, OwnerUsername: "alice", StartingPrice: decimal.RequireFromString("7.25"), Active: true}
	svc := newAuctionService(auctionFixture(auction), noopBidRepo(), nil)

	d, err := svc.Detail(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, 0, d.AmountOfBids)
	assert.Nil(t, d.LeadingBid)
	assert.True(t, d.CurrentBid.Equal(decimal.RequireFromString("7.25")))
}
