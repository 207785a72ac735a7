package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is stored when a seller leaves the category blank.
const DefaultCategory = "No category listed"

// Field limits shared by validation and the schema.
const (
	MaxTitleLength       = 64
	MaxDescriptionLength = 100
	MaxCategoryLength    = 64
	MaxCommentLength     = 500
	MaxUsernameLength    = 50
)

// Auction is a listing created by a seller. Winner is set exactly when Active is false.
type Auction struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	OwnerUsername string           `gorm:"size:50;not null;index" json:"owner"`
	Title         string           `gorm:"size:64;not null" json:"title"`
	StartingPrice decimal.Decimal  `gorm:"type:numeric(20,2);not null" json:"starting_bid"`
	Description   string           `gorm:"size:100" json:"description"`
	PhotoURL      string           `gorm:"size:2048" json:"url,omitempty"`
	Category      string           `gorm:"size:64;not null;index" json:"category"`
	Active        bool             `gorm:"not null;index" json:"active"`
	Winner        *string          `gorm:"size:50" json:"winner,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Bids          []Bid            `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE" json:"-"`
	Comments      []Comment        `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE" json:"-"`
	Watchers      []WatchlistEntry `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE" json:"-"`
}

// Bid is an immutable offer on an auction.
type Bid struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	AuctionID      uint            `gorm:"not null;index" json:"auction_id"`
	BidderUsername string          `gorm:"size:50;not null;index" json:"bidder"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Comment is an immutable note left on an auction.
type Comment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AuctionID      uint      `gorm:"not null;index" json:"auction_id"`
	AuthorUsername string    `gorm:"size:50;not null" json:"author"`
	Text           string    `gorm:"size:500;not null" json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// WatchlistEntry records that a user follows an auction. At most one per (user, auction).
type WatchlistEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;not null;uniqueIndex:idx_watchlist_user_auction" json:"username"`
	AuctionID uint      `gorm:"not null;uniqueIndex:idx_watchlist_user_auction" json:"auction_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name short.
func (WatchlistEntry) TableName() string {
	return "watchlist_entries"
}

// IsClosed reports whether bidding has ended.
func (a *Auction) IsClosed() bool {
	return !a.Active
}

// AuctionDetail is the read model behind the listing page.
type AuctionDetail struct {
	Auction      *Auction        `json:"auction"`
	AmountOfBids int             `json:"amount_of_bids"`
	CurrentBid   decimal.Decimal `json:"current_bid"`
	LeadingBid   *Bid            `json:"leading_bid,omitempty"`
	Comments     []Comment       `json:"comments"`
	Watching     bool            `json:"watching"`
	CanClose     bool            `json:"can_close"`
}
