// Package seed fills the database with demo auctions for development and testing.
package seed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"auctions/internal/bidding"
	"auctions/internal/middleware"
	"auctions/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "Password123!"

var categories = []string{
	"Electronics", "Books", "Fashion", "Home", "Toys", "Collectibles", "Sports", "Art",
}

// Options configuration for the seeder
type Options struct {
	NumUsers          int
	NumAuctions       int
	MaxBidsPerAuction int
	MaxComments       int
	// ClosedRatio is the share of auctions closed after bidding, between 0 and 1.
	ClosedRatio float64
	ShouldClean bool
	// RandSeed makes output reproducible when non-zero.
	RandSeed int64
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Result summarises what a run created.
type Result struct {
	Users     []models.User
	Auctions  []models.Auction
	Bids      int
	Comments  int
	Watchlist int
}

// Seeder writes demo data through GORM.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Seeder{db: db, faker: gofakeit.New(seed), opts: opts}
}

// ClearAll deletes every auction-related row. Children first so it also works without cascades.
func (s *Seeder) ClearAll() error {
	for _, m := range []interface{}{
		&models.WatchlistEntry{}, &models.Comment{}, &models.Bid{}, &models.Auction{}, &models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}

// Run seeds users, auctions, bid ladders, comments and watchlists.
func (s *Seeder) Run() (*Result, error) {
	if s.opts.NumUsers < 2 {
		return nil, fmt.Errorf("at least 2 users are required, got %d", s.opts.NumUsers)
	}

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users, err := s.createUsers(tx)
		if err != nil {
			return err
		}
		res.Users = users

		for i := 0; i < s.opts.NumAuctions; i++ {
			auction, bids, err := s.createAuction(tx, users)
			if err != nil {
				return err
			}
			res.Bids += bids

			comments, err := s.createComments(tx, auction, users)
			if err != nil {
				return err
			}
			res.Comments += comments
			res.Auctions = append(res.Auctions, *auction)
		}

		watched, err := s.createWatchlists(tx, users, res.Auctions)
		if err != nil {
			return err
		}
		res.Watchlist = watched
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.Info("seeding complete",
		slog.Int("users", len(res.Users)),
		slog.Int("auctions", len(res.Auctions)),
		slog.Int("bids", res.Bids),
		slog.Int("comments", res.Comments),
		slog.Int("watchlist", res.Watchlist),
	)
	return res, nil
}

func (s *Seeder) createUsers(tx *gorm.DB) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	seen := make(map[string]bool, s.opts.NumUsers)
	users := make([]models.User, 0, s.opts.NumUsers)
	for len(users) < s.opts.NumUsers {
		name := sanitizeUsername(s.faker.Username())
		if len(name) < 3 || seen[name] {
			name = fmt.Sprintf("user%d", len(users)+1)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		users = append(users, models.User{
			Username: name,
			Email:    strings.ToLower(name) + "@example.com",
			Password: string(hashed),
		})
	}

	if err := tx.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

// createAuction writes an auction with a strictly increasing bid ladder, then
// closes it with the regular winner rule when the dice say so.
func (s *Seeder) createAuction(tx *gorm.DB, users []models.User) (*models.Auction, int, error) {
	owner := users[s.faker.IntRange(0, len(users)-1)]
	created := time.Now().Add(-time.Duration(s.faker.IntRange(1, 30*24)) * time.Hour)

	category := s.faker.RandomString(categories)
	if s.faker.IntRange(0, 9) == 0 {
		category = models.DefaultCategory
	}

	auction := &models.Auction{
		OwnerUsername: owner.Username,
		Title:         truncate(s.faker.Adjective()+" "+s.faker.Noun(), models.MaxTitleLength),
		StartingPrice: decimal.NewFromInt(int64(s.faker.IntRange(1, 500))),
		Description:   truncate(s.faker.Sentence(8), models.MaxDescriptionLength),
		PhotoURL:      s.faker.ImageURL(640, 480),
		Category:      category,
		Active:        true,
		CreatedAt:     created,
	}
	if err := tx.Create(auction).Error; err != nil {
		return nil, 0, fmt.Errorf("create auction: %w", err)
	}

	n := 0
	if s.opts.MaxBidsPerAuction > 0 {
		n = s.faker.IntRange(0, s.opts.MaxBidsPerAuction)
	}
	bids := make([]models.Bid, 0, n)
	price := auction.StartingPrice
	at := created
	for i := 0; i < n; i++ {
		bidder := pickOther(s.faker, users, owner.Username)
		price = price.Add(decimal.New(int64(s.faker.IntRange(100, 2500)), -2))
		at = at.Add(time.Duration(s.faker.IntRange(1, 30)) * time.Minute)
		bids = append(bids, models.Bid{
			AuctionID:      auction.ID,
			BidderUsername: bidder,
			Amount:         price,
			CreatedAt:      at,
		})
	}
	if len(bids) > 0 {
		if err := tx.Create(&bids).Error; err != nil {
			return nil, 0, fmt.Errorf("create bids: %w", err)
		}
	}

	if s.opts.ClosedRatio > 0 && s.faker.Float64Range(0, 1) < s.opts.ClosedRatio {
		winner := bidding.SelectWinner(auction.OwnerUsername, bids)
		auction.Active = false
		auction.Winner = &winner
		if err := tx.Model(auction).Updates(map[string]interface{}{
			"active": false,
			"winner": winner,
		}).Error; err != nil {
			return nil, 0, fmt.Errorf("close auction: %w", err)
		}
	}

	return auction, len(bids), nil
}

func (s *Seeder) createComments(tx *gorm.DB, auction *models.Auction, users []models.User) (int, error) {
	if s.opts.MaxComments <= 0 {
		return 0, nil
	}
	n := s.faker.IntRange(0, s.opts.MaxComments)
	for i := 0; i < n; i++ {
		comment := models.Comment{
			AuctionID:      auction.ID,
			AuthorUsername: users[s.faker.IntRange(0, len(users)-1)].Username,
			Text:           truncate(s.faker.Sentence(s.faker.IntRange(3, 15)), models.MaxCommentLength),
			CreatedAt:      auction.CreatedAt.Add(time.Duration(i+1) * time.Hour),
		}
		if err := tx.Create(&comment).Error; err != nil {
			return 0, fmt.Errorf("create comment: %w", err)
		}
	}
	return n, nil
}

func (s *Seeder) createWatchlists(tx *gorm.DB, users []models.User, auctions []models.Auction) (int, error) {
	if len(auctions) == 0 {
		return 0, nil
	}
	count := 0
	for _, u := range users {
		picked := map[uint]bool{}
		for i := s.faker.IntRange(0, 3); i > 0; i-- {
			a := auctions[s.faker.IntRange(0, len(auctions)-1)]
			if picked[a.ID] {
				continue
			}
			picked[a.ID] = true
			if err := tx.Create(&models.WatchlistEntry{Username: u.Username, AuctionID: a.ID}).Error; err != nil {
				return 0, fmt.Errorf("create watchlist entry: %w", err)
			}
			count++
		}
	}
	return count, nil
}

func pickOther(f *gofakeit.Faker, users []models.User, exclude string) string {
	for {
		u := users[f.IntRange(0, len(users)-1)]
		if u.Username != exclude {
			return u.Username
		}
	}
}

func sanitizeUsername(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 128 && (r == '_' || r == '.' || r == '-' || r == '+' || r == '@' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			b.WriteRune(r)
		}
	}
	return truncate(b.String(), models.MaxUsernameLength)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
