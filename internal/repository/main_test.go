package repository

import (
	"fmt"
	"testing"
	"time"

	"auctions/internal/config"
	"auctions/internal/database"
	"auctions/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a migrated SQLite database in a temp dir.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DBDriver: "sqlite", DBPath: fmt.Sprintf("%s/repo.db", t.TempDir())}
	db, err := gorm.Open(database.Dialector(cfg), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func seedAuction(t *testing.T, db *gorm.DB, owner, category, start string) *models.Auction {
	t.Helper()
	a := &models.Auction{
		OwnerUsername: owner,
		Title:         "Item by " + owner,
		StartingPrice: decimal.RequireFromString(start),
		Category:      category,
		Active:        true,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func seedBid(t *testing.T, db *gorm.DB, auctionID uint, bidder, amount string, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Bid{
		AuctionID:      auctionID,
		BidderUsername: bidder,
		Amount:         decimal.RequireFromString(amount),
		CreatedAt:      at,
	}).Error)
}
