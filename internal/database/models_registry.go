package database

import "auctions/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Auction{},
		&models.Bid{},
		&models.Comment{},
		&models.WatchlistEntry{},
	}
}
