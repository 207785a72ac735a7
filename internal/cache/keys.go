package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	AuctionKeyPrefix = "auction:%d"
	CategoriesKey    = "auctions:categories"
	RevokedKeyPrefix = "revoked_token:%s"
)

const (
	AuctionTTL    = 5 * time.Minute
	CategoriesTTL = 10 * time.Minute
)

func AuctionKey(auctionID uint) string {
	return fmt.Sprintf(AuctionKeyPrefix, auctionID)
}

// RevokedTokenKey is where logout parks a token's jti until it expires.
func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateAuction(ctx context.Context, auctionID uint) {
	Invalidate(ctx, AuctionKey(auctionID))
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoriesKey)
}
