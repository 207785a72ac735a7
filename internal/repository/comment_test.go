package repository

import (
	"context"
	"testing"
	"time"

	"auctions/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	a := seedAuction(t, db, "seller", "Home", "1")
	other := seedAuction(t, db, "seller", "Home", "1")

	now := time.Now()
	require.NoError(t, repo.Create(ctx, &models.Comment{AuctionID: a.ID, AuthorUsername: "alice", Text: "first", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &models.Comment{AuctionID: a.ID, AuthorUsername: "bob", Text: "second", CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &models.Comment{AuctionID: other.ID, AuthorUsername: "bob", Text: "elsewhere"}))

	comments, err := repo.ListByAuction(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)
	assert.Equal(t, "first", comments[1].Text)
}
