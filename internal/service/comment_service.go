package service

import (
	"context"
	"strings"

	"auctions/internal/models"
	"auctions/internal/notifications"
	"auctions/internal/repository"
	"auctions/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	auctionRepo repository.AuctionRepository
	publisher   EventPublisher
}

type CreateCommentInput struct {
	Author    string
	AuctionID uint
	Text      string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	auctionRepo repository.AuctionRepository,
	publisher EventPublisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		auctionRepo: auctionRepo,
		publisher:   publisher,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.Author == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if err := validation.ValidateComment(in.Text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.auctionRepo.GetByID(ctx, in.AuctionID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		AuctionID:      in.AuctionID,
		AuthorUsername: in.Author,
		Text:           strings.TrimSpace(in.Text),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, in.AuctionID, notifications.EventCommentAdded, comment)
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, auctionID uint) ([]models.Comment, error) {
	if _, err := s.auctionRepo.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByAuction(ctx, auctionID)
}
