package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
	apperrors "github.com/polyrhythmd/polyrhythmd-server/internal/errors"
	"github.com/polyrhythmd/polyrhythmd-server/internal/id"
	"github.com/polyrhythmd/polyrhythmd-server/internal/store"
	"github.com/polyrhythmd/polyrhythmd-server/internal/validation"
)

// ReviewService creates and queries album reviews.
type ReviewService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// CreateReviewRequest contains a new review submission.
// ReviewerName is accepted for wire compatibility but the stored value
// always comes from the authenticated session.
type CreateReviewRequest struct {
	AlbumID      string  `json:"albumId,omitempty" validate:"required"`
	AlbumName    string  `json:"albumName,omitempty" validate:"required"`
	ArtistName   string  `json:"artistName,omitempty"`
	AlbumCover   string  `json:"albumCover,omitempty"`
	Rating       float64 `json:"rating,omitempty" validate:"required,gte=0.5,lte=5"`
	ReviewText   string  `json:"reviewText,omitempty" validate:"required"`
	ReviewerName string  `json:"reviewerName,omitempty"`
}

// Create persists a review for the authenticated user. On success the
// store broadcasts a notification to connected clients.
func (s *ReviewService) Create(ctx context.Context, user *domain.User, req CreateReviewRequest) (*domain.Review, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if !domain.ValidRating(req.Rating) {
		return nil, apperrors.Validation("rating must be between 0.5 and 5 in half-star steps")
	}

	reviewID, err := id.Generate("review")
	if err != nil {
		return nil, fmt.Errorf("generate review ID: %w", err)
	}

	review := &domain.Review{
		ID:           reviewID,
		AlbumID:      req.AlbumID,
		AlbumName:    req.AlbumName,
		ArtistName:   req.ArtistName,
		AlbumCover:   req.AlbumCover,
		Rating:       req.Rating,
		ReviewText:   req.ReviewText,
		ReviewerName: user.Username,
		CreatedAt:    time.Now(),
		Likes:        0,
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Review created",
			"review_id", review.ID,
			"album_id", review.AlbumID,
			"reviewer", review.ReviewerName,
		)
	}

	return review, nil
}

// ListAll returns every review, newest first.
func (s *ReviewService) ListAll(ctx context.Context) ([]*domain.Review, error) {
	reviews, err := s.store.ListReviews(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ListByUser returns a reviewer's reviews, newest first.
// An unknown reviewer yields an empty list, not an error.
func (s *ReviewService) ListByUser(ctx context.Context, username string) ([]*domain.Review, error) {
	reviews, err := s.store.ListReviewsByUser(ctx, username, 0)
	if err != nil {
		return nil, fmt.Errorf("list reviews by user: %w", err)
	}
	return reviews, nil
}

// ListByAlbum returns an album's reviews, newest first.
func (s *ReviewService) ListByAlbum(ctx context.Context, albumID string) ([]*domain.Review, error) {
	reviews, err := s.store.ListReviewsByAlbum(ctx, albumID, 0)
	if err != nil {
		return nil, fmt.Errorf("list reviews by album: %w", err)
	}
	return reviews, nil
}
