package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
	"github.com/polyrhythmd/polyrhythmd-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-reviews",
		Method:      http.MethodGet,
		Path:        "/api/reviews",
		Summary:     "List all reviews",
		Description: "Returns every review, newest first.",
		Tags:        []string{"Reviews"},
	}, s.handleListReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-reviews-by-user",
		Method:      http.MethodGet,
		Path:        "/api/reviews/user/{username}",
		Summary:     "List reviews by reviewer",
		Description: "Returns the reviews posted by a user, newest first. Unknown usernames yield an empty list.",
		Tags:        []string{"Reviews"},
	}, s.handleListReviewsByUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-reviews-by-album",
		Method:      http.MethodGet,
		Path:        "/api/reviews/album/{albumId}",
		Summary:     "List reviews for an album",
		Description: "Returns the reviews for an album, newest first. Unknown albums yield an empty list.",
		Tags:        []string{"Reviews"},
	}, s.handleListReviewsByAlbum)

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-review",
		Method:        http.MethodPost,
		Path:          "/api/reviews",
		Summary:       "Post a review",
		Description:   "Persists a review attributed to the logged-in user and notifies connected clients.",
		Tags:          []string{"Reviews"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateReview)
}

// === DTOs ===

// ReviewListOutput wraps a list of reviews for Huma.
type ReviewListOutput struct {
	Body []*domain.Review
}

// ReviewsByUserInput identifies the reviewer to list reviews for.
type ReviewsByUserInput struct {
	Username string `path:"username" doc:"Reviewer username"`
}

// ReviewsByAlbumInput identifies the album to list reviews for.
type ReviewsByAlbumInput struct {
	AlbumID string `path:"albumId" doc:"Album ID"`
}

// CreateReviewInput wraps the review request with credentials for Huma.
type CreateReviewInput struct {
	SessionCredentials
	Body service.CreateReviewRequest
}

// ReviewOutput wraps a single review for Huma.
type ReviewOutput struct {
	Body domain.Review
}

// === Handlers ===

func (s *Server) handleListReviews(ctx context.Context, _ *struct{}) (*ReviewListOutput, error) {
	reviews, err := s.reviews.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &ReviewListOutput{Body: reviews}, nil
}

func (s *Server) handleListReviewsByUser(ctx context.Context, input *ReviewsByUserInput) (*ReviewListOutput, error) {
	reviews, err := s.reviews.ListByUser(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	return &ReviewListOutput{Body: reviews}, nil
}

func (s *Server) handleListReviewsByAlbum(ctx context.Context, input *ReviewsByAlbumInput) (*ReviewListOutput, error) {
	reviews, err := s.reviews.ListByAlbum(ctx, input.AlbumID)
	if err != nil {
		return nil, err
	}
	return &ReviewListOutput{Body: reviews}, nil
}

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	user, err := s.requireUser(ctx, input.SessionCredentials)
	if err != nil {
		return nil, err
	}

	review, err := s.reviews.Create(ctx, user, input.Body)
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: *review}, nil
}
