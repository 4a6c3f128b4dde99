package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
	"github.com/polyrhythmd/polyrhythmd-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/api/profile/{username}",
		Summary:     "Get a user profile",
		Description: "Returns a user's public profile. Users who never edited their profile get an empty one.",
		Tags:        []string{"Profiles"},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPut,
		Path:        "/api/profile",
		Summary:     "Update own profile",
		Description: "Replaces the logged-in user's bio and favorite albums.",
		Tags:        []string{"Profiles"},
	}, s.handleUpdateProfile)
}

// === DTOs ===

// GetProfileInput identifies the profile to fetch.
type GetProfileInput struct {
	Username string `path:"username" doc:"Username"`
}

// ProfileOutput wraps a profile for Huma.
type ProfileOutput struct {
	Body domain.Profile
}

// UpdateProfileInput wraps the profile request with credentials for Huma.
type UpdateProfileInput struct {
	SessionCredentials
	Body service.UpdateProfileRequest
}

// === Handlers ===

func (s *Server) handleGetProfile(ctx context.Context, input *GetProfileInput) (*ProfileOutput, error) {
	profile, err := s.profiles.Get(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	user, err := s.requireUser(ctx, input.SessionCredentials)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Update(ctx, user, input.Body)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{Body: *profile}, nil
}
