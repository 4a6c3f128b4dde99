package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
	apperrors "github.com/polyrhythmd/polyrhythmd-server/internal/errors"
	"github.com/polyrhythmd/polyrhythmd-server/internal/store"
	"github.com/polyrhythmd/polyrhythmd-server/internal/validation"
)

// maxFavoriteAlbums bounds how many albums a profile can pin.
const maxFavoriteAlbums = 4

// ProfileService reads and updates user profiles.
type ProfileService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// UpdateProfileRequest contains editable profile fields.
type UpdateProfileRequest struct {
	Bio            string                 `json:"bio,omitempty" validate:"max=500"`
	FavoriteAlbums []FavoriteAlbumRequest `json:"favoriteAlbums,omitempty" validate:"max=4,dive"`
}

// FavoriteAlbumRequest is one pinned album in a profile update.
type FavoriteAlbumRequest struct {
	AlbumID    string `json:"albumId,omitempty" validate:"required"`
	AlbumName  string `json:"albumName,omitempty" validate:"required"`
	ArtistName string `json:"artistName,omitempty"`
	AlbumCover string `json:"albumCover,omitempty"`
}

// Get returns the profile for a username. Users who never saved a
// profile get an empty one, as long as the account exists.
func (s *ProfileService) Get(ctx context.Context, username string) (*domain.Profile, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, apperrors.NotFoundf("user %q not found", username)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	profile, err := s.store.GetProfile(ctx, user.Username)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return &domain.Profile{
				Username:       user.Username,
				FavoriteAlbums: []domain.FavoriteAlbum{},
			}, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if profile.FavoriteAlbums == nil {
		profile.FavoriteAlbums = []domain.FavoriteAlbum{}
	}

	return profile, nil
}

// Update replaces the authenticated user's profile.
func (s *ProfileService) Update(ctx context.Context, user *domain.User, req UpdateProfileRequest) (*domain.Profile, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	favorites := make([]domain.FavoriteAlbum, 0, len(req.FavoriteAlbums))
	for _, fav := range req.FavoriteAlbums {
		favorites = append(favorites, domain.FavoriteAlbum{
			AlbumID:    fav.AlbumID,
			AlbumName:  fav.AlbumName,
			ArtistName: fav.ArtistName,
			AlbumCover: fav.AlbumCover,
		})
	}

	profile := &domain.Profile{
		Username:       user.Username,
		Bio:            req.Bio,
		FavoriteAlbums: favorites,
		UpdatedAt:      time.Now(),
	}

	if err := s.store.PutProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Profile updated", "username", user.Username)
	}

	return profile, nil
}
