package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
)

const profilePrefix = "profile:"

// ErrProfileNotFound is returned when a user has never saved a profile.
var ErrProfileNotFound = errors.New("profile not found")

// GetProfile retrieves the profile stored for a username.
func (s *Store) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(profilePrefix + normalizeUsername(username))

	var profile domain.Profile
	if err := s.get(key, &profile); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &profile, nil
}

// PutProfile creates or replaces the profile for a username.
func (s *Store) PutProfile(ctx context.Context, profile *domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(profilePrefix + normalizeUsername(profile.Username))
	if err := s.set(key, profile); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}
