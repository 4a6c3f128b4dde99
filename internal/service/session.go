// Package service implements the application's business logic on top of the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/polyrhythmd/polyrhythmd-server/internal/auth"
	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
	apperrors "github.com/polyrhythmd/polyrhythmd-server/internal/errors"
	"github.com/polyrhythmd/polyrhythmd-server/internal/store"
)

// SessionService issues, resolves and revokes opaque session tokens.
// Every restricted endpoint funnels its "who is logged in" check through here.
type SessionService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(store *store.Store, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:  store,
		logger: logger,
	}
}

// Issue generates a fresh token for the user and records it as their
// single live session. Any previous session is silently logged out.
func (s *SessionService) Issue(ctx context.Context, user *domain.User) (string, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	if err := s.store.SetSessionToken(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("save session token: %w", err)
	}

	return token, nil
}

// Resolve maps a presented token back to its user.
func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	user, err := s.store.GetUserByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) || errors.Is(err, store.ErrUserNotFound) {
			return nil, apperrors.Unauthorized("invalid or expired session")
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	return user, nil
}

// Revoke invalidates the session behind a token. Unknown tokens are
// ignored so logout never fails for an already logged-out client.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	user, err := s.store.GetUserByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) || errors.Is(err, store.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("resolve session for revoke: %w", err)
	}

	if err := s.store.ClearSessionToken(ctx, user.ID); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Session revoked", "user_id", user.ID)
	}

	return nil
}
