package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/polyrhythmd/polyrhythmd-server/internal/auth"
	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
	apperrors "github.com/polyrhythmd/polyrhythmd-server/internal/errors"
	"github.com/polyrhythmd/polyrhythmd-server/internal/id"
	"github.com/polyrhythmd/polyrhythmd-server/internal/store"
	"github.com/polyrhythmd/polyrhythmd-server/internal/validation"
)

// AuthService handles account registration and login.
// Session lifecycle is delegated to SessionService.
type AuthService struct {
	store     *store.Store
	sessions  *SessionService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store *store.Store, sessions *SessionService, validator *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:     store,
		sessions:  sessions,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRequest contains new account credentials.
type RegisterRequest struct {
	Username string `json:"username,omitempty" validate:"required,max=64"`
	Password string `json:"password,omitempty" validate:"required,max=1024"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Username string `json:"username,omitempty" validate:"required"`
	Password string `json:"password,omitempty" validate:"required"`
}

// AuthResponse is returned from register and login. The token doubles as
// the session cookie value and the Bearer credential.
type AuthResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Register creates a new account and logs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := domain.NewUser(userID, req.Username, passwordHash)

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return nil, apperrors.AlreadyExists("username already taken")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User registered",
			"user_id", userID,
			"username", user.Username,
		)
	}

	return &AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Token:    token,
	}, nil
}

// Login authenticates a user and issues a fresh session token.
// The error is identical for an unknown username and a wrong password,
// so responses never reveal whether an account exists.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, apperrors.InvalidCredentials("invalid username or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, apperrors.InvalidCredentials("invalid username or password")
	}

	token, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User logged in", "user_id", user.ID)
	}

	return &AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Token:    token,
	}, nil
}

// Logout revokes the session behind the presented token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}
