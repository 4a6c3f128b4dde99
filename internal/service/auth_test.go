package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/polyrhythmd/polyrhythmd-server/internal/errors"
	"github.com/polyrhythmd/polyrhythmd-server/internal/store"
	"github.com/polyrhythmd/polyrhythmd-server/internal/validation"
)

// setupAuthTest creates services with temporary storage for testing.
func setupAuthTest(t *testing.T) (*AuthService, *SessionService, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "polyrhythmd-auth-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	require.NoError(t, err)

	validator := validation.New()
	sessionService := NewSessionService(s, nil)
	authService := NewAuthService(s, sessionService, validator, nil)

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}

	return authService, sessionService, cleanup
}

func TestRegister(t *testing.T) {
	authService, sessionService, cleanup := setupAuthTest(t)
	defer cleanup()

	ctx := context.Background()

	resp, err := authService.Register(ctx, RegisterRequest{
		Username: "alice",
		Password: "pw123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "alice", resp.Username)
	assert.NotEmpty(t, resp.Token)

	// Registration logs the user in: the token resolves immediately
	user, err := sessionService.Resolve(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, user.ID)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := authService.Register(ctx, RegisterRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)

	_, err = authService.Register(ctx, RegisterRequest{Username: "alice", Password: "anything"})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeAlreadyExists, appErr.Code)
}

func TestRegister_MissingFields(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	_, err := authService.Register(context.Background(), RegisterRequest{})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Details, "username")
	assert.Contains(t, appErr.Details, "password")
}

func TestLogin(t *testing.T) {
	authService, sessionService, cleanup := setupAuthTest(t)
	defer cleanup()

	ctx := context.Background()

	registered, err := authService.Register(ctx, RegisterRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)

	resp, err := authService.Login(ctx, LoginRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, resp.ID)
	assert.NotEmpty(t, resp.Token)

	// The issued token maps back to exactly this user
	user, err := sessionService.Resolve(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	authService, _, cleanup := setupAuthTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := authService.Register(ctx, RegisterRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)

	// Wrong password and unknown username fail with the same error
	_, wrongPassErr := authService.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"})
	_, unknownUserErr := authService.Login(ctx, LoginRequest{Username: "nobody", Password: "pw123"})

	var appErr *apperrors.Error
	require.ErrorAs(t, wrongPassErr, &appErr)
	assert.Equal(t, apperrors.CodeInvalidCredentials, appErr.Code)
	wrongMsg := appErr.Message

	require.ErrorAs(t, unknownUserErr, &appErr)
	assert.Equal(t, apperrors.CodeInvalidCredentials, appErr.Code)
	assert.Equal(t, wrongMsg, appErr.Message)
}

func TestLogin_SecondLoginInvalidatesFirstToken(t *testing.T) {
	authService, sessionService, cleanup := setupAuthTest(t)
	defer cleanup()

	ctx := context.Background()

	first, err := authService.Register(ctx, RegisterRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)

	second, err := authService.Login(ctx, LoginRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = sessionService.Resolve(ctx, first.Token)
	require.Error(t, err)

	_, err = sessionService.Resolve(ctx, second.Token)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	authService, sessionService, cleanup := setupAuthTest(t)
	defer cleanup()

	ctx := context.Background()

	resp, err := authService.Register(ctx, RegisterRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, resp.Token))

	_, err = sessionService.Resolve(ctx, resp.Token)
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeUnauthorized, appErr.Code)

	// Logging out twice is fine
	require.NoError(t, authService.Logout(ctx, resp.Token))
}

func TestResolve_EmptyToken(t *testing.T) {
	_, sessionService, cleanup := setupAuthTest(t)
	defer cleanup()

	_, err := sessionService.Resolve(context.Background(), "")
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeUnauthorized, appErr.Code)
}
