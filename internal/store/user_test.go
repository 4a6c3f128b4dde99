package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
)

// setupTestStore creates a temporary store for testing
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create temp directory for test database
	tmpDir, err := os.MkdirTemp("", "polyrhythmd-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	// Create store with noop emitter for testing
	store, err := New(dbPath, nil, NewNoopEmitter())
	require.NoError(t, err)
	require.NotNil(t, store)

	// Return cleanup function
	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func TestCreateUser(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := domain.NewUser("user_test123", "alice", "hashed_password")

	err := store.CreateUser(ctx, user)
	require.NoError(t, err)

	// Verify user can be retrieved
	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, user.Username, retrieved.Username)
	assert.Equal(t, user.PasswordHash, retrieved.PasswordHash)
}

func TestCreateUser_DuplicateID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := domain.NewUser("user_test123", "alice", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	// Second creation with same ID fails
	err := store.CreateUser(ctx, domain.NewUser("user_test123", "bob", "hash"))
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, domain.NewUser("user_1", "alice", "hash")))

	err := store.CreateUser(ctx, domain.NewUser("user_2", "alice", "hash"))
	assert.ErrorIs(t, err, ErrUsernameExists)

	// Username comparison is case insensitive
	err = store.CreateUser(ctx, domain.NewUser("user_3", "ALICE", "hash"))
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestGetUser_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetUser(context.Background(), "user_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByUsername(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := domain.NewUser("user_1", "Alice", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	retrieved, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)

	_, err = store.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSessionTokens(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := domain.NewUser("user_1", "alice", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	require.NoError(t, store.SetSessionToken(ctx, user.ID, "token-abc"))

	resolved, err := store.GetUserByToken(ctx, "token-abc")
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	// Revoke and verify it no longer resolves
	require.NoError(t, store.ClearSessionToken(ctx, user.ID))
	_, err = store.GetUserByToken(ctx, "token-abc")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// Clearing again is not an error
	require.NoError(t, store.ClearSessionToken(ctx, user.ID))
}

func TestSessionTokens_SecondLoginInvalidatesFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := domain.NewUser("user_1", "alice", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	require.NoError(t, store.SetSessionToken(ctx, user.ID, "token-one"))
	require.NoError(t, store.SetSessionToken(ctx, user.ID, "token-two"))

	// Only the most recent token resolves
	_, err := store.GetUserByToken(ctx, "token-one")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	resolved, err := store.GetUserByToken(ctx, "token-two")
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, "token-two", resolved.SessionToken)
}

func TestSessionTokens_ConcurrentLoginsLeaveOneLiveToken(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	user := domain.NewUser("user_1", "alice", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	const logins = 8
	tokens := make([]string, logins)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("token-%d", i)
	}

	// All logins fire at once so their transactions overlap.
	start := make(chan struct{})
	var wg sync.WaitGroup
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			<-start
			assert.NoError(t, store.SetSessionToken(ctx, user.ID, token))
		}(token)
	}
	close(start)
	wg.Wait()

	updated, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, updated.SessionToken)

	// Exactly the token on the user record resolves; every other token
	// from the losing logins must be dead.
	var live []string
	for _, token := range tokens {
		resolved, err := store.GetUserByToken(ctx, token)
		if err != nil {
			assert.ErrorIs(t, err, ErrTokenNotFound)
			continue
		}
		assert.Equal(t, user.ID, resolved.ID)
		live = append(live, token)
	}
	require.Equal(t, []string{updated.SessionToken}, live)
}
