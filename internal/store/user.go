package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
)

const (
	userPrefix           = "user:"
	userByUsernamePrefix = "idx:users:username:" // For login lookups
	userByTokenPrefix    = "idx:users:token:"    // For session token resolution
)

var (
	// ErrUserNotFound is returned when a user cannot be found by ID, username or token.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when attempting to create a user with an existing ID.
	ErrUserExists = errors.New("user already exists")
	// ErrUsernameExists is returned when attempting to create a user with a username that's already taken.
	ErrUsernameExists = errors.New("username already taken")
	// ErrTokenNotFound is returned when a session token does not resolve to a user.
	ErrTokenNotFound = errors.New("session token not found")
)

// CreateUser creates a new user account.
// The username uniqueness check and the index write happen in the same
// transaction, so two concurrent registrations of the same username
// cannot both succeed.
func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	key := []byte(userPrefix + user.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}

	if exists {
		return ErrUserExists
	}

	normalized := normalizeUsername(user.Username)
	usernameKey := []byte(userByUsernamePrefix + normalized)

	return s.db.Update(func(txn *badger.Txn) error {
		// Check if username is already taken
		_, err := txn.Get(usernameKey)
		if err == nil {
			return ErrUsernameExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check username exists: %w", err)
		}

		// Save user
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		// Create username index
		if err := txn.Set(usernameKey, []byte(user.ID)); err != nil {
			return err
		}

		return nil
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	key := []byte(userPrefix + id)

	var user domain.User
	if err := s.get(key, &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	normalized := normalizeUsername(username)
	usernameKey := []byte(userByUsernamePrefix + normalized)

	// Look up user ID from username index
	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user by username: %w", err)
	}

	return s.GetUser(ctx, userID)
}

// readUserTxn reads and unmarshals a user record inside txn. Reading
// through the transaction keeps the record in its read set, so a
// concurrent write to the same user fails the commit with ErrConflict
// instead of silently interleaving.
func readUserTxn(txn *badger.Txn, userID string) (*domain.User, error) {
	item, err := txn.Get([]byte(userPrefix + userID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	var user domain.User
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &user)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}

	return &user, nil
}

// SetSessionToken records token as the user's single live session token.
// The previous token's index entry is deleted in the same transaction,
// so a second login silently logs the first session out. The read and
// both writes share one transaction; when concurrent logins conflict,
// the loser retries against the winner's committed state so exactly one
// token survives.
func (s *Store) SetSessionToken(_ context.Context, userID, token string) error {
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			user, err := readUserTxn(txn, userID)
			if err != nil {
				return err
			}

			if user.SessionToken != "" && user.SessionToken != token {
				oldKey := []byte(userByTokenPrefix + user.SessionToken)
				if err := txn.Delete(oldKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("delete old token index: %w", err)
				}
			}

			user.SessionToken = token
			user.Touch()

			data, err := json.Marshal(user)
			if err != nil {
				return fmt.Errorf("marshal user: %w", err)
			}
			if err := txn.Set([]byte(userPrefix+user.ID), data); err != nil {
				return err
			}

			return txn.Set([]byte(userByTokenPrefix+token), []byte(user.ID))
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		// Another login committed first; retry sees its token and removes it.
	}
}

// GetUserByToken resolves a session token to its user.
func (s *Store) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	tokenKey := []byte(userByTokenPrefix + token)

	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("lookup user by token: %w", err)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	// The user record is the source of truth for the live token. An index
	// entry pointing at a superseded token is stale; purge it on sight.
	if user.SessionToken != token {
		_ = s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(tokenKey)
		})
		return nil, ErrTokenNotFound
	}

	return user, nil
}

// ClearSessionToken revokes the user's live session token, if any.
// Clearing an already logged-out user is not an error so logout is idempotent.
func (s *Store) ClearSessionToken(_ context.Context, userID string) error {
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			user, err := readUserTxn(txn, userID)
			if err != nil {
				return err
			}
			if user.SessionToken == "" {
				return nil
			}

			tokenKey := []byte(userByTokenPrefix + user.SessionToken)
			if err := txn.Delete(tokenKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete token index: %w", err)
			}

			user.SessionToken = ""
			user.Touch()

			data, err := json.Marshal(user)
			if err != nil {
				return fmt.Errorf("marshal user: %w", err)
			}
			return txn.Set([]byte(userPrefix+user.ID), data)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}

// normalizeUsername normalizes a username for consistent index lookups.
// Lowercases and trims whitespace.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
