package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
	"github.com/polyrhythmd/polyrhythmd-server/internal/ws"
)

// Review storage key prefixes.
// Uses inverted timestamps for descending order (newest first) during forward iteration.
const (
	reviewPrefix         = "review:"
	reviewIdxTimePrefix  = "review:idx:time:"
	reviewIdxUserPrefix  = "review:idx:user:"
	reviewIdxAlbumPrefix = "review:idx:album:"
)

// ErrReviewNotFound is returned when a review cannot be found by ID.
var ErrReviewNotFound = errors.New("review not found")

// invertedTimestamp returns a string that sorts in descending order.
// Uses MaxInt64 - UnixNano to ensure newest timestamps come first during forward iteration.
func invertedTimestamp(t time.Time) string {
	inverted := math.MaxInt64 - t.UnixNano()
	return fmt.Sprintf("%019d", inverted)
}

// CreateReview stores a new review with all indexes in a single transaction.
// On success the review is broadcast to connected clients.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshaling review: %w", err)
	}

	invertedTS := invertedTimestamp(review.CreatedAt)

	err = s.db.Update(func(txn *badger.Txn) error {
		// Primary key: review:{id} → Review JSON
		primaryKey := []byte(reviewPrefix + review.ID)
		if err := txn.Set(primaryKey, data); err != nil {
			return fmt.Errorf("setting primary key: %w", err)
		}

		// Time index: review:idx:time:{inverted_timestamp}:{id} → "" (key-only)
		// This allows scanning newest-first without reverse iteration
		timeKey := []byte(reviewIdxTimePrefix + invertedTS + ":" + review.ID)
		if err := txn.Set(timeKey, []byte{}); err != nil {
			return fmt.Errorf("setting time index: %w", err)
		}

		// Reviewer index: review:idx:user:{reviewerName}:{inverted_timestamp}:{id} → ""
		userKey := []byte(reviewIdxUserPrefix + review.ReviewerName + ":" + invertedTS + ":" + review.ID)
		if err := txn.Set(userKey, []byte{}); err != nil {
			return fmt.Errorf("setting reviewer index: %w", err)
		}

		// Album index: review:idx:album:{albumId}:{inverted_timestamp}:{id} → ""
		albumKey := []byte(reviewIdxAlbumPrefix + review.AlbumID + ":" + invertedTS + ":" + review.ID)
		if err := txn.Set(albumKey, []byte{}); err != nil {
			return fmt.Errorf("setting album index: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if s.eventEmitter != nil {
		s.eventEmitter.Emit(ws.NewReviewEvent(review))
	}

	return nil
}

// GetReview retrieves a single review by ID.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var review domain.Review
	err := s.get([]byte(reviewPrefix+id), &review)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("review %s: %w", id, ErrReviewNotFound)
		}
		return nil, fmt.Errorf("getting review %s: %w", id, err)
	}

	return &review, nil
}

// ListReviews retrieves all reviews sorted by CreatedAt descending.
// A limit of 0 or less means no limit.
func (s *Store) ListReviews(ctx context.Context, limit int) ([]*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.listByIndex(reviewIdxTimePrefix, limit)
}

// ListReviewsByUser retrieves reviews written by the given reviewer,
// sorted by CreatedAt descending. A limit of 0 or less means no limit.
func (s *Store) ListReviewsByUser(ctx context.Context, reviewerName string, limit int) ([]*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.listByIndex(reviewIdxUserPrefix+reviewerName+":", limit)
}

// ListReviewsByAlbum retrieves reviews of the given album sorted by
// CreatedAt descending. A limit of 0 or less means no limit.
func (s *Store) ListReviewsByAlbum(ctx context.Context, albumID string, limit int) ([]*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.listByIndex(reviewIdxAlbumPrefix+albumID+":", limit)
}

// listByIndex walks a key-only index prefix and loads each referenced review.
// Index keys end with {inverted_timestamp}:{id}, so forward iteration yields
// newest reviews first.
func (s *Store) listByIndex(indexPrefix string, limit int) ([]*domain.Review, error) {
	prefix := []byte(indexPrefix)
	reviews := []*domain.Review{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Key-only index, no values to fetch
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(reviews) >= limit {
				break
			}

			key := string(it.Item().Key())
			reviewID := extractReviewID(key, indexPrefix)
			if reviewID == "" {
				continue
			}

			review, err := s.getReviewInTxn(txn, reviewID)
			if err != nil {
				continue
			}
			reviews = append(reviews, review)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("fetching reviews: %w", err)
	}

	return reviews, nil
}

// getReviewInTxn retrieves a review within an existing transaction.
func (s *Store) getReviewInTxn(txn *badger.Txn, id string) (*domain.Review, error) {
	item, err := txn.Get([]byte(reviewPrefix + id))
	if err != nil {
		return nil, err
	}

	var review domain.Review
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &review)
	})
	if err != nil {
		return nil, err
	}

	return &review, nil
}

// extractReviewID extracts the review ID from an index key.
// Key format: {indexPrefix}{inverted_ts}:{id} with a 19-digit timestamp.
func extractReviewID(key, indexPrefix string) string {
	if len(key) <= len(indexPrefix)+20 { // 19 digits + colon
		return ""
	}
	return key[len(indexPrefix)+20:]
}
