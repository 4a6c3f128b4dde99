// Package main provides a tool to seed the database with sample reviews.
//
// This creates a handful of test users and spreads their reviews over the
// past week so the feed and live-activity views have something to show.
//
// Usage:
//
//	DATA_PATH=~/polyrhythmd/data go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/polyrhythmd/polyrhythmd-server/internal/auth"
	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
	"github.com/polyrhythmd/polyrhythmd-server/internal/id"
	"github.com/polyrhythmd/polyrhythmd-server/internal/store"
)

var reviewCount = flag.Int("reviews", 30, "Number of reviews to create")

var sampleUsernames = []string{
	"MusicLover123", "IndieFan456", "RockHead99", "JazzCat42", "PopQueen88", "HipHopHead",
}

type sampleAlbum struct {
	id     string
	name   string
	artist string
	cover  string
}

var sampleAlbums = []sampleAlbum{
	{"5zi7WsKlIiUXv09tbGLKsE", "IGOR", "Tyler, The Creator", "https://via.placeholder.com/640/FF69B4/FFFFFF?text=IGOR"},
	{"4m2880jivSbbyEGAKfITCa", "Random Access Memories", "Daft Punk", "https://via.placeholder.com/640/87CEEB/FFFFFF?text=RAM"},
	{"7dxKtc08dYeRVHt3p9CZJn", "In Rainbows", "Radiohead", "https://upload.wikimedia.org/wikipedia/en/1/14/Inrainbowscover.png"},
	{"4LH4d3cOWNNsVw41Gqt2kv", "The Dark Side of the Moon", "Pink Floyd", "https://via.placeholder.com/640/000000/FFFFFF?text=DSOTM"},
	{"3mH6qwIy9crq0I9YQbOuDf", "Blonde", "Frank Ocean", "https://via.placeholder.com/640/FFD700/FFFFFF?text=Blonde"},
	{"7ycBtnsMtyVbbwTfJwRjSP", "To Pimp a Butterfly", "Kendrick Lamar", "https://via.placeholder.com/640/32CD32/FFFFFF?text=TPAB"},
}

var sampleRatings = []float64{5, 4.5, 4, 3.5, 3, 2.5, 2, 1.5, 1, 0.5}

var sampleReviews = []string{
	"This album is incredible!",
	"A masterpiece of modern music.",
	"Not bad, but not my favorite.",
	"Pretty good overall.",
	"Absolutely loved it!",
	"Could be better.",
	"Amazing production quality.",
	"It's okay, nothing special.",
	"One of the best albums ever!",
	"Didn't really click with me.",
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/polyrhythmd/data")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.New(dbPath, logger, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Create the sample users. Existing ones are left alone so the
	// seeder can run repeatedly against the same database.
	for _, username := range sampleUsernames {
		if err := createUser(ctx, s, username); err != nil {
			log.Fatalf("Failed to create user %s: %v", username, err)
		}
	}

	// Spread reviews over the past week, oldest first.
	created := 0
	for i := 0; i < *reviewCount; i++ {
		album := sampleAlbums[rng.Intn(len(sampleAlbums))]

		reviewID, err := id.Generate("review")
		if err != nil {
			log.Fatalf("Failed to generate review ID: %v", err)
		}

		age := time.Duration(rng.Intn(7*24)) * time.Hour
		review := &domain.Review{
			ID:           reviewID,
			AlbumID:      album.id,
			AlbumName:    album.name,
			ArtistName:   album.artist,
			AlbumCover:   album.cover,
			Rating:       sampleRatings[rng.Intn(len(sampleRatings))],
			ReviewText:   sampleReviews[rng.Intn(len(sampleReviews))],
			ReviewerName: sampleUsernames[rng.Intn(len(sampleUsernames))],
			CreatedAt:    time.Now().Add(-age),
			Likes:        rng.Intn(50),
		}

		if err := s.CreateReview(ctx, review); err != nil {
			log.Fatalf("Failed to create review: %v", err)
		}
		created++
	}

	fmt.Printf("Seeded %d reviews by %d users\n", created, len(sampleUsernames))
}

// createUser registers a sample user with the password "password123".
func createUser(ctx context.Context, s *store.Store, username string) error {
	hash, err := auth.HashPassword("password123")
	if err != nil {
		return err
	}

	userID, err := id.Generate("user")
	if err != nil {
		return err
	}

	err = s.CreateUser(ctx, domain.NewUser(userID, username, hash))
	if errors.Is(err, store.ErrUsernameExists) {
		fmt.Printf("User %s already exists, skipping\n", username)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s\n", username)
	return nil
}
