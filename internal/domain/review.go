package domain

import (
	"math"
	"time"
)

// Rating bounds for a review, in half-star steps.
const (
	MinRating = 0.5
	MaxRating = 5.0
)

// Review is a single album review. Field names follow the JSON wire
// format the web client consumes, so the stored document and the API
// response are the same shape.
type Review struct {
	ID           string    `json:"id"`
	AlbumID      string    `json:"albumId"`
	AlbumName    string    `json:"albumName"`
	ArtistName   string    `json:"artistName"`
	AlbumCover   string    `json:"albumCover,omitempty"`
	Rating       float64   `json:"rating"`
	ReviewText   string    `json:"reviewText"`
	ReviewerName string    `json:"reviewerName"`
	CreatedAt    time.Time `json:"createdAt"`
	Likes        int       `json:"likes"`
}

// ValidRating reports whether r is within bounds and on a half-star step.
func ValidRating(r float64) bool {
	if r < MinRating || r > MaxRating {
		return false
	}
	steps := r * 2
	return steps == math.Trunc(steps)
}
