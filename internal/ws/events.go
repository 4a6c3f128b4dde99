// Package ws pushes live notifications to connected WebSocket clients.
package ws

import "github.com/polyrhythmd/polyrhythmd-server/internal/domain"

// EventType represents the type of a WebSocket event.
type EventType string

// EventNewReview announces a freshly posted review.
const EventNewReview EventType = "newReview"

// Event is the wire message pushed to connected clients. The payload is
// flat so clients can switch on "type" and read the rest directly.
type Event struct {
	Type      EventType `json:"type"`
	UserName  string    `json:"userName,omitempty"`
	AlbumName string    `json:"albumName,omitempty"`
	Rating    float64   `json:"rating,omitempty"`
}

// NewReviewEvent builds the notification for a newly created review.
func NewReviewEvent(review *domain.Review) Event {
	return Event{
		Type:      EventNewReview,
		UserName:  review.ReviewerName,
		AlbumName: review.AlbumName,
		Rating:    review.Rating,
	}
}
