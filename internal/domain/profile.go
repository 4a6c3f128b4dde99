package domain

import "time"

// FavoriteAlbum is a catalog album pinned on a user's profile.
type FavoriteAlbum struct {
	AlbumID    string `json:"albumId"`
	AlbumName  string `json:"albumName"`
	ArtistName string `json:"artistName"`
	AlbumCover string `json:"albumCover,omitempty"`
}

// Profile holds the public, user-editable parts of an account.
// Keyed by username since that's how other users find it.
type Profile struct {
	Username       string          `json:"username"`
	Bio            string          `json:"bio,omitempty"`
	FavoriteAlbums []FavoriteAlbum `json:"favoriteAlbums"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
