package spotify

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/url"
	"strconv"
)

// Artist is a credited artist on an album.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Image is one size of album cover art.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Album is a catalog album as returned to clients.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	Images      []Image  `json:"images"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
}

// searchResponse mirrors the API's nested search payload.
type searchResponse struct {
	Albums struct {
		Items []Album `json:"items"`
	} `json:"albums"`
}

// SearchAlbums searches the catalog for albums matching q.
func (c *Client) SearchAlbums(ctx context.Context, q string) ([]Album, error) {
	query := url.Values{}
	query.Set("q", q)
	query.Set("type", "album")
	query.Set("limit", strconv.Itoa(searchLimit))

	body, err := c.doAPIRequest(ctx, "/search", query)
	if err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	if sr.Albums.Items == nil {
		return []Album{}, nil
	}
	return sr.Albums.Items, nil
}

// GetAlbum fetches a single album by its catalog ID.
func (c *Client) GetAlbum(ctx context.Context, id string) (*Album, error) {
	body, err := c.doAPIRequest(ctx, "/albums/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var album Album
	if err := json.Unmarshal(body, &album); err != nil {
		return nil, fmt.Errorf("parse album response: %w", err)
	}

	return &album, nil
}
