package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/polyrhythmd/polyrhythmd-server/internal/catalog/spotify"
	apperrors "github.com/polyrhythmd/polyrhythmd-server/internal/errors"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search-albums",
		Method:      http.MethodGet,
		Path:        "/api/spotify/search",
		Summary:     "Search albums",
		Description: "Proxies an album search to the Spotify catalog.",
		Tags:        []string{"Catalog"},
	}, s.handleSearchAlbums)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-album",
		Method:      http.MethodGet,
		Path:        "/api/spotify/album/{id}",
		Summary:     "Get an album",
		Description: "Fetches a single album from the Spotify catalog.",
		Tags:        []string{"Catalog"},
	}, s.handleGetAlbum)
}

// === DTOs ===

// SearchAlbumsInput carries the album search query.
type SearchAlbumsInput struct {
	Query string `query:"q" doc:"Search query"`
}

// SearchAlbumsResponse contains the matching albums.
type SearchAlbumsResponse struct {
	Albums []spotify.Album `json:"albums" doc:"Matching albums"`
}

// SearchAlbumsOutput wraps the search response for Huma.
type SearchAlbumsOutput struct {
	Body SearchAlbumsResponse
}

// GetAlbumInput identifies the album to fetch.
type GetAlbumInput struct {
	ID string `path:"id" doc:"Spotify album ID"`
}

// AlbumOutput wraps a single album for Huma.
type AlbumOutput struct {
	Body spotify.Album
}

// === Handlers ===

func (s *Server) handleSearchAlbums(ctx context.Context, input *SearchAlbumsInput) (*SearchAlbumsOutput, error) {
	if input.Query == "" {
		return nil, apperrors.Validation("missing required query parameter \"q\"")
	}

	albums, err := s.catalog.SearchAlbums(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	return &SearchAlbumsOutput{Body: SearchAlbumsResponse{Albums: albums}}, nil
}

func (s *Server) handleGetAlbum(ctx context.Context, input *GetAlbumInput) (*AlbumOutput, error) {
	album, err := s.catalog.GetAlbum(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &AlbumOutput{Body: *album}, nil
}
