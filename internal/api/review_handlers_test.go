package api

import (
	"net/http"
	"testing"

	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postReview creates a review as the given session and returns it.
func postReview(t *testing.T, server *Server, token string, body map[string]any) domain.Review {
	t.Helper()

	w := doJSON(t, server, http.MethodPost, "/api/reviews", body, withCookie(token))
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return decodeBody[domain.Review](t, w)
}

func TestCreateReview(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registered := registerUser(t, server, "alice", "pw123")

	review := postReview(t, server, registered.Token, map[string]any{
		"albumId":    "A1",
		"albumName":  "X",
		"artistName": "The Band",
		"albumCover": "https://example.com/x.jpg",
		"rating":     4.5,
		"reviewText": "Great",
	})

	assert.NotEmpty(t, review.ID)
	assert.Equal(t, "A1", review.AlbumID)
	assert.Equal(t, "X", review.AlbumName)
	assert.Equal(t, "alice", review.ReviewerName)
	assert.InEpsilon(t, 4.5, review.Rating, 0.001)
	assert.False(t, review.CreatedAt.IsZero())
}

func TestCreateReview_Unauthenticated(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := doJSON(t, server, http.MethodPost, "/api/reviews", map[string]any{
		"albumId":    "A1",
		"albumName":  "X",
		"rating":     4.5,
		"reviewText": "Great",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Nothing was stored.
	list := doJSON(t, server, http.MethodGet, "/api/reviews", nil, nil)
	assert.Equal(t, http.StatusOK, list.Code)
	assert.Empty(t, decodeBody[[]domain.Review](t, list))
}

func TestCreateReview_MissingFields(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registered := registerUser(t, server, "alice", "pw123")

	w := doJSON(t, server, http.MethodPost, "/api/reviews", map[string]any{
		"artistName": "The Band",
	}, withCookie(registered.Token))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody[struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}](t, w)
	assert.Equal(t, "VALIDATION", body.Code)
	for _, field := range []string{"albumId", "albumName", "rating", "reviewText"} {
		assert.Contains(t, body.Details, field)
	}
}

func TestCreateReview_ReviewerNameFromSession(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registered := registerUser(t, server, "alice", "pw123")

	// A spoofed reviewerName in the body is ignored.
	review := postReview(t, server, registered.Token, map[string]any{
		"albumId":      "A1",
		"albumName":    "X",
		"rating":       3,
		"reviewText":   "fine",
		"reviewerName": "mallory",
	})

	assert.Equal(t, "alice", review.ReviewerName)
}

func TestListReviews_NewestFirst(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registered := registerUser(t, server, "alice", "pw123")

	for _, album := range []string{"A1", "A2", "A3"} {
		postReview(t, server, registered.Token, map[string]any{
			"albumId":    album,
			"albumName":  "Album " + album,
			"rating":     4,
			"reviewText": "solid",
		})
	}

	w := doJSON(t, server, http.MethodGet, "/api/reviews", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	reviews := decodeBody[[]domain.Review](t, w)
	require.Len(t, reviews, 3)
	assert.Equal(t, "A3", reviews[0].AlbumID)
	assert.Equal(t, "A2", reviews[1].AlbumID)
	assert.Equal(t, "A1", reviews[2].AlbumID)
}

func TestListReviewsByAlbum(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registered := registerUser(t, server, "alice", "pw123")

	postReview(t, server, registered.Token, map[string]any{
		"albumId": "A1", "albumName": "X", "rating": 4.5, "reviewText": "Great",
	})
	postReview(t, server, registered.Token, map[string]any{
		"albumId": "A2", "albumName": "Y", "rating": 2, "reviewText": "meh",
	})

	w := doJSON(t, server, http.MethodGet, "/api/reviews/album/A1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	reviews := decodeBody[[]domain.Review](t, w)
	require.Len(t, reviews, 1)
	assert.Equal(t, "A1", reviews[0].AlbumID)
	assert.InEpsilon(t, 4.5, reviews[0].Rating, 0.001)
}

func TestListReviewsByUser(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	alice := registerUser(t, server, "alice", "pw123")
	bob := registerUser(t, server, "bob", "hunter22")

	postReview(t, server, alice.Token, map[string]any{
		"albumId": "A1", "albumName": "X", "rating": 4, "reviewText": "nice",
	})
	postReview(t, server, bob.Token, map[string]any{
		"albumId": "A1", "albumName": "X", "rating": 1.5, "reviewText": "nah",
	})

	w := doJSON(t, server, http.MethodGet, "/api/reviews/user/bob", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	reviews := decodeBody[[]domain.Review](t, w)
	require.Len(t, reviews, 1)
	assert.Equal(t, "bob", reviews[0].ReviewerName)
}

func TestListReviewsByUser_UnknownUserIsEmpty(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := doJSON(t, server, http.MethodGet, "/api/reviews/user/nobody", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	// Serialized as an empty array, not null.
	assert.Contains(t, w.Body.String(), "[]")
	assert.Empty(t, decodeBody[[]domain.Review](t, w))
}

func TestReviewFlow(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	// Register, then a duplicate registration is rejected.
	registerUser(t, server, "alice", "pw123")
	dup := doJSON(t, server, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "alice",
		"password": "anything",
	}, nil)
	require.Equal(t, http.StatusConflict, dup.Code)

	// Login and post a review with the session cookie.
	login := doJSON(t, server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "alice",
		"password": "pw123",
	}, nil)
	require.Equal(t, http.StatusOK, login.Code)
	token := decodeBody[map[string]string](t, login)["token"]

	created := doJSON(t, server, http.MethodPost, "/api/reviews", map[string]any{
		"albumId":    "A1",
		"albumName":  "X",
		"rating":     4.5,
		"reviewText": "Great",
	}, withCookie(token))
	require.Equal(t, http.StatusCreated, created.Code)

	// The album feed now holds exactly that review.
	w := doJSON(t, server, http.MethodGet, "/api/reviews/album/A1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	reviews := decodeBody[[]domain.Review](t, w)
	require.Len(t, reviews, 1)
	assert.InEpsilon(t, 4.5, reviews[0].Rating, 0.001)
}
