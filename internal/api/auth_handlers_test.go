package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := doJSON(t, server, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "alice",
		"password": "pw123",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody[map[string]string](t, w)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "alice", body["username"])
	assert.NotEmpty(t, body["token"])

	// The token is also set as an HTTP-only session cookie.
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Equal(t, body["token"], cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registerUser(t, server, "alice", "pw123")

	w := doJSON(t, server, http.MethodPost, "/api/auth/register", map[string]any{
		"username": "alice",
		"password": "anything",
	}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)

	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "ALREADY_EXISTS", body["code"])
}

func TestRegister_MissingFields(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := doJSON(t, server, http.MethodPost, "/api/auth/register", map[string]any{}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody[struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}](t, w)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Details, "username")
	assert.Contains(t, body.Details, "password")
}

func TestLogin_Success(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registered := registerUser(t, server, "alice", "pw123")

	w := doJSON(t, server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "alice",
		"password": "pw123",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, registered.ID, body["id"])
	assert.Equal(t, "alice", body["username"])
	assert.NotEmpty(t, body["token"])

	// The fresh token resolves to the same user.
	cu := doJSON(t, server, http.MethodGet, "/api/user", nil, withCookie(body["token"]))
	assert.Equal(t, http.StatusOK, cu.Code)
	user := decodeBody[CurrentUserResponse](t, cu)
	assert.Equal(t, registered.ID, user.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registerUser(t, server, "alice", "pw123")

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "wrong password", body: map[string]any{"username": "alice", "password": "nope"}},
		{name: "unknown user", body: map[string]any{"username": "bob", "password": "pw123"}},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, server, http.MethodPost, "/api/auth/login", tt.body, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := decodeBody[map[string]any](t, w)
			assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
			messages = append(messages, body["message"].(string))
		})
	}

	// The response must not reveal whether the username exists.
	require.Len(t, messages, 2)
	assert.Equal(t, messages[0], messages[1])
}

func TestLogin_ReplacesPreviousSession(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	first := registerUser(t, server, "alice", "pw123")

	w := doJSON(t, server, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "alice",
		"password": "pw123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeBody[map[string]string](t, w)

	// Only the most recent token is valid.
	stale := doJSON(t, server, http.MethodGet, "/api/user", nil, withCookie(first.Token))
	assert.Equal(t, http.StatusUnauthorized, stale.Code)

	fresh := doJSON(t, server, http.MethodGet, "/api/user", nil, withCookie(second["token"]))
	assert.Equal(t, http.StatusOK, fresh.Code)
}

func TestCurrentUser_BearerToken(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registered := registerUser(t, server, "alice", "pw123")

	w := doJSON(t, server, http.MethodGet, "/api/user", nil, withBearer(registered.Token))

	assert.Equal(t, http.StatusOK, w.Code)
	user := decodeBody[CurrentUserResponse](t, w)
	assert.Equal(t, "alice", user.Username)
}

func TestCurrentUser_Unauthenticated(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := doJSON(t, server, http.MethodGet, "/api/user", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestCurrentUser_InvalidToken(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := doJSON(t, server, http.MethodGet, "/api/user", nil, withCookie("bogus"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	registered := registerUser(t, server, "alice", "pw123")

	w := doJSON(t, server, http.MethodDelete, "/api/auth/logout", nil, withCookie(registered.Token))

	assert.Equal(t, http.StatusNoContent, w.Code)

	// The session cookie is cleared.
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)

	// The revoked token no longer resolves.
	cu := doJSON(t, server, http.MethodGet, "/api/user", nil, withCookie(registered.Token))
	assert.Equal(t, http.StatusUnauthorized, cu.Code)
}

func TestLogout_WithoutSession(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := doJSON(t, server, http.MethodDelete, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
