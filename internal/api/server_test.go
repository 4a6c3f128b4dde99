package api

import (
	"bytes"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/polyrhythmd/polyrhythmd-server/internal/catalog/spotify"
	"github.com/polyrhythmd/polyrhythmd-server/internal/service"
	"github.com/polyrhythmd/polyrhythmd-server/internal/store"
	"github.com/polyrhythmd/polyrhythmd-server/internal/validation"
	"github.com/polyrhythmd/polyrhythmd-server/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer creates a test server with all dependencies.
// The returned catalog client has no credentials; catalog tests build
// their own server via setupTestServerWithCatalog.
func setupTestServer(t *testing.T) (server *Server, cleanup func()) {
	t.Helper()
	return setupTestServerWithCatalog(t, nil)
}

// setupTestServerWithCatalog creates a test server using the given catalog client.
func setupTestServerWithCatalog(t *testing.T, catalog *spotify.Client) (server *Server, cleanup func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "polyrhythmd-api-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub := ws.NewHub(logger, 100*time.Millisecond)
	wsHandler := ws.NewHandler(hub, logger, nil)

	s, err := store.New(tmpDir, logger, hub)
	require.NoError(t, err)

	validator := validation.New()
	sessionService := service.NewSessionService(s, logger)
	authService := service.NewAuthService(s, sessionService, validator, logger)
	reviewService := service.NewReviewService(s, validator, logger)
	profileService := service.NewProfileService(s, validator, logger)

	if catalog == nil {
		catalog = spotify.New("", "", logger)
	}

	server = NewServer(authService, sessionService, reviewService, profileService, catalog, wsHandler, []string{"http://localhost:5173"}, false, logger)

	cleanup = func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return server, cleanup
}

// doJSON performs a request with an optional JSON body against the server.
// modify can adjust the request before dispatch, e.g. to attach credentials.
func doJSON(t *testing.T, server *Server, method, path string, body any, modify func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if modify != nil {
		modify(req)
	}

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a recorded response body into T.
func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

// registerUser registers a user and returns the auth response.
func registerUser(t *testing.T, server *Server, username, password string) service.AuthResponse {
	t.Helper()

	w := doJSON(t, server, http.MethodPost, "/api/auth/register", map[string]any{
		"username": username,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	return decodeBody[service.AuthResponse](t, w)
}

// withCookie attaches the session cookie to a request.
func withCookie(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
}

// withBearer attaches an Authorization header to a request.
func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func TestHealthCheck(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := doJSON(t, server, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[HealthResponse](t, w)
	assert.Equal(t, "healthy", body.Status)
}

func TestUnknownRouteReturns404(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	w := doJSON(t, server, http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCredentialExtraction_CookieWinsOverBearer(t *testing.T) {
	creds := SessionCredentials{
		SessionCookie: "cookie-token",
		Authorization: "Bearer header-token",
	}
	assert.Equal(t, "cookie-token", creds.token())
}

func TestCredentialExtraction_BearerFallback(t *testing.T) {
	creds := SessionCredentials{Authorization: "Bearer header-token"}
	assert.Equal(t, "header-token", creds.token())
}

func TestCredentialExtraction_MalformedHeaderIgnored(t *testing.T) {
	creds := SessionCredentials{Authorization: "Basic dXNlcjpwdw=="}
	assert.Empty(t, creds.token())
}
