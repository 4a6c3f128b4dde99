// Package spotify proxies album search and lookup against the Spotify Web API
// using the client-credentials flow.
package spotify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/polyrhythmd/polyrhythmd-server/internal/errors"
	"github.com/polyrhythmd/polyrhythmd-server/internal/ratelimit"
)

const (
	defaultAPIBaseURL = "https://api.spotify.com/v1"
	defaultTokenURL   = "https://accounts.spotify.com/api/token" //#nosec G101 -- OAuth endpoint, not a credential

	// Rate limit: generous but keeps a misbehaving client from hammering the API
	defaultRPS   = 10.0
	defaultBurst = 10

	// HTTP client settings
	defaultTimeout = 30 * time.Second

	// Search results per query
	searchLimit = 20
)

// Client is a rate-limited Spotify API client with a cached app token.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger

	clientID     string
	clientSecret string

	apiBaseURL string
	tokenURL   string

	tokens tokenCache
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURLs overrides the API and token endpoints. Used in tests.
func WithBaseURLs(apiBaseURL, tokenURL string) Option {
	return func(c *Client) {
		c.apiBaseURL = apiBaseURL
		c.tokenURL = tokenURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// New creates a new Spotify client. Empty credentials are allowed, requests
// will fail with an upstream error until they are configured.
func New(clientID, clientSecret string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter:      ratelimit.New(defaultRPS, defaultBurst),
		logger:       logger,
		clientID:     clientID,
		clientSecret: clientSecret,
		apiBaseURL:   defaultAPIBaseURL,
		tokenURL:     defaultTokenURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// doAPIRequest executes an authenticated GET against the Spotify API.
func (c *Client) doAPIRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, apperrors.Upstream("catalog credentials not configured")
	}

	// Wait for rate limit
	if err := c.limiter.Wait(ctx, "api"); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	requestURL := c.apiBaseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	if c.logger != nil {
		c.logger.Debug("spotify request", "path", path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("catalog request failed").WithCause(err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on a read-only body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFound("album not found")
	case resp.StatusCode == http.StatusUnauthorized:
		// Token went stale early, drop it so the next request re-fetches.
		c.tokens.invalidate()
		return nil, apperrors.Upstream("catalog authorization rejected")
	default:
		return nil, apperrors.Upstream(fmt.Sprintf("catalog returned status %d: %s", resp.StatusCode, string(body)))
	}
}
