package spotify

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/polyrhythmd/polyrhythmd-server/internal/errors"
)

// tokenRefreshMargin is how long before actual expiry a cached token is
// treated as stale. Refreshing early avoids racing the upstream clock.
const tokenRefreshMargin = 60 * time.Second

// tokenCache holds the current client-credentials token.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// invalidate drops the cached token so the next request fetches a new one.
func (t *tokenCache) invalidate() {
	t.mu.Lock()
	t.token = ""
	t.expiresAt = time.Time{}
	t.mu.Unlock()
}

// tokenResponse is the OAuth token endpoint reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a valid app token, fetching a new one when the cached
// token is missing or within the refresh margin of expiring.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()

	if c.tokens.token != "" && time.Now().Before(c.tokens.expiresAt.Add(-tokenRefreshMargin)) {
		return c.tokens.token, nil
	}

	token, expiresIn, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	c.tokens.token = token
	c.tokens.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)

	if c.logger != nil {
		c.logger.Debug("spotify token refreshed", "expires_in", expiresIn)
	}

	return token, nil
}

// fetchToken performs the client-credentials grant.
func (c *Client) fetchToken(ctx context.Context) (string, int, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, apperrors.Upstream("catalog token fetch failed").WithCause(err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on a read-only body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, apperrors.Upstream(fmt.Sprintf("catalog token endpoint returned status %d: %s", resp.StatusCode, string(body)))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, fmt.Errorf("parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, apperrors.Upstream("catalog token endpoint returned an empty token")
	}

	return tr.AccessToken, tr.ExpiresIn, nil
}
