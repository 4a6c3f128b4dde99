package api

import (
	"context"
	"strings"

	"github.com/polyrhythmd/polyrhythmd-server/internal/domain"
)

// sessionCookieName is the cookie carrying the opaque session token.
const sessionCookieName = "token"

// SessionCredentials carries the session token from either transport.
// Embed it in the input struct of any operation that needs authentication.
type SessionCredentials struct {
	SessionCookie string `cookie:"token" doc:"Session cookie"`
	Authorization string `header:"Authorization" doc:"Bearer session token"`
}

// credentialExtractors are tried in order; the first non-empty token wins.
// The cookie outranks the Authorization header so that browser sessions
// behave predictably even when a client library also sets a Bearer header.
var credentialExtractors = []func(SessionCredentials) string{
	func(c SessionCredentials) string {
		return c.SessionCookie
	},
	func(c SessionCredentials) string {
		token, ok := strings.CutPrefix(c.Authorization, "Bearer ")
		if !ok {
			return ""
		}
		return token
	},
}

// token returns the session token from the request, or "" when absent.
func (c SessionCredentials) token() string {
	for _, extract := range credentialExtractors {
		if token := extract(c); token != "" {
			return token
		}
	}
	return ""
}

// requireUser resolves the request's credentials to a user.
// Returns an unauthorized domain error when the token is absent or invalid.
func (s *Server) requireUser(ctx context.Context, creds SessionCredentials) (*domain.User, error) {
	return s.sessions.Resolve(ctx, creds.token())
}
