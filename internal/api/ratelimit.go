package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/polyrhythmd/polyrhythmd-server/internal/ratelimit"
)

const (
	// Credential endpoints get a tight per-IP budget to slow down
	// password guessing. Everything else is left alone.
	authRequestsPerSecond = 1.0
	authBurst             = 10
)

// newAuthRateLimiter creates the per-IP limiter for /api/auth endpoints.
func newAuthRateLimiter() *ratelimit.KeyedRateLimiter {
	return ratelimit.New(authRequestsPerSecond, authBurst)
}

// rateLimitAuthRoutes limits requests under /api/auth by client IP.
// Returns 429 Too Many Requests when the limit is exceeded.
func rateLimitAuthRoutes(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/auth/") {
				next.ServeHTTP(w, r)
				return
			}

			key := clientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":"RATE_LIMITED","message":"Too many requests. Please try again later."}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP from the request.
// middleware.RealIP has already folded X-Forwarded-For and X-Real-IP
// into RemoteAddr, so only the port needs stripping here.
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
