// Package api provides the HTTP API server and handlers for the polyrhythmd application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/polyrhythmd/polyrhythmd-server/internal/catalog/spotify"
	"github.com/polyrhythmd/polyrhythmd-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	auth          *service.AuthService
	sessions      *service.SessionService
	reviews       *service.ReviewService
	profiles      *service.ProfileService
	catalog       *spotify.Client
	wsHandler     http.Handler
	secureCookies bool
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(authService *service.AuthService, sessionService *service.SessionService, reviewService *service.ReviewService, profileService *service.ProfileService, catalogClient *spotify.Client, wsHandler http.Handler, corsOrigins []string, secureCookies bool, logger *slog.Logger) *Server {
	s := &Server{
		auth:          authService,
		sessions:      sessionService,
		reviews:       reviewService,
		profiles:      profileService,
		catalog:       catalogClient,
		wsHandler:     wsHandler,
		secureCookies: secureCookies,
		router:        chi.NewRouter(),
		logger:        logger,
	}

	s.setupMiddleware(corsOrigins)

	config := huma.DefaultConfig("polyrhythmd", "1.0.0")
	config.DocsPath = "/docs"
	s.api = humachi.New(s.router, config)

	RegisterErrorHandler()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(corsOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// The session cookie requires credentialed CORS, so origins must be
	// listed explicitly rather than wildcarded.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(rateLimitAuthRoutes(newAuthRateLimiter(), s.logger))
}

// setupRoutes registers all API operations.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerReviewRoutes()
	s.registerProfileRoutes()
	s.registerCatalogRoutes()

	// WebSocket upgrades bypass huma since they never produce a JSON response.
	s.router.Get("/api/ws", s.wsHandler.ServeHTTP)
}
