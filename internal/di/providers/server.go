package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/polyrhythmd/polyrhythmd-server/internal/api"
	"github.com/polyrhythmd/polyrhythmd-server/internal/config"
	"github.com/polyrhythmd/polyrhythmd-server/internal/logger"
	"github.com/polyrhythmd/polyrhythmd-server/internal/service"
	"github.com/polyrhythmd/polyrhythmd-server/internal/ws"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	hubHandle := do.MustInvoke[*HubHandle](i)
	catalogHandle := do.MustInvoke[*CatalogClientHandle](i)

	authService := do.MustInvoke[*service.AuthService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	reviewService := do.MustInvoke[*service.ReviewService](i)
	profileService := do.MustInvoke[*service.ProfileService](i)

	wsHandler := ws.NewHandler(hubHandle.Hub, log.Logger, nil)

	handler := api.NewServer(authService, sessionService, reviewService, profileService, catalogHandle.Client, wsHandler, cfg.Server.CORSOrigins, cfg.IsProduction(), log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
