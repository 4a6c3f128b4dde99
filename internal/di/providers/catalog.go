package providers

import (
	"github.com/samber/do/v2"

	"github.com/polyrhythmd/polyrhythmd-server/internal/catalog/spotify"
	"github.com/polyrhythmd/polyrhythmd-server/internal/config"
	"github.com/polyrhythmd/polyrhythmd-server/internal/logger"
)

// CatalogClientHandle wraps the Spotify client with Shutdownable.
type CatalogClientHandle struct {
	*spotify.Client
}

// Shutdown implements do.Shutdownable.
func (h *CatalogClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCatalogClient provides the Spotify catalog client.
// Credentials may be absent; catalog endpoints then fail with an
// upstream error while the rest of the API keeps working.
func ProvideCatalogClient(i do.Injector) (*CatalogClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		log.Warn("Spotify credentials not configured, catalog endpoints will be unavailable")
	}

	client := spotify.New(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, log.Logger)

	return &CatalogClientHandle{Client: client}, nil
}
