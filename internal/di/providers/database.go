package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/polyrhythmd/polyrhythmd-server/internal/config"
	"github.com/polyrhythmd/polyrhythmd-server/internal/logger"
	"github.com/polyrhythmd/polyrhythmd-server/internal/store"
	"github.com/polyrhythmd/polyrhythmd-server/internal/ws"
)

// HubHandle wraps the WebSocket hub with its context for lifecycle management.
type HubHandle struct {
	*ws.Hub
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *HubHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Hub.Shutdown(ctx)
}

// ProvideHub provides the WebSocket notification hub.
func ProvideHub(i do.Injector) (*HubHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	hub := ws.NewHub(log.Logger, cfg.Notify.PingInterval)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Start(ctx)

	log.Info("Notification hub started", "ping_interval", cfg.Notify.PingInterval)

	return &HubHandle{
		Hub:    hub,
		cancel: cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	hubHandle := do.MustInvoke[*HubHandle](i)

	dbPath := filepath.Join(cfg.Data.Path, "db")
	db, err := store.New(dbPath, log.Logger, hubHandle.Hub)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
