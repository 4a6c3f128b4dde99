package ws

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polyrhythmd/polyrhythmd-server/internal/id"
)

// Client represents a connected WebSocket client. The hub talks to the
// connection goroutines only through channels so it never blocks on a
// slow socket.
type Client struct {
	ConnectedAt time.Time
	Send        chan Event
	Ping        chan struct{}
	Done        chan struct{}
	ID          string

	// alive is cleared by the liveness sweep and set again when the
	// connection answers a ping.
	alive atomic.Bool
}

// MarkAlive records that the connection answered a ping.
// Called from the connection's pong handler.
func (c *Client) MarkAlive() {
	c.alive.Store(true)
}

// Hub manages WebSocket connections and broadcasts events.
type Hub struct {
	clients      map[string]*Client
	events       chan Event
	logger       *slog.Logger
	wg           sync.WaitGroup
	pingInterval time.Duration
	mu           sync.RWMutex

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewHub creates a new Hub. pingInterval controls how often the liveness
// sweep probes connections and reaps the ones that never answered.
func NewHub(logger *slog.Logger, pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 10 * time.Second
	}
	return &Hub{
		clients:      make(map[string]*Client),
		events:       make(chan Event, 1000), // Buffer 1000 events
		logger:       logger,
		pingInterval: pingInterval,
	}
}

// Start begins the broadcast and liveness loop.
// This should be called once at server startup in a goroutine.
func (h *Hub) Start(ctx context.Context) {
	h.wg.Add(1)
	defer h.wg.Done()

	h.logger.Info("WebSocket hub starting")

	sweepTicker := time.NewTicker(h.pingInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case event, ok := <-h.events:
			if !ok {
				// Shutdown closed the channel; anything left in it is
				// broadcast by Shutdown's drain, not here.
				h.logger.Info("WebSocket hub stopping")
				h.closeAllClients()
				return
			}
			h.broadcast(event)

		case <-sweepTicker.C:
			h.sweep()

		case <-ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			h.closeAllClients()
			return
		}
	}
}

// Shutdown gracefully shuts down the hub.
// It stops accepting new events, drains remaining events, and closes all clients.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info("WebSocket hub shutdown initiated")

	// Mark as shutdown AND close channel atomically while holding lock.
	// This prevents a race with Emit() which holds the read lock during send.
	h.shutdownMu.Lock()
	h.shutdown = true
	close(h.events)
	h.shutdownMu.Unlock()

	// Drain remaining events with context timeout.
	done := make(chan struct{})
	go func() {
		for event := range h.events {
			h.broadcast(event)
		}
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("WebSocket events drained successfully")
	case <-ctx.Done():
		h.logger.Warn("WebSocket event drain timeout, some events may be lost")
	}

	h.wg.Wait()

	h.logger.Info("WebSocket hub shutdown complete")
	return nil
}

// broadcast sends an event to every connected client.
func (h *Hub) broadcast(event Event) {
	var delivered, dropped int

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		// Non-blocking send (drop if client is slow/stuck).
		select {
		case client.Send <- event:
			delivered++
		default:
			dropped++
			h.logger.Warn("dropped event for slow client",
				slog.String("client_id", client.ID),
				slog.String("event_type", string(event.Type)))
		}
	}

	h.logger.Debug("event broadcast",
		slog.String("event_type", string(event.Type)),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped)))
}

// sweep disconnects clients that never answered the previous ping, then
// clears the alive flag on the survivors and probes them again.
func (h *Hub) sweep() {
	h.mu.RLock()
	var dead []string
	var probed []*Client
	for _, client := range h.clients {
		if !client.alive.Load() {
			dead = append(dead, client.ID)
			continue
		}
		probed = append(probed, client)
	}
	h.mu.RUnlock()

	for _, clientID := range dead {
		h.logger.Info("reaping unresponsive client", slog.String("client_id", clientID))
		h.Disconnect(clientID)
	}

	for _, client := range probed {
		client.alive.Store(false)
		select {
		case client.Ping <- struct{}{}:
		default:
			// The writer is backed up, the next sweep will reap it.
		}
	}
}

// Connect registers a new client and returns the client object.
// The client starts alive and must answer pings to stay connected.
func (h *Hub) Connect() (*Client, error) {
	clientID, err := id.Generate("conn")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		Send:        make(chan Event, 100), // Buffer 100 events per client
		Ping:        make(chan struct{}, 1),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}
	client.alive.Store(true)

	h.mu.Lock()
	h.clients[client.ID] = client
	totalClients := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("WebSocket client connected",
		slog.String("client_id", clientID),
		slog.Int("total_clients", totalClients))
	return client, nil
}

// Disconnect removes a client and closes its channels.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, clientID)
	totalClients := len(h.clients)
	h.mu.Unlock()

	close(client.Done)
	close(client.Send)

	h.logger.Info("WebSocket client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", totalClients))
}

// Emit queues an event for broadcasting to clients.
// This implements the store.EventEmitter interface.
func (h *Hub) Emit(event any) {
	evt, ok := event.(Event)
	if !ok {
		h.logger.Error("invalid event type emitted",
			slog.String("type", "unknown"))
		return
	}

	// Hold the read lock through the entire send operation.
	// This prevents a race with Shutdown() which holds the write lock when closing the channel.
	h.shutdownMu.RLock()
	defer h.shutdownMu.RUnlock()

	if h.shutdown {
		// Silently drop events after shutdown
		return
	}

	select {
	case h.events <- evt:
		// Event queued for broadcast.
	default:
		// Event channel full, log and drop.
		h.logger.Error("WebSocket event channel full, dropping event",
			slog.String("event_type", string(evt.Type)))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAllClients closes all client connections (used during shutdown).
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Done)
		close(client.Send)
	}
	h.clients = make(map[string]*Client) // Clear the map

	h.logger.Info("all WebSocket clients disconnected")
}
