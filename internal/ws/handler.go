package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single socket write.
	writeWait = 10 * time.Second
	// readWait bounds how long a connection may stay silent. Pongs and
	// any client message reset it.
	readWait = 60 * time.Second
)

// Handler upgrades HTTP requests to WebSocket connections at GET /api/ws.
type Handler struct {
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler. checkOrigin decides which
// browser origins may connect; nil allows all origins.
func NewHandler(hub *Hub, logger *slog.Logger, checkOrigin func(r *http.Request) bool) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeHTTP upgrades the connection and registers it with the hub.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client, err := h.hub.Connect()
	if err != nil {
		h.logger.Error("failed to register websocket client", slog.String("error", err.Error()))
		_ = conn.Close()
		return
	}

	clientLogger := h.logger.With(slog.String("client_id", client.ID))

	go h.writePump(conn, client, clientLogger)
	go h.readPump(conn, client, clientLogger)
}

// writePump serializes all writes to the connection: broadcast events,
// liveness pings from the hub sweep, and the close frame.
func (h *Handler) writePump(conn *websocket.Conn, client *Client, logger *slog.Logger) {
	defer conn.Close() //nolint:errcheck // Nothing useful to do with a close error

	for {
		select {
		case event, ok := <-client.Send:
			if !ok {
				// Hub closed this client (reaped or server shutdown).
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Info("client disconnected during send")
				h.hub.Disconnect(client.ID)
				return
			}

		case <-client.Ping:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Info("client disconnected during ping")
				h.hub.Disconnect(client.ID)
				return
			}

		case <-client.Done:
			return
		}
	}
}

// readPump consumes the connection so control frames get processed.
// Incoming data messages are discarded, the protocol is server push only.
func (h *Handler) readPump(conn *websocket.Conn, client *Client, logger *slog.Logger) {
	defer h.hub.Disconnect(client.ID)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		client.MarkAlive()
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Info("client read error", slog.String("error", err.Error()))
			}
			return
		}
		// Any traffic proves the connection is alive.
		client.MarkAlive()
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
	}
}
