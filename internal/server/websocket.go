package server

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/migtrack/internal/hub"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Broadcaster hands out snapshot subscriptions.
type Broadcaster interface {
	Subscribe() *hub.Subscription
	Unsubscribe(id string) bool
}

// WebSocketHandler streams snapshots to websocket clients at /ws.
//
// Each connection owns one hub subscription. Any write or read failure ends
// the connection and unsubscribes it.
type WebSocketHandler struct {
	hub      Broadcaster
	upgrader websocket.Upgrader
	logger   *log.Logger
}

func NewWebSocketHandler(b Broadcaster, logger *log.Logger) *WebSocketHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &WebSocketHandler{
		hub: b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *WebSocketHandler) Routes() []string { return []string{"GET /ws"} }

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sub := h.hub.Subscribe()
	logger := h.logger.With("subscriber", sub.ID, "remote", r.RemoteAddr)
	logger.Info("websocket client connected")

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, sub, done, logger)

	h.hub.Unsubscribe(sub.ID)
	conn.Close()
	logger.Info("websocket client disconnected")
}

// readLoop discards client messages and closes done once the peer goes away.
func (h *WebSocketHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, sub *hub.Subscription, done <-chan struct{}, logger *log.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame.Data); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("websocket ping failed", "error", err)
				return
			}
		case <-done:
			return
		}
	}
}
