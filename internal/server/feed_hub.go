package server

import (
	"sync"
	"time"

	"wall/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxFeedConns = 4096
	writeTimeout = 10 * time.Second
)

// FeedHub fans feed updates out to connected WebSocket clients.
type FeedHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewFeedHub creates an empty hub.
func NewFeedHub() *FeedHub {
	return &FeedHub{conns: make(map[*websocket.Conn]struct{})}
}

// Register adds a connection. Returns false when the connection limit is hit.
func (h *FeedHub) Register(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.conns) >= maxFeedConns {
		return false
	}
	h.conns[conn] = struct{}{}
	return true
}

// Unregister removes a connection.
func (h *FeedHub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Broadcast writes a payload to every connected client. Connections that fail
// to accept the write are dropped.
func (h *FeedHub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			observability.Logger.Debug("dropping dead feed socket", "error", err)
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}

// CloseAll closes every connection; used during shutdown.
func (h *FeedHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, conn)
	}
}
