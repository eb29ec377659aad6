package server

import (
	"encoding/json"

	"wall/internal/middleware"
	"wall/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedSocketHandler handles GET /ws/feed. Each socket receives the current
// feed snapshot on connect and every subsequent feed update until it closes.
func (s *Server) FeedSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		if !s.hub.Register(conn) {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"connection limit reached"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.Unregister(conn)

		snapshot, err := json.Marshal(fiber.Map{
			"type":  "feed_snapshot",
			"posts": s.feed.Posts(),
		})
		if err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, snapshot)
		}

		observability.Logger.Debug("feed socket connected", "user_id", userID)

		// Inbound messages are ignored; the read loop only detects close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
