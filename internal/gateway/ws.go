// ABOUTME: WebSocket transport binding live channels to connected clients
// ABOUTME: Upgrades GET /ws, joins a session, and pumps delivery events out

package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/2389/pairchat/internal/auth"
)

const (
	// writeWait bounds a single frame write to a client.
	writeWait = 10 * time.Second

	// pingPeriod keeps half-open connections from lingering; must be
	// shorter than pongWait.
	pingPeriod = 30 * time.Second
	pongWait   = 45 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway sits behind the app's own token auth; origin checks
	// belong to the TLS/CORS layer in front of it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and runs a session for the
// authenticated user. Joining registers a fresh channel; any exit path -
// client close, write failure, ping timeout - leaves the session so
// presence never points at a dead socket. Clients are expected to fetch
// history right after connecting to cover messages sent while they were
// away.
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "error", err, "user", id.Username)
		return
	}

	ch, err := g.sessions.Join(id.Username)
	if err != nil {
		conn.Close()
		return
	}
	defer g.sessions.Leave(ch)

	g.logger.Debug("websocket session open",
		"user", id.Username,
		"channel_id", ch.ID())

	// Reader goroutine: we never expect payloads (sending goes through
	// POST /api/send), but reading is what surfaces close frames and pongs.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case event, ok := <-ch.Events():
			if !ok {
				// Channel pruned by the delivery path or shutdown
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				g.logger.Debug("websocket write failed",
					"user", id.Username,
					"channel_id", ch.ID(),
					"error", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
