package api

import (
	"net/http"
	"time"

	"chat-vault/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin; access control happens at the
	// API layer, not the upgrade.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Subscribe handles GET /ws: it upgrades the connection, registers it with
// the hub and pipes new_message events until either side goes away.
func (h *handler) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err, "client_ip", c.ClientIP())
		return
	}

	sub := h.hub.Subscribe()
	go h.writePump(conn, sub)
	go h.readPump(conn, sub)
}

// writePump pushes hub events to the peer. It exits when the hub closes
// the subscriber channel or a write fails; the connection dies with it.
func (h *handler) writePump(conn *websocket.Conn, sub *realtime.Subscriber) {
	defer func() { _ = conn.Close() }()

	for event := range sub.Events() {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.hub.Unsubscribe(sub)
			return
		}
	}
}

// readPump exists only to notice the peer hanging up. Inbound frames carry
// no meaning for the broadcaster and are discarded.
func (h *handler) readPump(conn *websocket.Conn, sub *realtime.Subscriber) {
	defer func() {
		h.hub.Unsubscribe(sub)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
