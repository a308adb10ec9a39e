package server

import (
	"net/http"

	"randomradio/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades a control panel connection, sends the current
// station snapshot and keeps the connection registered until it closes.
func (h *APIHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := h.hub.add(conn)
	defer h.hub.remove(client)

	// Snapshot so a fresh panel does not wait for the next cycle.
	h.hub.send(client, MsgTypeNowPlaying, h.station.Now())

	// Read loop only consumes control frames and detects close.
	conn.SetReadLimit(1024)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
