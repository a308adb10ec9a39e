package server

import (
	"encoding/json"
	"sync"
	"time"

	"randomradio/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Station event types pushed to control panels.
const (
	MsgTypeNowPlaying = "now_playing"
	MsgTypeNarration  = "narration"
	MsgTypeHistory    = "history"
	MsgTypeMood       = "mood"
	MsgTypeVolume     = "volume"
	MsgTypePaused     = "paused"
)

// WSMessage is the envelope for every event on the websocket.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// wsClient is one connected control panel.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans station events out to every connected control panel. It
// implements station.Notifier.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*wsClient
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*wsClient)}
}

// Broadcast sends one event to all connected clients. Slow clients are
// dropped rather than blocking the station loop.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	msg := WSMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Warn("Failed to marshal websocket event", logger.ErrorField(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			logger.Warn("Dropping slow websocket client", logger.String("client", id))
			close(client.send)
			delete(h.clients, id)
		}
	}
}

// send delivers one event to a single client.
func (h *Hub) send(client *wsClient, msgType string, data interface{}) {
	msg := WSMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

// ClientCount returns the number of connected panels.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// add registers a connection and starts its write pump.
func (h *Hub) add(conn *websocket.Conn) *wsClient {
	client := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 16),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	go client.writePump()
	logger.Info("Control panel connected", logger.String("client", client.id))
	return client
}

// remove drops a connection.
func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; ok {
		close(client.send)
		delete(h.clients, client.id)
	}
	h.mu.Unlock()
	client.conn.Close()
	logger.Info("Control panel disconnected", logger.String("client", client.id))
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
