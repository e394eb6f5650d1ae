// Package realtime pushes change feed entries to connected websocket clients.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/gorilla/websocket"
)

const (
	// pingInterval keeps idle connections alive through proxies
	pingInterval = 25 * time.Second
	// pongWait must exceed pingInterval
	pongWait   = 60 * time.Second
	writeWait  = 10 * time.Second
	sendBuffer = 32
)

// Message is the envelope written to clients
type Message struct {
	Type   string              `json:"type"`
	Change *models.ChangeEntry `json:"change,omitempty"`
}

// Client is one websocket connection of a user
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// Hub tracks connections per user and fans change entries out to them
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates a hub. An empty or "*" origin list accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[string]map[*Client]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// native clients send no Origin
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// Register adds c to its user's set
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*Client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

// Unregister removes c and closes its connection. It is safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set := h.clients[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()

	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

// ClientCount returns the number of open connections of a user
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish queues change for every connection of userID. Clients whose
// buffer is full are dropped rather than blocking the writer.
func (h *Hub) Publish(userID string, change *models.ChangeEntry) {
	msg, err := json.Marshal(Message{Type: "change", Change: change})
	if err != nil {
		logger.Error("failed to encode realtime message", logger.Err(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("dropping slow realtime client", logger.String("user_id", userID))
		h.Unregister(c)
	}
}

// Serve upgrades the request and pumps messages until the client goes away
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.Register(c)
	go h.writePump(c)
	h.readPump(c)
	return nil
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
}

// readPump discards inbound messages; it exists to process pongs and notice
// closed connections
func (h *Hub) readPump(c *Client) {
	defer h.Unregister(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer of c.conn
func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		h.Unregister(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
