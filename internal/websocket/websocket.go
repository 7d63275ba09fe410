package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"smssync-site/internal/types"
)

const writeTimeout = 5 * time.Second

// Hub tracks connected live-reload clients
type Hub struct {
	mu       sync.RWMutex
	clients  map[*types.WSClient]bool
	upgrader websocket.Upgrader
}

// NewHub returns an empty Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*types.WSClient]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler upgrades the request and keeps the client registered until it
// disconnects
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	client := &types.WSClient{Conn: conn}
	h.add(client)
	defer h.remove(client)

	logrus.WithField("remote", r.RemoteAddr).Info("Live-reload client connected")

	client.Mu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = conn.WriteJSON(types.WSMessage{Type: "hello", Message: "watching deployment"})
	client.Mu.Unlock()
	if err != nil {
		logrus.WithError(err).Warn("Failed to greet live-reload client")
		return
	}

	// Clients never send anything meaningful; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Warn("WebSocket error")
			}
			break
		}
	}

	logrus.WithField("remote", r.RemoteAddr).Info("Live-reload client disconnected")
}

// Broadcast sends msg to every connected client and waits for the writes
func (h *Hub) Broadcast(msg types.WSMessage) {
	h.mu.RLock()
	clients := make([]*types.WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	logrus.WithFields(logrus.Fields{
		"message_type": msg.Type,
		"client_count": len(clients),
	}).Info("Broadcasting message to WebSocket clients")

	var wg sync.WaitGroup
	for _, client := range clients {
		wg.Add(1)
		go func(c *types.WSClient) {
			defer wg.Done()
			c.Mu.Lock()
			defer c.Mu.Unlock()
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.Conn.WriteJSON(msg); err != nil {
				logrus.WithError(err).Error("Failed to send WebSocket message to client")
			}
		}(client)
	}
	wg.Wait()
}

// Reload tells every client to reload the page
func (h *Hub) Reload(changed []string) {
	h.Broadcast(types.WSMessage{
		Type:    "reload",
		Changed: changed,
	})
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *types.WSClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *types.WSClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}
