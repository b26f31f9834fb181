package stream

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/reviewhub/backend/pkg/logger"
)

// Hub fans moderation events out to every connected dashboard client. Writes
// go through a per-connection mutex because fiber websocket connections are
// not safe for concurrent writers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

// HandleConnection blocks until the client disconnects. Incoming frames are
// read and discarded; the moderation channel is push-only.
func (h *Hub) HandleConnection(c *websocket.Conn) {
	cl := &client{conn: c}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	logger.Info("Moderation stream client connected", zap.Int("clients", count))

	defer func() {
		h.mu.Lock()
		delete(h.clients, cl)
		h.mu.Unlock()
		c.Close()
		logger.Info("Moderation stream client disconnected")
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends an event to all connected clients. Clients that fail the
// write are dropped on their next read.
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg := map[string]interface{}{
		"type":      event,
		"payload":   payload,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		cl.mu.Lock()
		err := cl.conn.WriteJSON(msg)
		cl.mu.Unlock()
		if err != nil {
			logger.Debug("Moderation stream write failed", zap.Error(err))
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
