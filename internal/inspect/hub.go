package inspect

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/oxjest/mockgraph/runtime/modules"
)

// Hub fans registry events out to connected websocket clients.
type Hub struct {
	clients   map[*client]bool
	clientsMu sync.RWMutex

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	logger *zap.Logger
}

// NewHub creates a hub. Run must be called before clients connect.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		broadcast:  make(chan []byte, 256),
		logger:     logger,
	}
}

// Run is the hub's event loop. It returns when ctx is done, closing every
// client's outbound queue.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.clientsMu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.clientsMu.Unlock()
			return

		case c := <-h.register:
			h.clientsMu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Debug("event client connected", zap.String("remote", c.remote), zap.Int("clients", n))

		case c := <-h.unregister:
			h.clientsMu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Debug("event client disconnected", zap.String("remote", c.remote), zap.Int("clients", n))

		case msg := <-h.broadcast:
			h.broadcastToAll(msg)
		}
	}
}

func (h *Hub) broadcastToAll(msg []byte) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Slow client; drop it rather than stall every other client.
			delete(h.clients, c)
			close(c.send)
			h.logger.Warn("dropping slow event client", zap.String("remote", c.remote))
		}
	}
}

// Publish queues e for every connected client. Events are dropped when the
// broadcast queue is full.
func (h *Hub) Publish(e modules.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("encoding event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("event queue full, dropping event",
			zap.String("kind", string(e.Kind)), zap.String("specifier", e.Specifier))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}
