package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a real-time calendar notification pushed to dashboard
// clients of one tenant.
type Message struct {
	Event    string `json:"event"`
	TenantID int64  `json:"tenant_id"`
	Payload  any    `json:"payload,omitempty"`
}

// Hub maintains the set of active WebSocket clients and broadcasts
// messages to the clients of the originating tenant only.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every connected client of the tenant.
func (h *Hub) Broadcast(tenantID int64, event string, payload any) {
	data, err := json.Marshal(Message{Event: event, TenantID: tenantID, Payload: payload})
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.tenantID != tenantID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
