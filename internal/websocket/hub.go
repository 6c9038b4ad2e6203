// Package websocket implements the realtime chat gateway: a hub of
// per-user connection groups, the per-connection read/write pumps, and
// the event protocol spoken over the socket.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// EventType identifies a frame on the chat socket
type EventType string

const (
	// Client → server
	EventSendMessage EventType = "send-message"
	EventMarkRead    EventType = "mark-read"

	// Server → client
	EventMessageNew  EventType = "message:new"
	EventMessageRead EventType = "message:read"
	EventPresence    EventType = "presence"
	EventError       EventType = "error"
)

// Event is the JSON envelope carried in both directions. Data stays raw on
// the inbound path so each event type can decode its own payload.
type Event struct {
	Type  EventType       `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Hub maintains per-user groups of active connections. A user with two
// tabs open has two clients in the same group; anything addressed to the
// user reaches both.
type Hub struct {
	// userID -> set of that user's live connections
	users map[uint]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Deliveries addressed to one user's group
	deliver chan *delivery

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger
}

type delivery struct {
	userID  uint
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		users:      make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *delivery, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.users[client.userID] == nil {
				h.users[client.userID] = make(map[*Client]bool)
			}
			h.users[client.userID][client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered", slog.Uint64("user_id", uint64(client.userID)))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if group, ok := h.users[client.userID]; ok {
				if _, ok := group[client]; ok {
					delete(group, client)
					close(client.send)
					if len(group) == 0 {
						delete(h.users, client.userID)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered", slog.Uint64("user_id", uint64(client.userID)))
			}

		case d := <-h.deliver:
			h.mu.RLock()
			for client := range h.users[d.userID] {
				select {
				case client.send <- d.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to its user's group
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from its user's group
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser delivers an event to every live connection of one user.
// Unknown users and full client buffers drop silently.
func (h *Hub) SendToUser(userID uint, eventType EventType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal event payload",
				slog.String("event", string(eventType)),
				slog.Any("error", err))
		}
		return
	}

	frame, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal event", slog.Any("error", err))
		}
		return
	}

	h.deliver <- &delivery{userID: userID, message: frame}
}

// ConnectionCount reports the number of live connections for a user
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
