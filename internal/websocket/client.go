package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. A 4000-char body plus a page
	// of attachment metadata fits well under this.
	maxMessageSize = 32 * 1024
)

// EventSink receives the decoded client events. The gateway implements it;
// payloads stay raw so the sink owns their schemas.
type EventSink interface {
	SendMessage(senderID uint, data json.RawMessage)
	MarkRead(readerID uint, data json.RawMessage)
	Disconnected(userID uint)
}

// Client represents one WebSocket connection belonging to an
// authenticated user
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
	events EventSink
	logger *slog.Logger
}

// NewClient creates a new Client instance
func NewClient(hub *Hub, conn *websocket.Conn, userID uint, events EventSink, logger *slog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		events: events,
		logger: logger,
	}
}

// UserID returns the authenticated owner of this connection
func (c *Client) UserID() uint {
	return c.userID
}

// ReadPump pumps messages from the WebSocket connection into the event sink
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		if c.events != nil {
			c.events.Disconnected(c.userID)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				if c.logger != nil {
					c.logger.Error("websocket read error", slog.Any("error", err))
				}
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one inbound frame and routes it. Malformed frames
// and unknown event types get an error event back; domain-level failures
// inside a known event are the sink's business and stay off the wire.
func (c *Client) handleMessage(data []byte) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch event.Type {
	case EventSendMessage:
		if c.events != nil {
			c.events.SendMessage(c.userID, event.Data)
		}

	case EventMarkRead:
		if c.events != nil {
			c.events.MarkRead(c.userID, event.Data)
		}

	default:
		c.sendError("unknown event type")
	}
}

// sendError sends an error event to the client
func (c *Client) sendError(errMsg string) {
	data, err := json.Marshal(Event{Type: EventError, Error: errMsg})
	if err != nil {
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer full, skip
	}
}
