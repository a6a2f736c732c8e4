// Package live implements the real-time notification bus: an in-process
// pub/sub hub that fans session events out to WebSocket subscribers,
// satisfying sessioncore.Notifier (spec §6 real-time notification section).
package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sharedcontext/server/internal/logger"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = 30 * time.Second
	clientSendBuf = 256
)

// Event is the envelope broadcast to every subscriber of a session.
type Event struct {
	SessionID string                 `json:"session_id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Hub maintains WebSocket subscribers grouped by session and fans out
// published events to the subscribers of that session only.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Client]bool // sessionID -> client set
	register    chan *Client
	unregister  chan *Client
	broadcast   chan Event
}

// Client represents one subscribed WebSocket connection, scoped to a
// single session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	agentID   string
}

// NewHub builds an unstarted Hub; call Run in its own goroutine to start
// dispatching.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan Event, 256),
	}
}

// Run processes registration, unregistration, and broadcast requests.
// Must run in its own goroutine for the lifetime of the server.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.subscribers[client.sessionID] == nil {
				h.subscribers[client.sessionID] = make(map[*Client]bool)
			}
			h.subscribers[client.sessionID][client] = true
			h.mu.Unlock()
			logger.Live().Debug().Str("session_id", client.sessionID).Str("agent_id", client.agentID).Msg("subscriber registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.subscribers[client.sessionID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.send)
					if len(set) == 0 {
						delete(h.subscribers, client.sessionID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Live().Warn().Err(err).Msg("failed to marshal event for broadcast")
				continue
			}

			h.mu.RLock()
			set := h.subscribers[event.SessionID]
			stale := make([]*Client, 0)
			for client := range set {
				select {
				case client.send <- payload:
				default:
					stale = append(stale, client)
				}
			}
			h.mu.RUnlock()

			if len(stale) > 0 {
				h.mu.Lock()
				for _, client := range stale {
					if set := h.subscribers[client.sessionID]; set != nil {
						delete(set, client)
					}
					close(client.send)
				}
				h.mu.Unlock()
			}
		}
	}
}

// Publish implements sessioncore.Notifier: it fans an event out to every
// subscriber of sessionID. Never blocks the caller — the broadcast channel
// is buffered and Run drains it asynchronously.
func (h *Hub) Publish(sessionID string, eventType string, data map[string]interface{}) {
	h.broadcast <- Event{SessionID: sessionID, Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

// SubscriberCount reports how many clients are subscribed to sessionID,
// backing the active_subscribers gauge.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionID])
}

// TotalSubscribers reports the total subscriber count across all sessions.
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, set := range h.subscribers {
		total += len(set)
	}
	return total
}

// Subscribe registers conn as a subscriber of sessionID and blocks, running
// the client's read/write pumps, until the connection closes.
func (h *Hub) Subscribe(conn *websocket.Conn, sessionID, agentID string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, clientSendBuf), sessionID: sessionID, agentID: agentID}
	h.register <- client

	go client.writePump()
	client.readPump()
}

func (c *Client) writePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Live().Debug().Err(err).Str("session_id", c.sessionID).Msg("subscriber connection closed")
			}
			return
		}
		// Inbound client frames carry no protocol meaning; the channel is
		// server-to-client only. Any frame just resets the read deadline.
	}
}
