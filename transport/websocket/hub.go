package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/unblock/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Event names carried in Message.Event
const (
	EventConnected   = "connected"
	EventStateUpdate = "state_update"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	SessionID string            `json:"session_id"`
	ClientID  string            `json:"client_id,omitempty"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Hub maintains the set of active clients per session and broadcasts
// messages to them.
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	// Queued events for Run to deliver
	broadcast chan *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		sessions:  make(map[string]map[*Client]bool),
		broadcast: make(chan *Message, 256),
	}
}

// Run delivers queued events until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case message := <-h.broadcast:
			h.broadcastMessage(message)
		case <-ctx.Done():
			return
		}
	}
}

// ServeWS upgrades the request and attaches the connection to a session
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		id:        uuid.New().String(),
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	h.attach(client)

	go client.writePump()
	go client.readPump()
}

// BroadcastToSession sends a game state update to all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, state *engine.GameState) {
	h.broadcastMessage(&Message{
		SessionID: sessionID,
		GameState: state,
		Event:     EventStateUpdate,
	})
}

// BroadcastEvent queues a custom event for all clients in a session. Events
// are dropped when the queue is full.
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	message := &Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	}

	select {
	case h.broadcast <- message:
	default:
		log.WithFields(log.Fields{"session": sessionID, "event": event}).Warn("broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of clients attached to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// attach queues the connected message on a new client and then registers
// it. Once registered, broadcasts may close client.send at any time.
func (h *Hub) attach(client *Client) {
	if data, err := json.Marshal(&Message{SessionID: client.sessionID, ClientID: client.id, Event: EventConnected}); err == nil {
		client.send <- data
	}
	h.registerClient(client)
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	log.WithFields(log.Fields{
		"session": client.sessionID,
		"client":  client.id,
		"clients": len(h.sessions[client.sessionID]),
	}).Debug("websocket client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClient(client)
}

// removeClient closes a client's send channel once. Callers hold h.mu.
func (h *Hub) removeClient(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	// Clean up empty sessions
	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	log.WithFields(log.Fields{
		"session": client.sessionID,
		"client":  client.id,
		"clients": len(clients),
	}).Debug("websocket client unregistered")
}

// broadcastMessage sends a message to all clients in a session. Clients whose
// send buffer is full are dropped.
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.WithError(err).Error("failed to marshal websocket message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.sessions[message.SessionID] {
		select {
		case client.send <- data:
		default:
			h.removeClient(client)
		}
	}
}

// readPump keeps the connection alive and detects disconnects. Incoming
// messages are ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithField("client", c.id).WithError(err).Warn("websocket read error")
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection. Each
// queued message is written as its own frame.
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
				// The hub closed the channel
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
