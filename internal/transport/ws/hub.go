package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"bizplanner/internal/logging"
	"bizplanner/internal/service"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client message types
const (
	MsgUpdateAnswer MessageType = "update_answer"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per wizard session
type Hub struct {
	// Session -> connections (one per open tab)
	conns map[string]map[*Connection]struct{}

	mu  sync.RWMutex
	log *zap.Logger

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	direct     chan *directMessage
	disconnect chan string
	quit       chan struct{}
	stopOnce   sync.Once
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	UserID    string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID string
	Message   *Message
}

type directMessage struct {
	conn *Connection
	data []byte
}

var _ service.Broadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		log:        logging.Component("ws"),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		direct:     make(chan *directMessage, 64),
		disconnect: make(chan string, 16),
		quit:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SessionID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("connection registered", zap.String("session", conn.SessionID), zap.String("user", conn.UserID))

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Error("marshal broadcast", zap.String("session", msg.SessionID), zap.Error(err))
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.SessionID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case msg := <-h.direct:
			h.mu.RLock()
			// Only registered connections still own an open Send channel.
			if _, ok := h.conns[msg.conn.SessionID][msg.conn]; ok {
				select {
				case msg.conn.Send <- msg.data:
				default:
				}
			}
			h.mu.RUnlock()

		case sessionID := <-h.disconnect:
			h.mu.Lock()
			for conn := range h.conns[sessionID] {
				h.remove(conn)
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for _, set := range h.conns {
				for conn := range set {
					h.remove(conn)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// remove closes conn's send channel once. Callers hold h.mu.
func (h *Hub) remove(conn *Connection) {
	set, ok := h.conns[conn.SessionID]
	if !ok {
		return
	}
	if _, ok := set[conn]; !ok {
		return
	}
	delete(set, conn)
	close(conn.Send)
	if len(set) == 0 {
		delete(h.conns, conn.SessionID)
	}
	h.log.Debug("connection closed", zap.String("session", conn.SessionID))
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.quit:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.quit:
	}
}

// BroadcastToSession sends a message to every connection of a session (implements service.Broadcaster)
func (h *Hub) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}:
	case <-h.quit:
	}
}

// SendTo delivers a message to one connection if it is still registered
func (h *Hub) SendTo(conn *Connection, msgType string, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		h.log.Error("marshal direct message", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.direct <- &directMessage{conn: conn, data: data}:
	case <-h.quit:
	}
}

// DisconnectSession closes every connection of a torn-down session (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	select {
	case h.disconnect <- sessionID:
	case <-h.quit:
	}
}

// Count returns the number of open connections for a session
func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}

// Stop closes all connections and ends the run loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// encode builds a single envelope for direct sends outside the run loop
func encode(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: MessageType(msgType), Payload: data})
}
