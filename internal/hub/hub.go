// Package hub provides fan-out of named events to live client channels,
// keyed by session and by user.
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/altbridge/chatd/internal/domain"
)

// TargetKind selects the channel namespace.
type TargetKind string

const (
	KindSession TargetKind = "session"
	KindUser    TargetKind = "user"
)

// Target addresses one room. The wire form is "session:{id}" or
// "user:{id}".
type Target struct {
	Kind TargetKind
	ID   string
}

func (t Target) String() string { return string(t.Kind) + ":" + t.ID }

// SessionTarget addresses a session room.
func SessionTarget(sessionID string) Target { return Target{Kind: KindSession, ID: sessionID} }

// UserTarget addresses a user room.
func UserTarget(userID string) Target { return Target{Kind: KindUser, ID: userID} }

// Connection represents a single live client channel.
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu sync.Mutex
}

// envelope is the wire shape of a published event.
type envelope struct {
	Event   string      `json:"event"`
	Target  string      `json:"target"`
	Ts      int64       `json:"ts"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub maintains the channel registry. Membership changes are atomic with
// respect to publishes; publishing never blocks on a slow receiver.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	members     map[Target]map[string]bool
	targets     map[string]map[Target]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		members:     make(map[Target]map[string]bool),
		targets:     make(map[string]map[Target]bool),
	}
}

// NewConnection wraps a websocket into a registered connection.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	conn := &Connection{
		ID:   uuid.New().String(),
		Conn: ws,
		Send: make(chan []byte, 256),
	}
	h.mu.Lock()
	h.connections[conn.ID] = conn
	h.targets[conn.ID] = make(map[Target]bool)
	h.mu.Unlock()
	return conn
}

// Join subscribes a connection to a target room. Idempotent.
func (h *Hub) Join(conn *Connection, target Target) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	if h.members[target] == nil {
		h.members[target] = make(map[string]bool)
	}
	h.members[target][conn.ID] = true
	h.targets[conn.ID][target] = true
}

// Leave unsubscribes a connection from a target room. Idempotent.
func (h *Hub) Leave(conn *Connection, target Target) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(conn.ID, target)
}

func (h *Hub) leaveLocked(connID string, target Target) {
	if set := h.members[target]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.members, target)
		}
	}
	if set := h.targets[connID]; set != nil {
		delete(set, target)
	}
}

// Unregister removes a connection from every room and closes its send
// channel. Safe to call more than once.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	for target := range h.targets[conn.ID] {
		h.leaveLocked(conn.ID, target)
	}
	delete(h.targets, conn.ID)
	delete(h.connections, conn.ID)
	close(conn.Send)
}

// Publish fans a named event out to every member of target and returns
// the delivered count. Zero subscribers is not an error. Members whose
// buffers are full are pruned lazily.
func (h *Hub) Publish(target Target, event string, payload interface{}) (int, error) {
	data, err := json.Marshal(envelope{
		Event:   event,
		Target:  target.String(),
		Ts:      time.Now().UnixMilli(),
		Payload: payload,
	})
	if err != nil {
		return 0, &domain.EncodingError{Err: err}
	}

	h.mu.RLock()
	var stale []*Connection
	delivered := 0
	for connID := range h.members[target] {
		conn, ok := h.connections[connID]
		if !ok {
			continue
		}
		select {
		case conn.Send <- data:
			delivered++
		default:
			// Buffer full: the client is dead or hopelessly behind.
			stale = append(stale, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range stale {
		log.Printf("WARN: pruning connection %s, send buffer full", conn.ID)
		h.Unregister(conn)
	}
	return delivered, nil
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// MemberCount returns the number of members in a room.
func (h *Hub) MemberCount(target Target) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members[target])
}

// WriteMessage writes to the underlying socket with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
