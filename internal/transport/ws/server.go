// Package ws provides the WebSocket endpoint that feeds hub rooms to
// connected clients.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/altbridge/chatd/internal/config"
	"github.com/altbridge/chatd/internal/hub"
)

// Client message types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
)

// clientMessage is the only inbound frame shape. Target is the room in
// "session:{id}" or "user:{id}" form, split into kind and id fields.
type clientMessage struct {
	Type       string `json:"type"`
	TargetKind string `json:"target_kind"`
	TargetID   string `json:"target_id"`
}

type ackMessage struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	Ts     int64  `json:"ts"`
	Error  string `json:"error,omitempty"`
}

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub) *Server {
	return &Server{
		cfg: cfg,
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", s.HandleWebSocket)
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
// Optional session_id and user_id query params pre-join those rooms.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	ws.SetReadLimit(s.cfg.WSMaxMessageSize)

	if sessionID := c.QueryParam("session_id"); sessionID != "" {
		s.hub.Join(conn, hub.SessionTarget(sessionID))
	}
	if userID := c.QueryParam("user_id"); userID != "" {
		s.hub.Join(conn, hub.UserTarget(userID))
	}

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads subscribe/unsubscribe frames from the connection.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.handleMessage(conn, message)
	}
}

// writePump drains the connection's send channel and keeps the socket
// alive with pings.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.WSPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an inbound frame and acks the change.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendAck(conn, ackMessage{Type: "error", Error: "invalid JSON message"})
		return
	}

	target, ok := parseTarget(msg.TargetKind, msg.TargetID)
	if !ok {
		s.sendAck(conn, ackMessage{Type: "error", Error: "target_kind must be session or user"})
		return
	}

	switch msg.Type {
	case TypeSubscribe:
		s.hub.Join(conn, target)
		s.sendAck(conn, ackMessage{Type: "subscribed", Target: target.String()})
	case TypeUnsubscribe:
		s.hub.Leave(conn, target)
		s.sendAck(conn, ackMessage{Type: "unsubscribed", Target: target.String()})
	default:
		s.sendAck(conn, ackMessage{Type: "error", Error: "unknown message type: " + msg.Type})
	}
}

func parseTarget(kind, id string) (hub.Target, bool) {
	if id == "" {
		return hub.Target{}, false
	}
	switch kind {
	case string(hub.KindSession):
		return hub.SessionTarget(id), true
	case string(hub.KindUser):
		return hub.UserTarget(id), true
	}
	return hub.Target{}, false
}

// sendAck pushes a control frame through the send channel so it never
// interleaves with a hub publish.
func (s *Server) sendAck(conn *hub.Connection, ack ackMessage) {
	ack.Ts = time.Now().UnixMilli()
	data, err := json.Marshal(ack)
	if err != nil {
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Printf("WARN: dropping ack for connection %s, send buffer full", conn.ID)
	}
}
