package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/altbridge/chatd/internal/config"
	"github.com/altbridge/chatd/internal/hub"
)

func newTestServer() (*Server, *hub.Hub) {
	h := hub.NewHub()
	cfg := &config.Config{
		WSReadTimeout:    time.Minute,
		WSWriteTimeout:   10 * time.Second,
		WSPingInterval:   30 * time.Second,
		WSMaxMessageSize: 4096,
	}
	return NewServer(cfg, h), h
}

func readAck(t *testing.T, conn *hub.Connection) ackMessage {
	t.Helper()
	select {
	case data := <-conn.Send:
		var ack ackMessage
		if err := json.Unmarshal(data, &ack); err != nil {
			t.Fatalf("ack not JSON: %v", err)
		}
		return ack
	case <-time.After(time.Second):
		t.Fatalf("no ack received")
		return ackMessage{}
	}
}

func TestSubscribeJoinsRoom(t *testing.T) {
	s, h := newTestServer()
	conn := h.NewConnection(nil)

	s.handleMessage(conn, []byte(`{"type":"subscribe","target_kind":"session","target_id":"sess_1"}`))

	ack := readAck(t, conn)
	if ack.Type != "subscribed" || ack.Target != "session:sess_1" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if h.MemberCount(hub.SessionTarget("sess_1")) != 1 {
		t.Fatalf("connection not joined")
	}
}

func TestUnsubscribeLeavesRoom(t *testing.T) {
	s, h := newTestServer()
	conn := h.NewConnection(nil)
	h.Join(conn, hub.UserTarget("user_1"))

	s.handleMessage(conn, []byte(`{"type":"unsubscribe","target_kind":"user","target_id":"user_1"}`))

	ack := readAck(t, conn)
	if ack.Type != "unsubscribed" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if h.MemberCount(hub.UserTarget("user_1")) != 0 {
		t.Fatalf("connection still joined")
	}
}

func TestHandleMessageRejectsBadFrames(t *testing.T) {
	s, h := newTestServer()
	conn := h.NewConnection(nil)

	cases := []string{
		`not json`,
		`{"type":"subscribe","target_kind":"room","target_id":"x"}`,
		`{"type":"subscribe","target_kind":"session"}`,
		`{"type":"ping","target_kind":"session","target_id":"x"}`,
	}
	for _, raw := range cases {
		s.handleMessage(conn, []byte(raw))
		ack := readAck(t, conn)
		if ack.Type != "error" || ack.Error == "" {
			t.Fatalf("frame %q: expected error ack, got %+v", raw, ack)
		}
	}
	if h.RoomCount() != 0 {
		t.Fatalf("bad frames must not create rooms")
	}
}
