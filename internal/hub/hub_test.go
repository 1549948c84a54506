package hub

import (
	"encoding/json"
	"testing"
)

func TestPublishDeliversToMembers(t *testing.T) {
	h := NewHub()
	conn1 := h.NewConnection(nil)
	conn2 := h.NewConnection(nil)
	h.Join(conn1, SessionTarget("sess_1"))
	h.Join(conn2, SessionTarget("sess_1"))

	delivered, err := h.Publish(SessionTarget("sess_1"), "message_completed", map[string]string{"ai_message_id": "msg_1"})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if delivered != 2 {
		t.Fatalf("expected 2 deliveries, got %d", delivered)
	}

	data := <-conn1.Send
	var env struct {
		Event   string          `json:"event"`
		Target  string          `json:"target"`
		Ts      int64           `json:"ts"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("envelope is not JSON: %v", err)
	}
	if env.Event != "message_completed" || env.Target != "session:sess_1" || env.Ts == 0 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestPublishToEmptyRoom(t *testing.T) {
	h := NewHub()
	delivered, err := h.Publish(UserTarget("user_1"), "noop", nil)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("expected 0 deliveries, got %d", delivered)
	}
}

func TestNamespacesAreDisjoint(t *testing.T) {
	h := NewHub()
	conn := h.NewConnection(nil)
	h.Join(conn, SessionTarget("abc"))

	delivered, err := h.Publish(UserTarget("abc"), "event", nil)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("user:abc must not reach session:abc members, delivered %d", delivered)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	h := NewHub()
	conn := h.NewConnection(nil)
	h.Join(conn, SessionTarget("sess_1"))
	h.Join(conn, SessionTarget("sess_1"))

	if got := h.MemberCount(SessionTarget("sess_1")); got != 1 {
		t.Fatalf("expected 1 member, got %d", got)
	}
	delivered, _ := h.Publish(SessionTarget("sess_1"), "event", nil)
	if delivered != 1 {
		t.Fatalf("double join must not double deliver, got %d", delivered)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	h := NewHub()
	conn := h.NewConnection(nil)
	h.Join(conn, SessionTarget("sess_1"))
	h.Leave(conn, SessionTarget("sess_1"))
	h.Leave(conn, SessionTarget("sess_1"))

	if got := h.MemberCount(SessionTarget("sess_1")); got != 0 {
		t.Fatalf("expected 0 members, got %d", got)
	}
	if got := h.RoomCount(); got != 0 {
		t.Fatalf("empty rooms must be dropped, got %d", got)
	}
}

func TestUnregisterRemovesFromAllRooms(t *testing.T) {
	h := NewHub()
	conn := h.NewConnection(nil)
	h.Join(conn, SessionTarget("sess_1"))
	h.Join(conn, UserTarget("user_1"))

	h.Unregister(conn)
	if h.ConnectionCount() != 0 {
		t.Fatalf("connection still registered")
	}
	if h.MemberCount(SessionTarget("sess_1")) != 0 || h.MemberCount(UserTarget("user_1")) != 0 {
		t.Fatalf("unregister must leave every room")
	}

	// Second unregister must not panic on the closed channel.
	h.Unregister(conn)
}

func TestJoinAfterUnregisterIsNoop(t *testing.T) {
	h := NewHub()
	conn := h.NewConnection(nil)
	h.Unregister(conn)
	h.Join(conn, SessionTarget("sess_1"))

	if got := h.MemberCount(SessionTarget("sess_1")); got != 0 {
		t.Fatalf("dead connection must not join rooms, got %d members", got)
	}
}

func TestPublishPrunesFullBuffers(t *testing.T) {
	h := NewHub()
	conn := h.NewConnection(nil)
	h.Join(conn, SessionTarget("sess_1"))

	for i := 0; i < cap(conn.Send); i++ {
		conn.Send <- []byte("{}")
	}

	delivered, err := h.Publish(SessionTarget("sess_1"), "event", nil)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("full buffer must not count as delivered, got %d", delivered)
	}
	if h.ConnectionCount() != 0 {
		t.Fatalf("stale connection not pruned")
	}
}
