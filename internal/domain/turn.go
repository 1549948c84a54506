package domain

import "fmt"

// TurnState represents the lifecycle state of an in-flight turn.
type TurnState string

const (
	TurnStateReceived      TurnState = "received"
	TurnStateUserPersisted TurnState = "user_persisted"
	TurnStateGenerating    TurnState = "generating"
	TurnStateStreaming     TurnState = "streaming"
	TurnStateAIPersisted   TurnState = "ai_persisted"
	TurnStateCompleted     TurnState = "completed"
	TurnStateFailed        TurnState = "failed"
)

// turnTransitions lists the legal state transitions. Terminal states have
// no outgoing edges.
var turnTransitions = map[TurnState][]TurnState{
	TurnStateReceived:      {TurnStateUserPersisted, TurnStateFailed},
	TurnStateUserPersisted: {TurnStateGenerating, TurnStateFailed},
	TurnStateGenerating:    {TurnStateStreaming, TurnStateAIPersisted, TurnStateFailed},
	TurnStateStreaming:     {TurnStateAIPersisted, TurnStateFailed},
	TurnStateAIPersisted:   {TurnStateCompleted, TurnStateFailed},
}

// Terminal reports whether the state admits no further transitions.
func (s TurnState) Terminal() bool {
	return s == TurnStateCompleted || s == TurnStateFailed
}

// Turn is the ephemeral record of one request/response cycle. It is owned
// by the coordinator for the duration of the request and never persisted.
type Turn struct {
	TurnID        string
	SessionID     string
	UserID        string
	Provider      string
	Model         string
	UserMessageID string
	AIMessageID   string

	state  TurnState
	buffer []byte
}

// NewTurn creates a turn in the received state.
func NewTurn(turnID, sessionID, userID string) *Turn {
	return &Turn{
		TurnID:    turnID,
		SessionID: sessionID,
		UserID:    userID,
		state:     TurnStateReceived,
	}
}

// State returns the current lifecycle state.
func (t *Turn) State() TurnState { return t.state }

// Transition moves the turn to next, failing on illegal edges.
func (t *Turn) Transition(next TurnState) error {
	for _, allowed := range turnTransitions[t.state] {
		if allowed == next {
			t.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal turn transition %s -> %s", t.state, next)
}

// Accumulate appends a delta chunk to the turn buffer.
func (t *Turn) Accumulate(delta string) {
	t.buffer = append(t.buffer, delta...)
}

// Buffer returns the accumulated AI content so far.
func (t *Turn) Buffer() string { return string(t.buffer) }
