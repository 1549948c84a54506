package domain

// EventName identifies a protocol event variant on the wire.
type EventName string

const (
	EventIDs         EventName = "ids"
	EventDelta       EventName = "delta"
	EventAIMessageID EventName = "ai_message_id"
	EventEnd         EventName = "end"
	EventError       EventName = "error"
)

// ProtocolEvent is the tagged variant streamed to the originating client.
// Exactly one payload field matching Name is set. Per turn the order is:
// zero or one ids event, zero or more delta events, then exactly one
// terminal end or error event.
type ProtocolEvent struct {
	Name        EventName
	IDs         *IDsPayload
	Delta       *DeltaPayload
	AIMessageID *AIMessageIDPayload
	End         *EndPayload
	Err         *ErrorPayload
}

// Terminal reports whether the event closes the turn's event sequence.
func (e ProtocolEvent) Terminal() bool {
	return e.Name == EventEnd || e.Name == EventError
}

// IDsPayload carries the user message id as soon as it is assigned.
type IDsPayload struct {
	UserMessageID string `json:"userMessageId"`
}

// DeltaPayload carries one verbatim chunk of generated text.
type DeltaPayload struct {
	Delta string `json:"delta"`
}

// AIMessageIDPayload carries the persisted AI message id.
type AIMessageIDPayload struct {
	AIMessageID string `json:"aiMessageId"`
}

// EndPayload terminates a successful turn. It repeats the AI message id so
// the terminal frame is self-contained.
type EndPayload struct {
	Done        bool   `json:"done"`
	AIMessageID string `json:"aiMessageId,omitempty"`
}

// ErrorPayload terminates a failed turn.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewIDsEvent builds an ids event.
func NewIDsEvent(userMessageID string) ProtocolEvent {
	return ProtocolEvent{Name: EventIDs, IDs: &IDsPayload{UserMessageID: userMessageID}}
}

// NewDeltaEvent builds a delta event.
func NewDeltaEvent(delta string) ProtocolEvent {
	return ProtocolEvent{Name: EventDelta, Delta: &DeltaPayload{Delta: delta}}
}

// NewAIMessageIDEvent builds an ai_message_id event.
func NewAIMessageIDEvent(aiMessageID string) ProtocolEvent {
	return ProtocolEvent{Name: EventAIMessageID, AIMessageID: &AIMessageIDPayload{AIMessageID: aiMessageID}}
}

// NewEndEvent builds the successful terminal event.
func NewEndEvent(aiMessageID string) ProtocolEvent {
	return ProtocolEvent{Name: EventEnd, End: &EndPayload{Done: true, AIMessageID: aiMessageID}}
}

// NewErrorEvent builds the failing terminal event.
func NewErrorEvent(code, message string) ProtocolEvent {
	return ProtocolEvent{Name: EventError, Err: &ErrorPayload{Code: code, Message: message}}
}
