// Package sse encodes protocol events into server-sent event frames.
package sse

import (
	"encoding/json"
	"fmt"

	"github.com/altbridge/chatd/internal/domain"
)

// Encode serializes a protocol event into one wire frame. Delta frames
// carry no event name line; all other variants are named events. Encoding
// is total and side-effect free: a payload that cannot be marshalled
// yields an EncodingError and no partial frame.
func Encode(event domain.ProtocolEvent) ([]byte, error) {
	payload, err := payloadOf(event)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.EncodingError{Err: err}
	}

	if event.Name == domain.EventDelta {
		return []byte(fmt.Sprintf("data: %s\n\n", data)), nil
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Name, data)), nil
}

func payloadOf(event domain.ProtocolEvent) (interface{}, error) {
	switch event.Name {
	case domain.EventIDs:
		if event.IDs != nil {
			return event.IDs, nil
		}
	case domain.EventDelta:
		if event.Delta != nil {
			return event.Delta, nil
		}
	case domain.EventAIMessageID:
		if event.AIMessageID != nil {
			return event.AIMessageID, nil
		}
	case domain.EventEnd:
		if event.End != nil {
			return event.End, nil
		}
	case domain.EventError:
		if event.Err != nil {
			return event.Err, nil
		}
	default:
		return nil, &domain.EncodingError{Err: fmt.Errorf("unknown event name %q", event.Name)}
	}
	return nil, &domain.EncodingError{Err: fmt.Errorf("event %s has no payload", event.Name)}
}
