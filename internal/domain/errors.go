package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable error codes surfaced to clients.
const (
	CodeValidation  = "validation_error"
	CodeNotFound    = "not_found"
	CodeProvider    = "provider_error"
	CodeTimeout     = "provider_timeout"
	CodeEncoding    = "encoding_error"
	CodePersistence = "persistence_error"
)

// ValidationError reports bad or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown session or message.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }

// ProviderError reports an AI backend failure. Retryable marks failures a
// caller may reasonably retry; adapters never retry on their own.
type ProviderError struct {
	Provider  string
	Code      string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// EncodingError reports a payload that could not be serialized.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("encode event: %v", e.Err) }

func (e *EncodingError) Unwrap() error { return e.Err }

// PersistenceError reports a store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrorCode maps an error to its stable wire code.
func ErrorCode(err error) string {
	var (
		ve *ValidationError
		nf *NotFoundError
		pe *ProviderError
		ee *EncodingError
		se *PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return CodeValidation
	case errors.As(err, &nf):
		return CodeNotFound
	case errors.As(err, &pe):
		if pe.Code == CodeTimeout {
			return CodeTimeout
		}
		return CodeProvider
	case errors.As(err, &ee):
		return CodeEncoding
	case errors.As(err, &se):
		return CodePersistence
	default:
		return "internal_error"
	}
}

// HTTPStatus maps an error to the HTTP status returned to the client.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeProvider, CodeTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage returns the error text safe to surface to clients.
// Provider and persistence details stay in the logs.
func ClientMessage(err error) string {
	switch ErrorCode(err) {
	case CodeValidation, CodeNotFound:
		return err.Error()
	case CodeTimeout:
		return "the AI provider did not respond in time"
	case CodeProvider:
		return "the AI provider failed to generate a response"
	case CodePersistence:
		return "the message store is unavailable"
	default:
		return "internal error"
	}
}
