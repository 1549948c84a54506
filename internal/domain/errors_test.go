package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{NewValidationError("bad input"), CodeValidation},
		{&NotFoundError{Kind: "session", ID: "sess_x"}, CodeNotFound},
		{&ProviderError{Provider: "openai", Code: "rate_limited", Err: errors.New("429")}, CodeProvider},
		{&ProviderError{Provider: "openai", Code: CodeTimeout, Err: errors.New("deadline")}, CodeTimeout},
		{&EncodingError{Err: errors.New("bad json")}, CodeEncoding},
		{&PersistenceError{Op: "create message", Err: errors.New("disk full")}, CodePersistence},
		{errors.New("something else"), "internal_error"},
	}
	for _, tc := range cases {
		if got := ErrorCode(tc.err); got != tc.code {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.code)
		}
	}
}

func TestErrorCodeUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("turn failed: %w", &NotFoundError{Kind: "message", ID: "msg_x"})
	if got := ErrorCode(wrapped); got != CodeNotFound {
		t.Fatalf("expected %s, got %s", CodeNotFound, got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{&NotFoundError{Kind: "session", ID: "x"}, http.StatusNotFound},
		{&ProviderError{Provider: "mock", Code: "upstream", Err: errors.New("boom")}, http.StatusBadGateway},
		{&ProviderError{Provider: "mock", Code: CodeTimeout, Err: errors.New("slow")}, http.StatusBadGateway},
		{&PersistenceError{Op: "get", Err: errors.New("locked")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.status {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
}

func TestClientMessageHidesInternals(t *testing.T) {
	pe := &ProviderError{Provider: "openai", Code: "upstream", Err: errors.New("secret key sk-123 rejected")}
	if msg := ClientMessage(pe); msg != "the AI provider failed to generate a response" {
		t.Fatalf("provider details leaked: %q", msg)
	}

	se := &PersistenceError{Op: "create", Err: errors.New("/var/db path")}
	if msg := ClientMessage(se); msg != "the message store is unavailable" {
		t.Fatalf("store details leaked: %q", msg)
	}

	ve := NewValidationError("user_id is required")
	if msg := ClientMessage(ve); msg != "user_id is required" {
		t.Fatalf("validation text should pass through, got %q", msg)
	}
}
