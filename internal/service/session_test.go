package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/altbridge/chatd/internal/domain"
	"github.com/altbridge/chatd/internal/provider"
)

func TestCreateSessionRequiresUser(t *testing.T) {
	svc, _ := newTestService(t, provider.NewMock())
	var ve *domain.ValidationError
	if _, err := svc.CreateSession(context.Background(), CreateSessionRequest{Title: "x"}); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateSessionAssignsID(t *testing.T) {
	svc, _ := newTestService(t, provider.NewMock())
	session := createTestSession(t, svc)
	if !strings.HasPrefix(session.SessionID, "sess_") {
		t.Fatalf("unexpected session id: %q", session.SessionID)
	}
	if session.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}
}

func TestListSessionsRequiresUser(t *testing.T) {
	svc, _ := newTestService(t, provider.NewMock())
	var ve *domain.ValidationError
	if _, err := svc.ListSessions(context.Background(), ""); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateSessionReturnsFreshState(t *testing.T) {
	svc, _ := newTestService(t, provider.NewMock())
	session := createTestSession(t, svc)

	archived := true
	updated, err := svc.UpdateSession(context.Background(), session.SessionID, domain.SessionUpdate{Archived: &archived})
	if err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if !updated.Archived {
		t.Fatalf("archive flag not applied")
	}
}

func TestGetMessagesUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, provider.NewMock())
	var nf *domain.NotFoundError
	if _, err := svc.GetMessages(context.Background(), "sess_missing"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateMessageValidation(t *testing.T) {
	svc, _ := newTestService(t, provider.NewMock())
	var ve *domain.ValidationError
	if _, err := svc.UpdateMessage(context.Background(), "msg_1", ""); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty content, got %v", err)
	}
}

func TestSetReactionValidation(t *testing.T) {
	svc, _ := newTestService(t, provider.NewMock())
	var ve *domain.ValidationError
	if err := svc.SetReaction(context.Background(), "msg_1", ""); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty reaction, got %v", err)
	}
	if err := svc.SetReaction(context.Background(), "msg_1", "way too long for an emoji"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for oversized reaction, got %v", err)
	}
}
