// Package store defines the persistence interface and implementations.
package store

import (
	"context"

	"github.com/altbridge/chatd/internal/domain"
)

// Store defines the interface for session and message persistence.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context, userID string) ([]domain.Session, error)
	UpdateSession(ctx context.Context, sessionID string, upd domain.SessionUpdate) error

	// Message operations
	CreateMessage(ctx context.Context, message *domain.Message) error
	GetMessage(ctx context.Context, messageID string) (*domain.Message, error)
	GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	UpdateMessageContent(ctx context.Context, messageID, content string) error
	DeleteMessage(ctx context.Context, messageID string) error
	SetReaction(ctx context.Context, messageID, reaction string) error
	ClearReaction(ctx context.Context, messageID string) error

	// Lifecycle
	Close() error
}
