package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/altbridge/chatd/internal/domain"
)

// CreateSessionRequest carries the session creation fields.
type CreateSessionRequest struct {
	UserID   string `json:"user_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// CreateSession creates a new session for a user.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.Session, error) {
	if req.UserID == "" {
		return nil, domain.NewValidationError("user_id is required")
	}
	session := &domain.Session{
		SessionID: "sess_" + uuid.New().String()[:8],
		UserID:    req.UserID,
		Title:     req.Title,
		Category:  req.Category,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.store.GetSession(ctx, sessionID)
}

// ListSessions retrieves a user's sessions.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	if userID == "" {
		return nil, domain.NewValidationError("user_id is required")
	}
	return s.store.ListSessions(ctx, userID)
}

// UpdateSession applies title/category/archived changes.
func (s *Service) UpdateSession(ctx context.Context, sessionID string, upd domain.SessionUpdate) (*domain.Session, error) {
	if err := s.store.UpdateSession(ctx, sessionID, upd); err != nil {
		return nil, err
	}
	return s.store.GetSession(ctx, sessionID)
}

// GetMessages returns a session's persisted messages in creation order.
func (s *Service) GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.GetMessages(ctx, sessionID, 0)
}
