package service

import (
	"context"
	"unicode/utf8"

	"github.com/altbridge/chatd/internal/domain"
)

// UpdateMessage replaces a message's content.
func (s *Service) UpdateMessage(ctx context.Context, messageID, content string) (*domain.Message, error) {
	if content == "" {
		return nil, domain.NewValidationError("message content is required")
	}
	if err := s.store.UpdateMessageContent(ctx, messageID, content); err != nil {
		return nil, err
	}
	return s.store.GetMessage(ctx, messageID)
}

// DeleteMessage removes a message.
func (s *Service) DeleteMessage(ctx context.Context, messageID string) error {
	return s.store.DeleteMessage(ctx, messageID)
}

// SetReaction sets a message's reaction token, last write wins.
func (s *Service) SetReaction(ctx context.Context, messageID, reaction string) error {
	if reaction == "" {
		return domain.NewValidationError("reaction is required")
	}
	if utf8.RuneCountInString(reaction) > 8 {
		return domain.NewValidationError("reaction must be a single emoji-like token")
	}
	return s.store.SetReaction(ctx, messageID, reaction)
}

// ClearReaction removes a message's reaction.
func (s *Service) ClearReaction(ctx context.Context, messageID string) error {
	return s.store.ClearReaction(ctx, messageID)
}
