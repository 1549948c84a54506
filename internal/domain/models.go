// Package domain defines the core domain models for the chat backend.
package domain

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Session represents a conversation owned by a single user.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	Category  string    `json:"category,omitempty"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
}

// Message represents a persisted chat message. Every AI message belongs to
// exactly one session and follows the user message that triggered it; the
// pairing is recoverable from session id and creation order alone.
type Message struct {
	MessageID string     `json:"message_id"`
	SessionID string     `json:"session_id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Reaction  string     `json:"reaction,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// SessionUpdate carries the mutable session fields. Nil fields are left
// unchanged.
type SessionUpdate struct {
	Title    *string `json:"title,omitempty"`
	Category *string `json:"category,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
}
