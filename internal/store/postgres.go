package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altbridge/chatd/internal/domain"
)

// PGStore implements Store using PostgreSQL via pgx.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore connects a pool and ensures the schema exists.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	db, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("chatd: connect postgres: %w", err)
	}
	s := &PGStore{db: db}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGStore) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			archived BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(session_id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			reaction TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			edited_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("chatd: create schema: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *PGStore) Close() error {
	s.db.Close()
	return nil
}

// CreateSession creates a new session.
func (s *PGStore) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO sessions (session_id, user_id, title, category, archived, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		session.SessionID, session.UserID, session.Title, session.Category, session.Archived, session.CreatedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "create session", Err: err}
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *PGStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRow(ctx,
		`SELECT session_id, user_id, title, category, archived, created_at FROM sessions WHERE session_id = $1`,
		sessionID).Scan(&session.SessionID, &session.UserID, &session.Title, &session.Category, &session.Archived, &session.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "session", ID: sessionID}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get session", Err: err}
	}
	return &session, nil
}

// ListSessions retrieves all sessions owned by a user, newest first.
func (s *PGStore) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := s.db.Query(ctx,
		`SELECT session_id, user_id, title, category, archived, created_at FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list sessions", Err: err}
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(&session.SessionID, &session.UserID, &session.Title, &session.Category, &session.Archived, &session.CreatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "scan session", Err: err}
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "list sessions", Err: err}
	}
	return sessions, nil
}

// UpdateSession applies the non-nil fields of upd to a session.
func (s *PGStore) UpdateSession(ctx context.Context, sessionID string, upd domain.SessionUpdate) error {
	sets := []string{}
	args := []interface{}{}
	if upd.Title != nil {
		args = append(args, *upd.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if upd.Category != nil {
		args = append(args, *upd.Category)
		sets = append(sets, fmt.Sprintf("category = $%d", len(args)))
	}
	if upd.Archived != nil {
		args = append(args, *upd.Archived)
		sets = append(sets, fmt.Sprintf("archived = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, sessionID)

	tag, err := s.db.Exec(ctx,
		fmt.Sprintf("UPDATE sessions SET %s WHERE session_id = $%d", strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return &domain.PersistenceError{Op: "update session", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "session", ID: sessionID}
	}
	return nil
}

// CreateMessage creates a new message.
func (s *PGStore) CreateMessage(ctx context.Context, message *domain.Message) error {
	var reaction *string
	if message.Reaction != "" {
		reaction = &message.Reaction
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, reaction, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		message.MessageID, message.SessionID, message.Role, message.Content, reaction, message.CreatedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "create message", Err: err}
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *PGStore) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	var reaction *string
	err := s.db.QueryRow(ctx,
		`SELECT message_id, session_id, role, content, reaction, created_at, edited_at FROM messages WHERE message_id = $1`,
		messageID).Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &msg.Content, &reaction, &msg.CreatedAt, &msg.EditedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get message", Err: err}
	}
	if reaction != nil {
		msg.Reaction = *reaction
	}
	return &msg, nil
}

// GetMessages retrieves messages for a session in creation order.
func (s *PGStore) GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, role, content, reaction, created_at, edited_at FROM messages WHERE session_id = $1 ORDER BY created_at ASC, message_id ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get messages", Err: err}
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var reaction *string
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &msg.Content, &reaction, &msg.CreatedAt, &msg.EditedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "scan message", Err: err}
		}
		if reaction != nil {
			msg.Reaction = *reaction
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "get messages", Err: err}
	}
	return messages, nil
}

// UpdateMessageContent replaces a message's content and stamps edited_at.
func (s *PGStore) UpdateMessageContent(ctx context.Context, messageID, content string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE messages SET content = $1, edited_at = NOW() WHERE message_id = $2`,
		content, messageID)
	if err != nil {
		return &domain.PersistenceError{Op: "update message", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	return nil
}

// DeleteMessage removes a message.
func (s *PGStore) DeleteMessage(ctx context.Context, messageID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM messages WHERE message_id = $1`, messageID)
	if err != nil {
		return &domain.PersistenceError{Op: "delete message", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	return nil
}

// SetReaction sets a message's reaction, last write wins.
func (s *PGStore) SetReaction(ctx context.Context, messageID, reaction string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE messages SET reaction = $1 WHERE message_id = $2`, reaction, messageID)
	if err != nil {
		return &domain.PersistenceError{Op: "set reaction", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	return nil
}

// ClearReaction removes a message's reaction.
func (s *PGStore) ClearReaction(ctx context.Context, messageID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE messages SET reaction = NULL WHERE message_id = $1`, messageID)
	if err != nil {
		return &domain.PersistenceError{Op: "clear reaction", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	return nil
}

// Open selects a Store implementation from the DSN. Postgres URLs use pgx,
// anything else is treated as a SQLite DSN.
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return NewPGStore(ctx, dsn)
	}
	return NewSQLiteStore(dsn)
}

// Ensure PGStore implements Store at compile time.
var _ Store = (*PGStore)(nil)
