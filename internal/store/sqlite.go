package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/altbridge/chatd/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			archived INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			reaction TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			edited_at DATETIME,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, title, category, archived, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		session.SessionID, session.UserID, session.Title, session.Category, session.Archived, session.CreatedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "create session", Err: err}
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, user_id, title, category, archived, created_at FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.UserID, &session.Title, &session.Category, &session.Archived, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Kind: "session", ID: sessionID}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get session", Err: err}
	}
	return &session, nil
}

// ListSessions retrieves all sessions owned by a user, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, user_id, title, category, archived, created_at FROM sessions WHERE user_id = ? ORDER BY created_at DESC`,
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
func (s *SQLiteStore) UpdateSession(ctx context.Context, sessionID string, upd domain.SessionUpdate) error {
	sets := []string{}
	args := []interface{}{}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *upd.Category)
	}
	if upd.Archived != nil {
		sets = append(sets, "archived = ?")
		args = append(args, *upd.Archived)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, sessionID)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE sessions SET %s WHERE session_id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return &domain.PersistenceError{Op: "update session", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Kind: "session", ID: sessionID}
	}
	return nil
}

// CreateMessage creates a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, message *domain.Message) error {
	var reaction sql.NullString
	if message.Reaction != "" {
		reaction = sql.NullString{String: message.Reaction, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, reaction, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		message.MessageID, message.SessionID, message.Role, message.Content, reaction, message.CreatedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "create message", Err: err}
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	var reaction sql.NullString
	var editedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT message_id, session_id, role, content, reaction, created_at, edited_at FROM messages WHERE message_id = ?`,
		messageID).Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &msg.Content, &reaction, &msg.CreatedAt, &editedAt)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get message", Err: err}
	}
	if reaction.Valid {
		msg.Reaction = reaction.String
	}
	if editedAt.Valid {
		msg.EditedAt = &editedAt.Time
	}
	return &msg, nil
}

// GetMessages retrieves messages for a session in creation order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, role, content, reaction, created_at, edited_at FROM messages WHERE session_id = ? ORDER BY created_at ASC, message_id ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get messages", Err: err}
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var reaction sql.NullString
		var editedAt sql.NullTime
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &msg.Content, &reaction, &msg.CreatedAt, &editedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "scan message", Err: err}
		}
		if reaction.Valid {
			msg.Reaction = reaction.String
		}
		if editedAt.Valid {
			msg.EditedAt = &editedAt.Time
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "get messages", Err: err}
	}
	return messages, nil
}

// UpdateMessageContent replaces a message's content and stamps edited_at.
func (s *SQLiteStore) UpdateMessageContent(ctx context.Context, messageID, content string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET content = ?, edited_at = ? WHERE message_id = ?`,
		content, time.Now(), messageID)
	if err != nil {
		return &domain.PersistenceError{Op: "update message", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	return nil
}

// DeleteMessage removes a message.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, messageID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE message_id = ?`, messageID)
	if err != nil {
		return &domain.PersistenceError{Op: "delete message", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	return nil
}

// SetReaction sets a message's reaction, last write wins.
func (s *SQLiteStore) SetReaction(ctx context.Context, messageID, reaction string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET reaction = ? WHERE message_id = ?`, reaction, messageID)
	if err != nil {
		return &domain.PersistenceError{Op: "set reaction", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	return nil
}

// ClearReaction removes a message's reaction.
func (s *SQLiteStore) ClearReaction(ctx context.Context, messageID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET reaction = NULL WHERE message_id = ?`, messageID)
	if err != nil {
		return &domain.PersistenceError{Op: "clear reaction", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Kind: "message", ID: messageID}
	}
	return nil
}

// Ensure SQLiteStore implements Store at compile time.
var _ Store = (*SQLiteStore)(nil)
