package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// MessageStore is the persistence contract for conversation history. The
// log is append-only: messages are never edited once written.
type MessageStore interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	AppendMessage(ctx context.Context, msg StoredMessage) (int64, error)
	MessagesForUser(ctx context.Context, userID int64) ([]StoredMessage, error)
	Close() error
}

// SQLiteStore implements MessageStore on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	tool_calls TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, id);
`

// OpenStore opens (and if needed initializes) the database at path.
func OpenStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// FindUserByEmail looks up a user by their email address. Users are created
// out of band; ErrUserNotFound is returned for unknown addresses.
func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	row := s.db.QueryRowContext(ctx, `SELECT id, email, name FROM users WHERE email = ?`, email)
	if err := row.Scan(&user.ID, &user.Email, &user.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// AppendMessage persists one message and returns its assigned id.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg StoredMessage) (int64, error) {
	var toolCalls any
	if msg.ToolCalls != nil {
		encoded, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return 0, fmt.Errorf("encode tool calls: %w", err)
		}
		toolCalls = string(encoded)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (user_id, role, content, tool_calls, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.UserID, msg.Role, msg.Content, toolCalls, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("append message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append message: %w", err)
	}
	return id, nil
}

// MessagesForUser returns every message for the user in insertion order.
func (s *SQLiteStore) MessagesForUser(ctx context.Context, userID int64) ([]StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, role, content, tool_calls FROM messages WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var msgs []StoredMessage
	for rows.Next() {
		var msg StoredMessage
		var toolCalls sql.NullString
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &toolCalls); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if toolCalls.Valid && toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
				return nil, &ReconstructionError{MessageID: msg.ID, Err: err}
			}
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return msgs, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
