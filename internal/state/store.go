// Package state persists chat sessions, messages and query history for
// QueryChat using SQLite.
package state

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a session or record does not exist.
var ErrNotFound = errors.New("not found")

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one chat tab: its provider/model selection and the data
// source it queries.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn of a conversation. Assistant messages carry the
// generated SQL; either role may carry an error string when the turn
// failed downstream.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	SQL       string    `json:"sql,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryRecord is one executed query: what ran, how it went, and which
// visualization the analysis recommended.
type QueryRecord struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	SQL           string    `json:"sql"`
	RowCount      int       `json:"row_count"`
	DurationMS    int64     `json:"duration_ms"`
	Visualization string    `json:"visualization"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the persistence interface for chat state.
type Store interface {
	// Sessions.
	CreateSession(title, provider, model, source string) (*Session, error)
	GetSession(id string) (*Session, error)
	ListSessions() ([]*Session, error)
	RenameSession(id, title string) error
	TouchSession(id string) error
	DeleteSession(id string) error

	// Messages.
	AppendMessage(sessionID, role, content, sql, errText string) (*Message, error)
	ListMessages(sessionID string) ([]*Message, error)

	// Query history.
	RecordQuery(sessionID, sql string, rowCount int, durationMS int64, visualization string) (*QueryRecord, error)
	ListQueryHistory(sessionID string, limit int) ([]*QueryRecord, error)
	RecentQueries(limit int) ([]*QueryRecord, error)

	Close() error
}
