// Package store persists conversations and their messages in SQLite, so a
// restart reconstructs exactly the history each conversation's model saw.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Roles a message can carry.
const (
	RoleUser   = "user"
	RoleAgent  = "agent"
	RoleSystem = "system"
)

// Conversation is one chat thread bound to a model.
type Conversation struct {
	ID        string
	Title     string
	Model     string
	CreatedAt string
	UpdatedAt string
}

// Message is one entry in a conversation. Image fields are set only for
// user messages with an attachment.
type Message struct {
	ID        int64
	Role      string
	Text      string
	ImageMIME string
	ImageData []byte
	CreatedAt string
}

// Store is the conversation database.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and runs migrations.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			model      TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			role            TEXT NOT NULL,
			text            TEXT NOT NULL,
			image_mime      TEXT,
			image_data      BLOB,
			created_at      TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, id);
		CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateConversation inserts a new conversation.
func (s *Store) CreateConversation(id, title, model string) error {
	_, err := s.db.Exec(
		`INSERT INTO conversations (id, title, model) VALUES (?, ?, ?)`,
		id, title, model)
	if err != nil {
		return fmt.Errorf("store: create conversation: %w", err)
	}
	return nil
}

// GetConversation returns one conversation by id.
func (s *Store) GetConversation(id string) (*Conversation, error) {
	row := s.db.QueryRow(
		`SELECT id, title, model, created_at, updated_at FROM conversations WHERE id = ?`, id)
	var c Conversation
	if err := row.Scan(&c.ID, &c.Title, &c.Model, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("store: conversation %s not found", id)
		}
		return nil, fmt.Errorf("store: get conversation: %w", err)
	}
	return &c, nil
}

// ListConversations returns all conversations, most recently updated first.
func (s *Store) ListConversations() ([]Conversation, error) {
	rows, err := s.db.Query(
		`SELECT id, title, model, created_at, updated_at FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.Model, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RenameConversation updates a conversation's title.
func (s *Store) RenameConversation(id, title string) error {
	_, err := s.db.Exec(
		`UPDATE conversations SET title = ?, updated_at = datetime('now') WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("store: rename conversation: %w", err)
	}
	return nil
}

// SetModel updates a conversation's model binding.
func (s *Store) SetModel(id, model string) error {
	_, err := s.db.Exec(
		`UPDATE conversations SET model = ?, updated_at = datetime('now') WHERE id = ?`, model, id)
	if err != nil {
		return fmt.Errorf("store: set model: %w", err)
	}
	return nil
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(id string) error {
	_, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete conversation: %w", err)
	}
	return nil
}

// AppendMessage adds a message to a conversation and bumps its
// updated_at.
func (s *Store) AppendMessage(conversationID string, msg Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	defer tx.Rollback()

	var mime any
	var data any
	if msg.ImageMIME != "" {
		mime = msg.ImageMIME
		data = msg.ImageData
	}
	if _, err := tx.Exec(
		`INSERT INTO messages (conversation_id, role, text, image_mime, image_data) VALUES (?, ?, ?, ?, ?)`,
		conversationID, msg.Role, msg.Text, mime, data); err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE conversations SET updated_at = datetime('now') WHERE id = ?`, conversationID); err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	return tx.Commit()
}

// Messages returns a conversation's messages in append order.
func (s *Store) Messages(conversationID string) ([]Message, error) {
	rows, err := s.db.Query(
		`SELECT id, role, text, COALESCE(image_mime, ''), image_data, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("store: messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Text, &m.ImageMIME, &m.ImageData, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
