// Package history provides SQLite-backed conversation persistence for
// the chat CLI. One conversation owns an ordered message sequence;
// messages are appended, never rewritten.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mshnjffr/azure-openai/internal/azure"
)

// Store is a SQLite-backed conversation store.
type Store struct {
	db *sql.DB
}

// Conversation is a stored conversation header.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open creates or opens the store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		tool_calls TEXT,
		tool_call_id TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages(conversation_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateConversation starts a new conversation and returns its ID.
func (s *Store) CreateConversation(title string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate conversation id: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id.String(), title, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return id.String(), nil
}

// AddMessage appends a message to a conversation. Tool calls are stored
// as JSON so a replayed conversation preserves tool_call_id linkage.
func (s *Store) AddMessage(conversationID string, msg azure.Message) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate message id: %w", err)
	}

	var toolCallsJSON sql.NullString
	if len(msg.ToolCalls) > 0 {
		data, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("marshal tool calls: %w", err)
		}
		toolCallsJSON = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO messages (id, conversation_id, role, content, tool_calls, tool_call_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), conversationID, msg.Role, msg.Content, toolCallsJSON, nullable(msg.ToolCallID), now,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	_, err = tx.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, conversationID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	return tx.Commit()
}

// Messages returns a conversation's messages in append order.
func (s *Store) Messages(conversationID string) ([]azure.Message, error) {
	rows, err := s.db.Query(
		`SELECT role, content, tool_calls, tool_call_id
		 FROM messages WHERE conversation_id = ? ORDER BY created_at, id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []azure.Message
	for rows.Next() {
		var msg azure.Message
		var toolCallsJSON, toolCallID sql.NullString
		if err := rows.Scan(&msg.Role, &msg.Content, &toolCallsJSON, &toolCallID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if toolCallsJSON.Valid {
			if err := json.Unmarshal([]byte(toolCallsJSON.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("unmarshal tool calls: %w", err)
			}
		}
		msg.ToolCallID = toolCallID.String
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListConversations returns conversation headers, most recent first.
func (s *Store) ListConversations(limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, title, created_at, updated_at
		 FROM conversations ORDER BY updated_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(conversationID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return tx.Commit()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
