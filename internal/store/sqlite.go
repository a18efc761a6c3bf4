package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mwarzecha/velofit/backend/internal/model/chat"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and if needed bootstraps) the message log database.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS message (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		form_id TEXT NOT NULL,
		role TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_message_form ON message(form_id, id);
	`

	_, err := s.db.Exec(query)
	return err
}

// CreateMessage appends one validated message to the log.
func (s *SQLiteStore) CreateMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if m.FormID == "" {
		return chat.Message{}, ErrFormRequired
	}
	if _, err := chat.ParseRole(string(m.Role)); err != nil {
		return chat.Message{}, err
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO message (form_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		m.FormID, string(m.Role), m.Text, m.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return chat.Message{}, fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return chat.Message{}, fmt.Errorf("message id: %w", err)
	}

	m.ID = strconv.FormatInt(id, 10)
	return m, nil
}

// SaveTurn writes the user and assistant rows in one transaction so a failed
// turn never leaves a dangling half-pair in the log.
func (s *SQLiteStore) SaveTurn(ctx context.Context, user, assistant chat.Message) error {
	if user.FormID == "" || assistant.FormID == "" {
		return ErrFormRequired
	}
	if _, err := chat.ParseRole(string(user.Role)); err != nil {
		return err
	}
	if _, err := chat.ParseRole(string(assistant.Role)); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin turn transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, m := range []chat.Message{user, assistant} {
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO message (form_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
			m.FormID, string(m.Role), m.Text, createdAt.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert %s turn: %w", m.Role, err)
		}
	}

	return tx.Commit()
}

// ListMessages returns the full log for a form ordered by insertion.
func (s *SQLiteStore) ListMessages(ctx context.Context, formID string) ([]chat.Message, error) {
	if formID == "" {
		return nil, ErrFormRequired
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, form_id, role, text, created_at FROM message WHERE form_id = ? ORDER BY id ASC`,
		formID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var (
			id        int64
			role      string
			createdAt string
			m         chat.Message
		)
		if err := rows.Scan(&id, &m.FormID, &role, &m.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		parsedRole, err := chat.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", id, err)
		}
		m.Role = parsedRole

		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("message %d timestamp: %w", id, err)
		}
		m.CreatedAt = ts

		m.ID = strconv.FormatInt(id, 10)
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// Ping checks database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
