package contacts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kindlyrobotics/huddle/internal/models"
)

var ErrInvalidMessage = errors.New("name, email and message are required")

// Store persists contact-form submissions.
type Store interface {
	SaveMessage(ctx context.Context, name, email, message string) (*models.ContactMessage, error)
}

func newMessage(name, email, message string) (*models.ContactMessage, error) {
	if name == "" || email == "" || message == "" {
		return nil, ErrInvalidMessage
	}
	return &models.ContactMessage{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}, nil
}

// SQLStore writes contact messages to Postgres. The contact_messages table is
// created by the migration runner.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) SaveMessage(ctx context.Context, name, email, message string) (*models.ContactMessage, error) {
	msg, err := newMessage(name, email, message)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.Name, msg.Email, msg.Message, msg.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact message: %w", err)
	}
	return msg, nil
}

// FileStore appends contact messages to <dir>/messages.json. Used when no
// database is configured.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, "messages.json")
}

func (s *FileStore) SaveMessage(ctx context.Context, name, email, message string) (*models.ContactMessage, error) {
	msg, err := newMessage(name, email, message)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	var existing []models.ContactMessage
	if raw, err := os.ReadFile(s.path()); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &existing); err != nil {
			return nil, fmt.Errorf("failed to parse existing messages: %w", err)
		}
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	existing = append(existing, *msg)
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write messages: %w", err)
	}
	return msg, nil
}
