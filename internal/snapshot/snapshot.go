package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RoomRecord is one entry in the room-registry snapshot. Only room existence
// is persisted, never membership: connections are meaningless across a
// restart.
type RoomRecord struct {
	RoomID    string    `json:"roomId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists the set of durable rooms. Save overwrites the previous
// snapshot wholesale. Both operations are advisory: callers log failures and
// keep serving from memory.
type Store interface {
	Load(ctx context.Context) ([]RoomRecord, error)
	Save(ctx context.Context, records []RoomRecord) error
}

// FileStore keeps the snapshot as a JSON array in <dir>/rooms.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, "rooms.json")
}

func (s *FileStore) Load(ctx context.Context) ([]RoomRecord, error) {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var records []RoomRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return records, nil
}

func (s *FileStore) Save(ctx context.Context, records []RoomRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
