package contacts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindlyrobotics/huddle/internal/models"
)

func TestFileStoreRejectsIncompleteMessage(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.SaveMessage(context.Background(), "", "a@b.c", "hi")
	assert.ErrorIs(t, err, ErrInvalidMessage)
	_, err = store.SaveMessage(context.Background(), "al", "", "hi")
	assert.ErrorIs(t, err, ErrInvalidMessage)
	_, err = store.SaveMessage(context.Background(), "al", "a@b.c", "")
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestFileStoreAppendsMessages(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	first, err := store.SaveMessage(ctx, "alice", "alice@example.com", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := store.SaveMessage(ctx, "bob", "bob@example.com", "hi there")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	raw, err := os.ReadFile(filepath.Join(dir, "messages.json"))
	require.NoError(t, err)

	var saved []models.ContactMessage
	require.NoError(t, json.Unmarshal(raw, &saved))
	require.Len(t, saved, 2)
	assert.Equal(t, "alice", saved[0].Name)
	assert.Equal(t, "hi there", saved[1].Message)
}
