package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreLoadMissingFile(t *testing.T) {
	store := NewFileStore(t.TempDir())

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	want := []RoomRecord{
		{RoomID: "r1", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{RoomID: "r2", CreatedAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)},
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []RoomRecord{{RoomID: "old", CreatedAt: time.Now().UTC()}}))
	require.NoError(t, store.Save(ctx, []RoomRecord{{RoomID: "new", CreatedAt: time.Now().UTC()}}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].RoomID)
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rooms.json"), []byte("{not json"), 0o644))

	store := NewFileStore(dir)
	_, err := store.Load(context.Background())
	assert.Error(t, err)
}
