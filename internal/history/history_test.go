package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmacedoit/reright/internal/command"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, Entry{
		StartedAt:   base,
		Duration:    1500 * time.Millisecond,
		CommandWord: "fix",
		Mode:        command.ModeBase,
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		InputChars:  12,
		OutputChars: 11,
	}))
	require.NoError(t, store.Record(ctx, Entry{
		ID:          "fixed-id",
		StartedAt:   base.Add(time.Minute),
		Duration:    300 * time.Millisecond,
		CommandWord: "",
		Mode:        command.ModeAdhoc,
		Provider:    "anthropic",
		Model:       "claude-haiku-4-5",
		InputChars:  40,
		Error:       "anthropic API error 529",
	}))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest := entries[0]
	require.Equal(t, "fixed-id", newest.ID)
	require.Equal(t, command.ModeAdhoc, newest.Mode)
	require.True(t, newest.Failed())
	require.True(t, newest.StartedAt.Equal(base.Add(time.Minute)))

	oldest := entries[1]
	require.Len(t, oldest.ID, 36)
	require.Equal(t, "fix", oldest.CommandWord)
	require.Equal(t, 1500*time.Millisecond, oldest.Duration)
	require.Equal(t, 11, oldest.OutputChars)
	require.False(t, oldest.Failed())
}

func TestRecentRespectsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, store.Record(ctx, Entry{StartedAt: time.UnixMilli(int64(i * 1000)), Mode: command.ModeCommand}))
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, int64(4000), entries[0].StartedAt.UnixMilli())

	entries, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPruneKeepsNewest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := range 6 {
		require.NoError(t, store.Record(ctx, Entry{StartedAt: time.UnixMilli(int64(i * 1000)), Mode: command.ModeBase}))
	}

	removed, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, int64(4), removed)

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(5000), entries[0].StartedAt.UnixMilli())
	require.Equal(t, int64(4000), entries[1].StartedAt.UnixMilli())
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Record(context.Background(), Entry{Mode: command.ModeBase}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	entries, err := second.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
