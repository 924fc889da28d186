package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpen(t *testing.T) {
	s, path := openTestStore(t)

	_, err := os.Stat(path)
	require.NoError(t, err, "database file should exist")
	assert.NoError(t, s.Health(context.Background()))

	// Schema creation is idempotent.
	again, err := Open(path)
	require.NoError(t, err)
	again.Close()
}

func TestRecordAndRecent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := s.Record(ctx, Entry{Query: "open chrome", Kind: "path", Target: `D:\Google\Chrome\chrome.exe`, Duration: 1500 * time.Millisecond})
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err, "generated id should be a uuid")

	_, err = s.Record(ctx, Entry{Query: "search for go", Kind: "web_search", Target: "https://www.google.com/search?q=go"})
	require.NoError(t, err)
	_, err = s.Record(ctx, Entry{Query: "open nothing", Kind: "not_found"})
	require.NoError(t, err)

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "open nothing", entries[0].Query)
	assert.Equal(t, "web_search", entries[1].Kind)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[2].ID)
	assert.Equal(t, 1500*time.Millisecond, all[2].Duration)
	assert.True(t, all[2].CreatedAt.Equal(base.Add(time.Minute)))
}
