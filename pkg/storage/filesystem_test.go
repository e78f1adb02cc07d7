package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("abc", []byte("BEGIN:VCALENDAR")))
	data, err := store.Read("abc")
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR", string(data))

	require.NoError(t, store.Delete("abc"))
	_, err = store.Read("abc")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Delete("abc"))
}

func TestLocalStorageRejectsPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	for _, name := range []string{"", "..", "../etc/passwd", "a/b", `a\b`} {
		assert.Error(t, store.Save(name, []byte("x")), name)
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save("old", []byte("1")))
	require.NoError(t, store.Save("new", []byte("2")))

	now := time.Now()
	past := now.Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old"), past, past))

	deleted, err := store.CleanupOlderThan(now, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, deleted)
	_, err = store.Read("new")
	require.NoError(t, err)
}
