package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read("latest.json")
	assert.True(t, errors.Is(err, ErrNotExist))

	name, err := store.Save("latest.json", []byte(`{"v":1}`))
	require.NoError(t, err)
	assert.Equal(t, "latest.json", name)

	_, err = store.Save("latest.json", []byte(`{"v":2}`))
	require.NoError(t, err)
	data, err := store.Read("latest.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))

	require.NoError(t, store.Delete("latest.json"))
	require.NoError(t, store.Delete("latest.json"))
}

func TestLocalStorageListAndCleanup(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	names, err := store.List("history")
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = store.Save(filepath.Join("history", "b.json"), []byte("b"))
	require.NoError(t, err)
	_, err = store.Save(filepath.Join("history", "a.json"), []byte("a"))
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(filepath.Join("history", "a.json")), old, old))

	names, err = store.List("history")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("history", "a.json"), filepath.Join("history", "b.json")}, names)

	deleted, err := store.CleanupOlderThan("history", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("history", "a.json")}, deleted)
}
