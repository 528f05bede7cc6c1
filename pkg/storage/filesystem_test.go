package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreSaveOpenDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("batches/b1/report.zip", []byte("zip")))
	file, err := store.Open("batches/b1/report.zip")
	require.NoError(t, err)
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "zip", string(data))

	require.NoError(t, store.Delete("batches/b1/report.zip"))
	require.NoError(t, store.Delete("batches/b1/report.zip"))
	_, err = store.Open("batches/b1/report.zip")
	assert.Error(t, err)
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape.zip", "a/../../escape.zip", "/etc/passwd", ""} {
		assert.ErrorIs(t, store.Save(name, []byte("x")), ErrInvalidPath, name)
	}
}

func TestFileStoreCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save("old.zip", []byte("o")))
	require.NoError(t, store.Save("new.zip", []byte("n")))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.zip"), past, past))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.zip"}, deleted)
	_, err = os.Stat(filepath.Join(dir, "new.zip"))
	assert.NoError(t, err)
}
