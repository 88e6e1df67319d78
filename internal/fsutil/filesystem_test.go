package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystemRequiresParent(t *testing.T) {
	m := NewMemoryFileSystem()

	err := m.WriteFile("/out/s1/summary.json", []byte("{}"), 0o644)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, m.MkdirAll("/out/s1", 0o755))
	assert.True(t, m.Exists("/out"))
	require.NoError(t, m.WriteFile("/out/s1/summary.json", []byte("{}"), 0o644))

	data, err := m.ReadFile("/out/s1/summary.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestMemoryFileSystemReadReturnsCopy(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("a.txt", []byte("abc"), 0o644))

	data, err := m.ReadFile("a.txt")
	require.NoError(t, err)
	data[0] = 'x'

	again, err := m.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestWriteFileAtomic(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		m := NewMemoryFileSystem()
		require.NoError(t, m.MkdirAll("/s", 0o755))
		require.NoError(t, WriteFileAtomic(m, "/s/events.json", []byte("[]"), 0o644))

		assert.Equal(t, []string{"/s/events.json"}, m.Files())
	})

	t.Run("os", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "heatmap.json")
		var o OSFileSystem
		require.NoError(t, WriteFileAtomic(o, path, []byte("[1]"), 0o644))

		data, err := o.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[1]", string(data))
		assert.False(t, o.Exists(path+".tmp"))
	})

	t.Run("missing directory", func(t *testing.T) {
		m := NewMemoryFileSystem()
		err := WriteFileAtomic(m, "/nowhere/x.json", nil, 0o644)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.Empty(t, m.Files())
	})
}

func TestMemoryFileSystemRemove(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("x", []byte("1"), 0o644))
	require.NoError(t, m.Remove("x"))
	assert.False(t, m.Exists("x"))
	assert.ErrorIs(t, m.Remove("x"), fs.ErrNotExist)
}
