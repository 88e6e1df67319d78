package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/attention.report/internal/fsutil"
)

func stream(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `{"timestamp":%d,"landmarks":[{"x":1,"y":2},{"x":3,"y":4}],"width":640,"height":480,"face_confidence":1}`+"\n", i)
	}
	return b.String()
}

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("all lines", func(t *testing.T) {
		got, err := Read(strings.NewReader(stream(5)), Options{})
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, 3.0, got[3].Timestamp)
		assert.Equal(t, 640, got[3].Width)
		assert.Equal(t, 480, got[3].Height)
		assert.Equal(t, 1.0, got[3].FaceConfidence)
		require.Len(t, got[3].Landmarks, 2)
		assert.Equal(t, 4.0, got[3].Landmarks[1].Y)
	})

	t.Run("stride", func(t *testing.T) {
		got, err := Read(strings.NewReader(stream(7)), Options{Stride: 3})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []float64{0, 3, 6}, []float64{got[0].Timestamp, got[1].Timestamp, got[2].Timestamp})
	})

	t.Run("max frames after stride", func(t *testing.T) {
		got, err := Read(strings.NewReader(stream(9)), Options{Stride: 2, MaxFrames: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2.0, got[1].Timestamp)
	})

	t.Run("blank lines skipped", func(t *testing.T) {
		in := "\n" + strings.ReplaceAll(stream(3), "\n", "\n\n")
		got, err := Read(strings.NewReader(in), Options{Stride: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2.0, got[1].Timestamp)
	})

	t.Run("bad line reports its number", func(t *testing.T) {
		in := stream(2) + "{not json}\n"
		_, err := Read(strings.NewReader(in), Options{})
		assert.ErrorContains(t, err, "line 3")
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := Read(strings.NewReader(""), Options{})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(stream(4)), 0o644))

	got, err := ReadFile(fsutil.OSFileSystem{}, path, Options{MaxFrames: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = ReadFile(fsutil.OSFileSystem{}, filepath.Join(t.TempDir(), "missing.jsonl"), Options{})
	assert.ErrorContains(t, err, "open samples")
}

func TestReadFileFromMemory(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/samples.jsonl", []byte(stream(5)), 0o644))

	got, err := ReadFile(fsys, "/samples.jsonl", Options{Stride: 2})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 4.0, got[2].Timestamp)

	_, err = ReadFile(fsys, "/missing.jsonl", Options{})
	assert.ErrorContains(t, err, "open samples")
}

func TestReadTranscript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcript.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"start": 10, "end": 12, "text": "later"},
		{"start": 0, "end": 4.5, "text": "intro"}
	]`), 0o644))

	segments, err := ReadTranscript(fsutil.OSFileSystem{}, path)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "intro", segments[0].Text)
	assert.Equal(t, 4.5, segments[0].End)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"start": 1}`), 0o644))
	_, err = ReadTranscript(fsutil.OSFileSystem{}, bad)
	assert.ErrorContains(t, err, "parse transcript")

	mem := fsutil.NewMemoryFileSystem()
	require.NoError(t, mem.WriteFile("/t.json", []byte(`[{"start": 3, "end": 4, "text": "x"}]`), 0o644))
	segments, err = ReadTranscript(mem, "/t.json")
	require.NoError(t, err)
	require.Len(t, segments, 1)

	_, err = ReadTranscript(mem, "/gone.json")
	assert.ErrorContains(t, err, "read transcript")
}
