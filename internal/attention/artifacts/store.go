// Package artifacts writes a session's outputs as files under a base
// directory: heatmap, events, notes and summary as JSON, and the scored
// frame table as CSV.
package artifacts

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/attention.report/internal/attention/l4scoring"
	"github.com/banshee-data/attention.report/internal/attention/l5aggregate"
	"github.com/banshee-data/attention.report/internal/attention/pipeline"
	"github.com/banshee-data/attention.report/internal/fsutil"
)

// Artifact names within a session directory.
const (
	HeatmapFile  = "heatmap.json"
	EventsFile   = "events.json"
	NotesFile    = "notes.json"
	SummaryFile  = "summary.json"
	FeaturesFile = "features.csv"
)

// Store persists artifacts by key. Keys are slash-separated and relative.
type Store interface {
	WriteBytes(key string, data []byte) (string, error)
	WriteText(key, content string) (string, error)
	WriteJSON(key string, v any) (string, error)
}

// LocalStore writes under a base directory of a FileSystem.
type LocalStore struct {
	fs   fsutil.FileSystem
	base string
}

// NewLocalStore returns a store rooted at base.
func NewLocalStore(fsys fsutil.FileSystem, base string) *LocalStore {
	return &LocalStore{fs: fsys, base: filepath.Clean(base)}
}

func (s *LocalStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.base, clean), nil
}

// WriteBytes writes data to key and returns the resulting path.
func (s *LocalStore) WriteBytes(key string, data []byte) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", key, err)
	}
	return path, nil
}

// WriteText writes content to key and returns the resulting path.
func (s *LocalStore) WriteText(key, content string) (string, error) {
	return s.WriteBytes(key, []byte(content))
}

// WriteJSON writes v as indented JSON.
func (s *LocalStore) WriteJSON(key string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	return s.WriteText(key, string(data))
}

// FeaturesCSV renders scored frames with a header row.
func FeaturesCSV(frames []l4scoring.ScoredFrame) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(l4scoring.CSVHeader); err != nil {
		return "", err
	}
	for _, f := range frames {
		if err := w.Write(f.CSVRecord()); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteSession writes every artifact of one analysis under prefix and
// returns prefix, which is what the session record stores.
func WriteSession(store Store, prefix string, res *pipeline.Result, notes []l5aggregate.Note) (string, error) {
	if notes == nil {
		notes = []l5aggregate.Note{}
	}
	jsonArtifacts := []struct {
		name string
		v    any
	}{
		{HeatmapFile, res.Heatmap},
		{EventsFile, res.Events},
		{NotesFile, notes},
		{SummaryFile, res.Summary},
	}
	for _, a := range jsonArtifacts {
		if _, err := store.WriteJSON(prefix+"/"+a.name, a.v); err != nil {
			return "", err
		}
	}

	table, err := FeaturesCSV(res.Frames)
	if err != nil {
		return "", fmt.Errorf("render features: %w", err)
	}
	if _, err := store.WriteText(prefix+"/"+FeaturesFile, table); err != nil {
		return "", err
	}
	return prefix, nil
}
