package ingest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/banshee-data/attention.report/internal/attention/l5aggregate"
	"github.com/banshee-data/attention.report/internal/fsutil"
)

// ReadTranscript loads transcript segments from a JSON array file and
// orders them by start time. Note matching takes the first covering
// segment, so order matters.
func ReadTranscript(fsys fsutil.FileSystem, path string) ([]l5aggregate.TranscriptSegment, error) {
	data, err := fsys.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var segments []l5aggregate.TranscriptSegment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	return segments, nil
}
