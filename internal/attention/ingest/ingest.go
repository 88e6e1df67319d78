// Package ingest reads the upstream landmark stream: one JSON object per
// line, each a l3features.Sample. Sampling cadence is applied here, before
// the core sees the sequence.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/attention.report/internal/attention/l3features"
	"github.com/banshee-data/attention.report/internal/fsutil"
)

// maxLineSize bounds one JSON line. A 478-point mesh is roughly 20KB.
const maxLineSize = 4 * 1024 * 1024

// Options controls which lines become samples.
type Options struct {
	// Stride keeps every Stride-th line, counting from the first. Values
	// below 1 keep every line.
	Stride int
	// MaxFrames stops reading after this many samples. 0 means no limit.
	MaxFrames int
}

// Read decodes samples from r. Blank lines are skipped and do not count
// toward the stride.
func Read(r io.Reader, opts Options) ([]l3features.Sample, error) {
	stride := max(opts.Stride, 1)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	samples := []l3features.Sample{}
	lineNo, frameIdx := 0, 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		idx := frameIdx
		frameIdx++
		if idx%stride != 0 {
			continue
		}
		if opts.MaxFrames > 0 && len(samples) >= opts.MaxFrames {
			break
		}

		var s l3features.Sample
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	return samples, nil
}

// ReadFile reads path from fsys and calls Read.
func ReadFile(fsys fsutil.FileSystem, path string, opts Options) ([]l3features.Sample, error) {
	data, err := fsys.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open samples: %w", err)
	}
	return Read(bytes.NewReader(data), opts)
}
