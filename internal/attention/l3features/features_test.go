package l3features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/attention.report/internal/attention/l2geometry"
)

func TestBuild(t *testing.T) {
	g := l2geometry.Geometry{Yaw: 1, Pitch: 2, Roll: 3, GazeX: 0.4, GazeY: 0.6, Blink: 0.3, MouthOpen: 0.1}
	f := Build(g, 12.5, 0.9)

	assert.Equal(t, FrameFeatures{
		Timestamp: 12.5, Yaw: 1, Pitch: 2, Roll: 3,
		GazeX: 0.4, GazeY: 0.6, Blink: 0.3, MouthOpen: 0.1,
		FaceConfidence: 0.9,
	}, f)
}

func TestCSVRecord(t *testing.T) {
	f := FrameFeatures{Timestamp: 1.5, Yaw: -3, GazeX: 0.5, GazeY: 0.5, Blink: 0.25, FaceConfidence: 1}
	rec := f.CSVRecord()
	require.Len(t, rec, len(CSVHeader))
	assert.Equal(t, []string{"1.5", "-3", "0", "0", "0.5", "0.5", "0.25", "0", "1"}, rec)
}

func TestValidateSequence(t *testing.T) {
	t.Parallel()

	ok := func(ts float64) Sample { return Sample{Timestamp: ts, Width: 640, Height: 480} }

	tests := []struct {
		name    string
		samples []Sample
		index   int
		reason  string
	}{
		{name: "empty", samples: nil, index: -1},
		{name: "equal timestamps allowed", samples: []Sample{ok(0), ok(0), ok(1)}, index: -1},
		{name: "decreasing", samples: []Sample{ok(0), ok(2), ok(1)}, index: 2, reason: "precedes"},
		{name: "negative", samples: []Sample{ok(-1)}, index: 0, reason: "negative"},
		{name: "nan", samples: []Sample{ok(0), ok(math.NaN())}, index: 1, reason: "not finite"},
		{name: "inf", samples: []Sample{ok(math.Inf(1))}, index: 0, reason: "not finite"},
		{name: "zero size", samples: []Sample{ok(0), {Timestamp: 1, Width: 0, Height: 480}}, index: 1, reason: "frame size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSequence(tt.samples)
			if tt.index < 0 {
				assert.NoError(t, err)
				return
			}
			var ce *ContractError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.index, ce.Index)
			assert.Contains(t, ce.Reason, tt.reason)
		})
	}
}
