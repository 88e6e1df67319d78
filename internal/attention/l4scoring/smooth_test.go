package l4scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/attention.report/internal/attention/l3features"
)

func series(vals ...float64) []ScoredFrame {
	out := make([]ScoredFrame, len(vals))
	for i, v := range vals {
		out[i] = ScoredFrame{
			FrameFeatures: l3features.FrameFeatures{Timestamp: float64(i)},
			Engagement:    v,
			Confusion:     1 - v,
		}
	}
	return out
}

func engagements(frames []ScoredFrame) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = f.Engagement
	}
	return out
}

func TestSmoothIdentity(t *testing.T) {
	t.Parallel()

	in := series(0.1, 0.9, 0.4)
	for _, w := range []int{-3, 0, 1} {
		assert.Equal(t, in, Smooth(in, w, EdgeZero))
	}
}

func TestSmoothEmpty(t *testing.T) {
	assert.Empty(t, Smooth(nil, 5, EdgeZero))
	assert.Empty(t, Smooth([]ScoredFrame{}, 5, EdgeRenormalize))
}

func TestSmoothZeroPadding(t *testing.T) {
	t.Parallel()

	t.Run("odd window biases the edges", func(t *testing.T) {
		got := Smooth(series(1, 1, 1, 1), 3, EdgeZero)
		assert.InDeltaSlice(t, []float64{2.0 / 3, 1, 1, 2.0 / 3}, engagements(got), 1e-12)
	})

	t.Run("even window leans left", func(t *testing.T) {
		got := Smooth(series(0, 0, 4, 0, 0), 4, EdgeZero)
		assert.InDeltaSlice(t, []float64{0, 1, 1, 1, 1}, engagements(got), 1e-12)
	})

	t.Run("window longer than series keeps length", func(t *testing.T) {
		got := Smooth(series(1, 1), 5, EdgeZero)
		assert.InDeltaSlice(t, []float64{0.4, 0.4}, engagements(got), 1e-12)
	})

	t.Run("confusion smoothed independently", func(t *testing.T) {
		got := Smooth(series(1, 0, 1), 3, EdgeZero)
		require.Len(t, got, 3)
		assert.InDelta(t, 1.0/3, got[0].Confusion, 1e-12)
		assert.InDelta(t, 1.0/3, got[1].Confusion, 1e-12)
		assert.InDelta(t, 1.0/3, got[2].Confusion, 1e-12)
	})
}

func TestSmoothRenormalize(t *testing.T) {
	got := Smooth(series(1, 1, 1, 1), 3, EdgeRenormalize)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1}, engagements(got), 1e-12)

	got = Smooth(series(0, 3, 6), 3, EdgeRenormalize)
	assert.InDeltaSlice(t, []float64{1.5, 3, 4.5}, engagements(got), 1e-12)
}

func TestSmoothKeepsFeaturesAndInput(t *testing.T) {
	in := series(0.2, 0.8, 0.2)
	in[1].Yaw = 12
	snapshot := append([]ScoredFrame(nil), in...)

	got := Smooth(in, 3, EdgeZero)
	assert.Equal(t, snapshot, in)
	for i := range got {
		assert.Equal(t, in[i].FrameFeatures, got[i].FrameFeatures)
	}
}

func TestParseEdgeMode(t *testing.T) {
	m, err := ParseEdgeMode("")
	require.NoError(t, err)
	assert.Equal(t, EdgeZero, m)

	m, err = ParseEdgeMode("renormalize")
	require.NoError(t, err)
	assert.Equal(t, EdgeRenormalize, m)

	_, err = ParseEdgeMode("reflect")
	assert.Error(t, err)
}

func TestScoredFrameCSVRecord(t *testing.T) {
	f := ScoredFrame{
		FrameFeatures: l3features.FrameFeatures{Timestamp: 2, GazeX: 0.5},
		Engagement:    0.75,
		Confusion:     0.125,
	}
	rec := f.CSVRecord()
	require.Len(t, rec, len(CSVHeader))
	assert.Equal(t, "engagement", CSVHeader[9])
	assert.Equal(t, "confusion", CSVHeader[10])
	assert.Equal(t, "2", rec[0])
	assert.Equal(t, "0.75", rec[9])
	assert.Equal(t, "0.125", rec[10])
}
