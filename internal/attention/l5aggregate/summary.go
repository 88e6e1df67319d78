package l5aggregate

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/attention.report/internal/attention/l4scoring"
)

// Summary is the per-session headline stored with the session record.
type Summary struct {
	AvgEngagement   float64 `json:"avg_engagement"`
	ConfusionEvents int     `json:"confusion_events"`
	DurationSeconds float64 `json:"duration_seconds"`
	Frames          int     `json:"frames"`
	DroppedFrames   int     `json:"dropped_frames"`
}

// Summarize reports mean smoothed engagement, event count and the last
// frame's timestamp as the duration. Empty input reports zeros.
func Summarize(frames []l4scoring.ScoredFrame, events []ConfusionEvent, dropped int) Summary {
	s := Summary{
		ConfusionEvents: len(events),
		Frames:          len(frames),
		DroppedFrames:   dropped,
	}
	if len(frames) == 0 {
		return s
	}
	eng := make([]float64, len(frames))
	for i, f := range frames {
		eng[i] = f.Engagement
	}
	s.AvgEngagement = stat.Mean(eng, nil)
	s.DurationSeconds = frames[len(frames)-1].Timestamp
	return s
}
