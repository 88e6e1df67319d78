package l5aggregate

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/attention.report/internal/attention/l4scoring"
)

// ConfusionEvent is a window of frames whose mean confusion met the
// threshold. Start and End are the timestamps of its first and last frame.
type ConfusionEvent struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

// DetectConfusionEvents scans forward with a window of up to windowSec
// seconds anchored at frame lo. When the window's mean confusion is at
// least threshold it is emitted and the scan resumes after it; otherwise
// the anchor moves one frame. Events come out ordered and disjoint.
//
// The cover is greedy, not optimal: frames absorbed into an emitted
// window's tail, or passed over while sliding, never start their own event.
func DetectConfusionEvents(frames []l4scoring.ScoredFrame, threshold, windowSec float64) []ConfusionEvent {
	events := []ConfusionEvent{}
	n := len(frames)
	if n == 0 {
		return events
	}

	conf := make([]float64, n)
	for i, f := range frames {
		conf[i] = f.Confusion
	}

	lo := 0
	for lo < n {
		hi := lo
		for hi < n && frames[hi].Timestamp-frames[lo].Timestamp <= windowSec {
			hi++
		}
		if hi == lo {
			hi = lo + 1
		}
		mean := stat.Mean(conf[lo:hi], nil)
		if mean >= threshold {
			events = append(events, ConfusionEvent{
				Start: frames[lo].Timestamp,
				End:   frames[hi-1].Timestamp,
				Score: mean,
			})
			lo = hi
			continue
		}
		lo++
	}
	return events
}
