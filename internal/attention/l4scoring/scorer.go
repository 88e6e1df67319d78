package l4scoring

import (
	"math"

	"github.com/banshee-data/attention.report/internal/attention/l3features"
)

// Scorer maps one frame's features to an (engagement, confusion) pair in
// [0,1]. Implementations must be stateless.
type Scorer interface {
	Score(f l3features.FrameFeatures) (engagement, confusion float64)
}

// ScoredFrame pairs a frame's features with its scores. The embedded
// features flatten into the tabular export.
type ScoredFrame struct {
	l3features.FrameFeatures
	Engagement float64 `json:"engagement"`
	Confusion  float64 `json:"confusion"`
}

// HeuristicScorer is the fixed-weight penalty formula.
type HeuristicScorer struct {
	Weights Weights
}

// NewHeuristicScorer returns a scorer using w.
func NewHeuristicScorer(w Weights) *HeuristicScorer {
	return &HeuristicScorer{Weights: w}
}

// Score implements Scorer.
//
//	engagement = 1 - (wy*yaw_n + wp*pitch_n + wg*gaze_dev + wb*blink_p + wm*mouth_p)
//	confusion  = cd*(1-engagement) + cm*mouth_p + cb*blink_p + cg*gaze_dev
//
// Both are clamped to [0,1].
func (s *HeuristicScorer) Score(f l3features.FrameFeatures) (engagement, confusion float64) {
	w := s.Weights

	yawN := math.Min(math.Abs(f.Yaw)/w.YawRangeDeg, 1.0)
	pitchN := math.Min(math.Abs(f.Pitch)/w.PitchRangeDeg, 1.0)
	gazeDev := math.Min(math.Abs(f.GazeX-0.5)/w.GazeHalfRange, 1.0) +
		math.Min(math.Abs(f.GazeY-0.5)/w.GazeHalfRange, 1.0)
	blinkP := 0.0
	if f.Blink < w.BlinkThreshold {
		blinkP = 1.0
	}
	mouthP := math.Min(f.MouthOpen/w.MouthCap, 1.0)

	engagement = clamp01(1.0 - (w.YawWeight*yawN +
		w.PitchWeight*pitchN +
		w.GazeWeight*gazeDev +
		w.BlinkWeight*blinkP +
		w.MouthWeight*mouthP))
	confusion = clamp01(w.ConfusionDisengagementWeight*(1.0-engagement) +
		w.ConfusionMouthWeight*mouthP +
		w.ConfusionBlinkWeight*blinkP +
		w.ConfusionGazeWeight*gazeDev)
	return engagement, confusion
}

// ScoreAll scores every frame, preserving order and length.
func ScoreAll(s Scorer, features []l3features.FrameFeatures) []ScoredFrame {
	out := make([]ScoredFrame, len(features))
	for i, f := range features {
		e, c := s.Score(f)
		out[i] = ScoredFrame{FrameFeatures: f, Engagement: e, Confusion: c}
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
