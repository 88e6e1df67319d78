package l4scoring

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// EdgeMode selects how the moving average treats the ends of the series.
type EdgeMode string

const (
	// EdgeZero pads with zeros and always divides by the window length, so
	// the first and last window/2 values are biased toward zero.
	EdgeZero EdgeMode = "zero"
	// EdgeRenormalize divides by the number of in-range samples.
	EdgeRenormalize EdgeMode = "renormalize"
)

// ParseEdgeMode validates a configured edge mode. Empty selects EdgeZero.
func ParseEdgeMode(s string) (EdgeMode, error) {
	switch EdgeMode(s) {
	case "", EdgeZero:
		return EdgeZero, nil
	case EdgeRenormalize:
		return EdgeRenormalize, nil
	}
	return "", fmt.Errorf("unknown edge mode %q", s)
}

// Smooth applies a centred moving average of length window to the
// engagement and confusion series independently. Output index i averages
// inputs [i-window/2, i-window/2+window-1]. With window <= 1 the input is
// returned as is. The input slice is never modified.
func Smooth(frames []ScoredFrame, window int, mode EdgeMode) []ScoredFrame {
	if window <= 1 || len(frames) == 0 {
		return frames
	}

	n := len(frames)
	eng := make([]float64, n)
	conf := make([]float64, n)
	for i, f := range frames {
		eng[i] = f.Engagement
		conf[i] = f.Confusion
	}

	out := make([]ScoredFrame, n)
	half := window / 2
	for i := range frames {
		lo := max(0, i-half)
		hi := min(n, i-half+window)
		div := float64(window)
		if mode == EdgeRenormalize {
			div = float64(hi - lo)
		}
		out[i] = ScoredFrame{
			FrameFeatures: frames[i].FrameFeatures,
			Engagement:    floats.Sum(eng[lo:hi]) / div,
			Confusion:     floats.Sum(conf[lo:hi]) / div,
		}
	}
	return out
}
