package l4scoring

import (
	"fmt"
	"math"
	"sort"
)

// Weights holds the calibration constants of the heuristic scorer.
type Weights struct {
	// Normalisation ranges and thresholds
	YawRangeDeg    float64 `json:"yaw_range_deg"`
	PitchRangeDeg  float64 `json:"pitch_range_deg"`
	GazeHalfRange  float64 `json:"gaze_half_range"`
	BlinkThreshold float64 `json:"blink_threshold"`
	MouthCap       float64 `json:"mouth_cap"`

	// Engagement penalty weights
	YawWeight   float64 `json:"yaw_weight"`
	PitchWeight float64 `json:"pitch_weight"`
	GazeWeight  float64 `json:"gaze_weight"`
	BlinkWeight float64 `json:"blink_weight"`
	MouthWeight float64 `json:"mouth_weight"`

	// Confusion weights
	ConfusionDisengagementWeight float64 `json:"confusion_disengagement_weight"`
	ConfusionMouthWeight         float64 `json:"confusion_mouth_weight"`
	ConfusionBlinkWeight         float64 `json:"confusion_blink_weight"`
	ConfusionGazeWeight          float64 `json:"confusion_gaze_weight"`
}

// DefaultWeights returns the calibrated constants.
func DefaultWeights() Weights {
	return Weights{
		YawRangeDeg:    30.0,
		PitchRangeDeg:  20.0,
		GazeHalfRange:  0.5,
		BlinkThreshold: 0.18,
		MouthCap:       0.7,

		YawWeight:   0.35,
		PitchWeight: 0.25,
		GazeWeight:  0.25,
		BlinkWeight: 0.10,
		MouthWeight: 0.05,

		ConfusionDisengagementWeight: 0.35,
		ConfusionMouthWeight:         0.30,
		ConfusionBlinkWeight:         0.20,
		ConfusionGazeWeight:          0.15,
	}
}

func (w *Weights) fields() map[string]*float64 {
	return map[string]*float64{
		"yaw_range_deg":                  &w.YawRangeDeg,
		"pitch_range_deg":                &w.PitchRangeDeg,
		"gaze_half_range":                &w.GazeHalfRange,
		"blink_threshold":                &w.BlinkThreshold,
		"mouth_cap":                      &w.MouthCap,
		"yaw_weight":                     &w.YawWeight,
		"pitch_weight":                   &w.PitchWeight,
		"gaze_weight":                    &w.GazeWeight,
		"blink_weight":                   &w.BlinkWeight,
		"mouth_weight":                   &w.MouthWeight,
		"confusion_disengagement_weight": &w.ConfusionDisengagementWeight,
		"confusion_mouth_weight":         &w.ConfusionMouthWeight,
		"confusion_blink_weight":         &w.ConfusionBlinkWeight,
		"confusion_gaze_weight":          &w.ConfusionGazeWeight,
	}
}

// Apply returns a copy of w with the named overrides set. Unknown names are
// an error so a typo in a config file is not silently ignored.
func (w Weights) Apply(overrides map[string]float64) (Weights, error) {
	out := w
	fields := out.fields()

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dst, ok := fields[name]
		if !ok {
			return w, fmt.Errorf("unknown scoring weight %q", name)
		}
		*dst = overrides[name]
	}
	if err := out.Validate(); err != nil {
		return w, err
	}
	return out, nil
}

// Validate checks that ranges are positive and weights are finite.
func (w Weights) Validate() error {
	ranges := map[string]float64{
		"yaw_range_deg":   w.YawRangeDeg,
		"pitch_range_deg": w.PitchRangeDeg,
		"gaze_half_range": w.GazeHalfRange,
		"mouth_cap":       w.MouthCap,
	}
	for name, v := range ranges {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be positive, got %f", name, v)
		}
	}
	for name, p := range (&w).fields() {
		if math.IsNaN(*p) || math.IsInf(*p, 0) {
			return fmt.Errorf("%s must be finite, got %f", name, *p)
		}
	}
	return nil
}
