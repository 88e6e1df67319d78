package l3features

import (
	"fmt"
	"math"

	"github.com/banshee-data/attention.report/internal/attention/l1landmarks"
)

// Sample is one upstream frame: the detector output plus the frame metadata
// the solver needs.
type Sample struct {
	Timestamp      float64         `json:"timestamp"`
	Landmarks      l1landmarks.Set `json:"landmarks"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	FaceConfidence float64         `json:"face_confidence"`
}

// ContractError reports the first sample that breaks the upstream contract.
type ContractError struct {
	Index  int
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("input contract violated at sample %d: %s", e.Index, e.Reason)
}

// ValidateSequence checks the whole sequence before any processing:
// timestamps must be finite, non-negative and non-decreasing, and every
// frame must have a positive size. It returns nil or a *ContractError.
func ValidateSequence(samples []Sample) error {
	prev := math.Inf(-1)
	for i, s := range samples {
		switch {
		case math.IsNaN(s.Timestamp) || math.IsInf(s.Timestamp, 0):
			return &ContractError{Index: i, Reason: fmt.Sprintf("timestamp %v is not finite", s.Timestamp)}
		case s.Timestamp < 0:
			return &ContractError{Index: i, Reason: fmt.Sprintf("timestamp %v is negative", s.Timestamp)}
		case s.Timestamp < prev:
			return &ContractError{Index: i, Reason: fmt.Sprintf("timestamp %v precedes %v", s.Timestamp, prev)}
		case s.Width <= 0 || s.Height <= 0:
			return &ContractError{Index: i, Reason: fmt.Sprintf("frame size %dx%d is not positive", s.Width, s.Height)}
		}
		prev = s.Timestamp
	}
	return nil
}
