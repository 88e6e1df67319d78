package l2geometry

import (
	"fmt"

	"github.com/banshee-data/attention.report/internal/attention/l1landmarks"
)

// DefaultMaxIterations bounds the Levenberg-Marquardt loop.
const DefaultMaxIterations = 100

// Geometry is the per-frame output of the solver.
type Geometry struct {
	Yaw       float64 // degrees
	Pitch     float64 // degrees
	Roll      float64 // degrees
	GazeX     float64
	GazeY     float64
	Blink     float64 // mean eye aspect ratio
	MouthOpen float64 // mouth aspect ratio
}

// Solver derives Geometry from a landmark Source. It holds no per-frame
// state, so one Solver may be shared across goroutines.
type Solver struct {
	Basis         FocalBasis
	MaxIterations int
}

// NewSolver returns a Solver with the given focal basis and iteration cap.
// Zero values select FocalHeight and DefaultMaxIterations.
func NewSolver(basis FocalBasis, maxIterations int) *Solver {
	if basis == "" {
		basis = FocalHeight
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Solver{Basis: basis, MaxIterations: maxIterations}
}

// Solve computes the frame's geometry. The only error it returns wraps
// ErrPoseSolveFailure.
func (s *Solver) Solve(src l1landmarks.Source, width, height int) (Geometry, error) {
	leftEye := src.Points(l1landmarks.GroupLeftEye)
	rightEye := src.Points(l1landmarks.GroupRightEye)

	var g Geometry
	g.Blink = (EyeAspectRatio(leftEye) + EyeAspectRatio(rightEye)) / 2.0
	g.MouthOpen = MouthAspectRatio(src.Points(l1landmarks.GroupMouth))

	cam := NewCamera(width, height, s.Basis)
	pose, err := SolvePnP(CanonicalFaceModel, src.Points(l1landmarks.GroupPose), cam, s.MaxIterations)
	if err != nil {
		return Geometry{}, fmt.Errorf("solve head pose: %w", err)
	}
	g.Yaw, g.Pitch, g.Roll = pose.Yaw, pose.Pitch, pose.Roll

	g.GazeX, g.GazeY = Gaze(leftEye, rightEye,
		src.Points(l1landmarks.GroupLeftIris),
		src.Points(l1landmarks.GroupRightIris))

	return g, nil
}
