package l2geometry

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/attention.report/internal/attention/l1landmarks"
)

// ratioEpsilon keeps aspect ratio denominators away from zero.
const ratioEpsilon = 1e-6

func distance(a, b l1landmarks.Point) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}

// EyeAspectRatio computes (|p1-p5| + |p2-p4|) / (2|p0-p3| + eps) over a
// 6-point eye contour. Smaller values mean a more closed eye.
func EyeAspectRatio(eye []l1landmarks.Point) float64 {
	if len(eye) < 6 {
		return 0
	}
	a := distance(eye[1], eye[5])
	b := distance(eye[2], eye[4])
	c := distance(eye[0], eye[3])
	return (a + b) / (2.0*c + ratioEpsilon)
}

// MouthAspectRatio applies the same formula to the 12-point lip contour,
// using the vertical pairs (2,10) and (4,8) over the corner span (0,6).
func MouthAspectRatio(mouth []l1landmarks.Point) float64 {
	if len(mouth) < 12 {
		return 0
	}
	a := distance(mouth[2], mouth[10])
	b := distance(mouth[4], mouth[8])
	c := distance(mouth[0], mouth[6])
	return (a + b) / (2.0*c + ratioEpsilon)
}

// centroid returns the mean position of pts.
func centroid(pts []l1landmarks.Point) l1landmarks.Point {
	if len(pts) == 0 {
		return l1landmarks.Point{}
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return l1landmarks.Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}
}

// Gaze returns the iris-position gaze proxy. For each eye the iris centre
// is measured from the eye's image-left corner (contour index 0) and
// divided by the corner span (index 3 minus index 0, at least eps); the two
// eyes are averaged. Extreme geometry saturates rather than failing.
func Gaze(leftEye, rightEye, leftIris, rightIris []l1landmarks.Point) (gazeX, gazeY float64) {
	if len(leftEye) < 4 || len(rightEye) < 4 {
		return 0, 0
	}
	lc := centroid(leftIris)
	rc := centroid(rightIris)

	leftOrigin, rightOrigin := leftEye[0], rightEye[0]
	leftRange := max(ratioEpsilon, leftEye[3].X-leftOrigin.X)
	rightRange := max(ratioEpsilon, rightEye[3].X-rightOrigin.X)

	lo := lc.Sub(leftOrigin)
	ro := rc.Sub(rightOrigin)

	gazeX = (lo.X/leftRange + ro.X/rightRange) / 2.0
	gazeY = (lo.Y/leftRange + ro.Y/rightRange) / 2.0
	return gazeX, gazeY
}
