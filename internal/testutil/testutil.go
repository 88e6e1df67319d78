// Package testutil provides shared test fixtures for the attention layers.
//
// SyntheticFace draws a 478-point face mesh whose pose anchors are the exact
// projection of a rigid face model, and whose eye, mouth and iris points are
// laid out so the aspect ratios and gaze proxy take known values.
package testutil

import (
	"math"

	"github.com/banshee-data/attention.report/internal/attention/l1landmarks"
)

// FaceModel is the rigid model the generator projects, in camera axes
// (x right, y down, z away from the camera), millimetres. Order: nose tip,
// chin, left eye outer corner, right eye outer corner, left mouth corner,
// right mouth corner.
var FaceModel = [6][3]float64{
	{0.0, 0.0, 0.0},
	{0.0, 330.0, 65.0},
	{-225.0, -170.0, 135.0},
	{225.0, -170.0, 135.0},
	{-150.0, 150.0, 125.0},
	{150.0, 150.0, 125.0},
}

// MeshSize is the number of landmarks in a refined face mesh.
const MeshSize = 478

// FaceParams describes one synthetic frame.
type FaceParams struct {
	Width, Height int
	FocalLength   float64 // px; zero means Height

	Yaw, Pitch, Roll float64 // degrees, R = Rz(roll)·Ry(yaw)·Rx(pitch)
	OffsetX, OffsetY float64 // mm, translation of the nose tip
	Distance         float64 // mm from camera to nose tip

	EyeAspect   float64
	MouthAspect float64
	GazeX       float64
	GazeY       float64
}

// DefaultFaceParams is a frontal face one metre from a 640x480 camera with
// open eyes, closed mouth and gaze on the eye-corner midline.
func DefaultFaceParams() FaceParams {
	return FaceParams{
		Width:       640,
		Height:      480,
		Distance:    1000,
		EyeAspect:   0.3,
		MouthAspect: 0,
		GazeX:       0.5,
		GazeY:       0.5,
	}
}

// RotationMatrix returns Rz(roll)·Ry(yaw)·Rx(pitch) for angles in degrees.
func RotationMatrix(yaw, pitch, roll float64) [3][3]float64 {
	y, p, r := yaw*math.Pi/180, pitch*math.Pi/180, roll*math.Pi/180
	cy, sy := math.Cos(y), math.Sin(y)
	cp, sp := math.Cos(p), math.Sin(p)
	cr, sr := math.Cos(r), math.Sin(r)
	return [3][3]float64{
		{cr * cy, cr*sy*sp - sr*cp, cr*sy*cp + sr*sp},
		{sr * cy, sr*sy*sp + cr*cp, sr*sy*cp - cr*sp},
		{-sy, cy * sp, cy * cp},
	}
}

// ProjectModel projects FaceModel with the frame's pose and camera.
func ProjectModel(p FaceParams) [6]l1landmarks.Point {
	f := p.FocalLength
	if f == 0 {
		f = float64(p.Height)
	}
	cx, cy := float64(p.Width)/2, float64(p.Height)/2
	rot := RotationMatrix(p.Yaw, p.Pitch, p.Roll)

	var out [6]l1landmarks.Point
	for i, m := range FaceModel {
		x := rot[0][0]*m[0] + rot[0][1]*m[1] + rot[0][2]*m[2] + p.OffsetX
		y := rot[1][0]*m[0] + rot[1][1]*m[1] + rot[1][2]*m[2] + p.OffsetY
		z := rot[2][0]*m[0] + rot[2][1]*m[1] + rot[2][2]*m[2] + p.Distance
		out[i] = l1landmarks.Point{X: f*x/z + cx, Y: f*y/z + cy}
	}
	return out
}

// SyntheticFace draws a full mesh for p in the MediaPipe face mesh layout.
func SyntheticFace(p FaceParams) l1landmarks.Set {
	anchors := ProjectModel(p)
	nose, chin := anchors[0], anchors[1]
	leftOuter, rightOuter := anchors[2], anchors[3]
	mouthLeft, mouthRight := anchors[4], anchors[5]

	set := make(l1landmarks.Set, MeshSize)
	for i := range set {
		set[i] = nose
	}
	set[1] = nose
	set[152] = chin

	eyeWidth := 0.25 * math.Hypot(rightOuter.X-leftOuter.X, rightOuter.Y-leftOuter.Y)
	drawEye(set, [6]int{33, 160, 158, 133, 153, 144}, leftOuter, eyeWidth, p.EyeAspect)
	drawEye(set, [6]int{362, 385, 387, 263, 373, 380},
		l1landmarks.Point{X: rightOuter.X - eyeWidth, Y: rightOuter.Y}, eyeWidth, p.EyeAspect)

	drawMouth(set, mouthLeft, mouthRight, p.MouthAspect)

	drawIris(set, [4]int{468, 469, 470, 471}, 472, set[33], eyeWidth, p.GazeX, p.GazeY)
	drawIris(set, [4]int{473, 474, 475, 476}, 477, set[362], eyeWidth, p.GazeX, p.GazeY)
	return set
}

// drawEye lays out a horizontal eye starting at corner with the given
// width; lid separation is aspect*width so the eye aspect ratio is aspect.
func drawEye(set l1landmarks.Set, ids [6]int, corner l1landmarks.Point, width, aspect float64) {
	h := aspect * width / 2
	set[ids[0]] = corner
	set[ids[1]] = l1landmarks.Point{X: corner.X + width/3, Y: corner.Y - h}
	set[ids[2]] = l1landmarks.Point{X: corner.X + 2*width/3, Y: corner.Y - h}
	set[ids[3]] = l1landmarks.Point{X: corner.X + width, Y: corner.Y}
	set[ids[4]] = l1landmarks.Point{X: corner.X + 2*width/3, Y: corner.Y + h}
	set[ids[5]] = l1landmarks.Point{X: corner.X + width/3, Y: corner.Y + h}
}

// drawMouth places the 12-point lip contour between the two corners. The
// measured pairs (2,10) and (4,8) are separated vertically by
// aspect*cornerSpan, giving that mouth aspect ratio.
func drawMouth(set l1landmarks.Set, left, right l1landmarks.Point, aspect float64) {
	ids := [12]int{61, 146, 91, 181, 84, 17, 314, 405, 321, 375, 291, 308}
	span := math.Hypot(right.X-left.X, right.Y-left.Y)
	h := aspect * span / 2
	lerp := func(t float64) l1landmarks.Point {
		return l1landmarks.Point{X: left.X + t*(right.X-left.X), Y: left.Y + t*(right.Y-left.Y)}
	}
	shift := func(q l1landmarks.Point, dy float64) l1landmarks.Point {
		return l1landmarks.Point{X: q.X, Y: q.Y + dy}
	}

	set[ids[0]] = left
	set[ids[6]] = right
	set[ids[2]] = shift(lerp(1.0/3), h)
	set[ids[10]] = shift(lerp(1.0/3), -h)
	set[ids[4]] = shift(lerp(2.0/3), h)
	set[ids[8]] = shift(lerp(2.0/3), -h)
	for _, k := range []int{1, 3, 5, 7, 9, 11} {
		set[ids[k]] = lerp(float64(k) / 12)
	}
}

// drawIris places a 4-point ring whose centre sits at corner plus
// (gazeX, gazeY) eye widths, and the optional centre landmark on it.
func drawIris(set l1landmarks.Set, ring [4]int, centerID int, corner l1landmarks.Point, eyeWidth, gazeX, gazeY float64) {
	c := l1landmarks.Point{X: corner.X + gazeX*eyeWidth, Y: corner.Y + gazeY*eyeWidth}
	r := eyeWidth / 8
	set[ring[0]] = l1landmarks.Point{X: c.X + r, Y: c.Y}
	set[ring[1]] = l1landmarks.Point{X: c.X, Y: c.Y - r}
	set[ring[2]] = l1landmarks.Point{X: c.X - r, Y: c.Y}
	set[ring[3]] = l1landmarks.Point{X: c.X, Y: c.Y + r}
	set[centerID] = c
}
