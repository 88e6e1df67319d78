package l2geometry

// FocalBasis selects which frame dimension stands in for the focal length
// of the approximate pinhole camera.
type FocalBasis string

const (
	FocalHeight FocalBasis = "height"
	FocalWidth  FocalBasis = "width"
)

// Camera is a distortion-free pinhole camera.
type Camera struct {
	Fx, Fy float64 // focal lengths (px)
	Cx, Cy float64 // principal point (px)
}

// NewCamera approximates calibration from the frame size: square pixels,
// focal length equal to the chosen dimension, principal point at the centre.
func NewCamera(width, height int, basis FocalBasis) Camera {
	f := float64(height)
	if basis == FocalWidth {
		f = float64(width)
	}
	return Camera{
		Fx: f,
		Fy: f,
		Cx: float64(width) / 2,
		Cy: float64(height) / 2,
	}
}

// Project maps a camera-frame point to pixels. ok is false for points on or
// behind the image plane.
func (c Camera) Project(x, y, z float64) (u, v float64, ok bool) {
	if z <= 1e-9 {
		return 0, 0, false
	}
	return c.Fx*x/z + c.Cx, c.Fy*y/z + c.Cy, true
}
