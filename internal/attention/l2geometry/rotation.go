package l2geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// gimbalEpsilon is the sqrt(R00²+R10²) bound below which the Euler
// decomposition takes the degenerate branch.
const gimbalEpsilon = 1e-6

// Rodrigues converts a rotation vector (axis * angle in radians) into a
// 3x3 rotation matrix.
func Rodrigues(rvec [3]float64) *mat.Dense {
	theta := math.Sqrt(rvec[0]*rvec[0] + rvec[1]*rvec[1] + rvec[2]*rvec[2])
	r := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	if theta < 1e-12 {
		// First-order expansion: R = I + [r]x
		r.Set(0, 1, -rvec[2])
		r.Set(0, 2, rvec[1])
		r.Set(1, 0, rvec[2])
		r.Set(1, 2, -rvec[0])
		r.Set(2, 0, -rvec[1])
		r.Set(2, 1, rvec[0])
		return r
	}

	kx, ky, kz := rvec[0]/theta, rvec[1]/theta, rvec[2]/theta
	c, s := math.Cos(theta), math.Sin(theta)
	v := 1 - c

	r.Set(0, 0, c+kx*kx*v)
	r.Set(0, 1, kx*ky*v-kz*s)
	r.Set(0, 2, kx*kz*v+ky*s)
	r.Set(1, 0, ky*kx*v+kz*s)
	r.Set(1, 1, c+ky*ky*v)
	r.Set(1, 2, ky*kz*v-kx*s)
	r.Set(2, 0, kz*kx*v-ky*s)
	r.Set(2, 1, kz*ky*v+kx*s)
	r.Set(2, 2, c+kz*kz*v)
	return r
}

// EulerAngles decomposes R = Rz(roll)·Ry(yaw)·Rx(pitch) and returns
// yaw, pitch and roll in degrees. Near gimbal lock roll is pinned to zero
// and pitch absorbs the remaining rotation.
func EulerAngles(r mat.Matrix) (yaw, pitch, roll float64) {
	sy := math.Sqrt(r.At(0, 0)*r.At(0, 0) + r.At(1, 0)*r.At(1, 0))

	if sy >= gimbalEpsilon {
		pitch = math.Atan2(r.At(2, 1), r.At(2, 2))
		yaw = math.Atan2(-r.At(2, 0), sy)
		roll = math.Atan2(r.At(1, 0), r.At(0, 0))
	} else {
		pitch = math.Atan2(-r.At(1, 2), r.At(1, 1))
		yaw = math.Atan2(-r.At(2, 0), sy)
		roll = 0
	}
	return degrees(yaw), degrees(pitch), degrees(roll)
}

func degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
