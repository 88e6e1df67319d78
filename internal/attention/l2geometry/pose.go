package l2geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/attention.report/internal/attention/l1landmarks"
)

// ErrPoseSolveFailure reports a perspective-n-point solve that did not
// converge. Callers drop the frame; it is expected and never retried.
var ErrPoseSolveFailure = errors.New("pose solve failure")

// Vec3 is a point in millimetres in the face model or camera frame.
type Vec3 [3]float64

// CanonicalFaceModel holds the 3D reference points matching
// l1landmarks.GroupPose: nose tip, chin, left eye outer corner, right eye
// outer corner, left mouth corner, right mouth corner. The model is
// expressed in the camera's axes (x right, y down, z away from the camera),
// so a face looking straight into the lens solves to the identity rotation.
var CanonicalFaceModel = []Vec3{
	{0.0, 0.0, 0.0},
	{0.0, 330.0, 65.0},
	{-225.0, -170.0, 135.0},
	{225.0, -170.0, 135.0},
	{-150.0, 150.0, 125.0},
	{150.0, 150.0, 125.0},
}

// Levenberg-Marquardt tolerances.
const (
	lmInitialLambda = 1e-3
	lmMaxLambda     = 1e12
	lmMinLambda     = 1e-12
	lmGradientTol   = 1e-10
	lmStepTol       = 1e-10
	lmCostTol       = 1e-14
)

// Pose is the result of a perspective-n-point solve.
type Pose struct {
	RotationVector [3]float64
	Translation    Vec3
	Yaw            float64 // degrees
	Pitch          float64 // degrees
	Roll           float64 // degrees
	Iterations     int
	RMSError       float64 // reprojection error (px)
}

// SolvePnP recovers the rotation and translation that project object onto
// image through cam, by Levenberg-Marquardt minimisation of the squared
// reprojection error. The starting point is the identity rotation with the
// depth implied by the first two eye anchors' pixel span.
func SolvePnP(object []Vec3, image []l1landmarks.Point, cam Camera, maxIterations int) (Pose, error) {
	if len(object) != len(image) || len(object) < 4 {
		return Pose{}, fmt.Errorf("%w: need at least 4 correspondences, got %d/%d", ErrPoseSolveFailure, len(object), len(image))
	}
	if maxIterations < 1 {
		maxIterations = 1
	}

	params, err := initialGuess(object, image, cam)
	if err != nil {
		return Pose{}, err
	}

	n := 2 * len(object)
	res := make([]float64, n)
	if !reprojectionResiduals(params, object, image, cam, res) {
		return Pose{}, fmt.Errorf("%w: initial guess places model behind camera", ErrPoseSolveFailure)
	}
	cost := 0.5 * floats.Dot(res, res)

	jac := mat.NewDense(n, 6, nil)
	jtj := mat.NewSymDense(6, nil)
	damped := mat.NewSymDense(6, nil)
	var grad, step mat.VecDense
	var chol mat.Cholesky

	lambda := lmInitialLambda
	trial := make([]float64, n)
	converged := false
	iter := 0

	for ; iter < maxIterations && !converged; iter++ {
		if cost == 0 {
			converged = true
			break
		}
		if !numericJacobian(params, object, image, cam, jac) {
			return Pose{}, fmt.Errorf("%w: jacobian evaluation left the image plane", ErrPoseSolveFailure)
		}

		jtj.SymOuterK(1, jac.T())
		grad.MulVec(jac.T(), mat.NewVecDense(n, res))
		if mat.Norm(&grad, math.Inf(1)) < lmGradientTol {
			converged = true
			break
		}

		accepted := false
		for !accepted {
			for i := 0; i < 6; i++ {
				for j := i; j < 6; j++ {
					damped.SetSym(i, j, jtj.At(i, j))
				}
				d := max(jtj.At(i, i), 1e-12)
				damped.SetSym(i, i, jtj.At(i, i)+lambda*d)
			}

			if ok := chol.Factorize(damped); !ok {
				lambda *= 10
				if lambda > lmMaxLambda {
					return Pose{}, fmt.Errorf("%w: normal equations are singular", ErrPoseSolveFailure)
				}
				continue
			}
			if err := chol.SolveVecTo(&step, &grad); err != nil {
				lambda *= 10
				if lambda > lmMaxLambda {
					return Pose{}, fmt.Errorf("%w: %v", ErrPoseSolveFailure, err)
				}
				continue
			}

			var candidate [6]float64
			for i := range candidate {
				candidate[i] = params[i] - step.AtVec(i)
			}

			newCost := math.Inf(1)
			if reprojectionResiduals(candidate, object, image, cam, trial) {
				newCost = 0.5 * floats.Dot(trial, trial)
			}

			if newCost < cost {
				improvement := cost - newCost
				params = candidate
				copy(res, trial)
				cost = newCost
				lambda = max(lambda/10, lmMinLambda)
				accepted = true

				if mat.Norm(&step, 2) < lmStepTol*(floats.Norm(params[:], 2)+lmStepTol) ||
					improvement <= lmCostTol*(cost+improvement) {
					converged = true
				}
				continue
			}

			lambda *= 10
			if lambda > lmMaxLambda {
				// No descent direction left: we are at the minimum to
				// machine precision.
				converged = true
				break
			}
		}
	}

	for _, p := range params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return Pose{}, fmt.Errorf("%w: non-finite solution", ErrPoseSolveFailure)
		}
	}
	if !converged {
		return Pose{}, fmt.Errorf("%w: no convergence after %d iterations", ErrPoseSolveFailure, maxIterations)
	}

	rvec := [3]float64{params[0], params[1], params[2]}
	yaw, pitch, roll := EulerAngles(Rodrigues(rvec))
	return Pose{
		RotationVector: rvec,
		Translation:    Vec3{params[3], params[4], params[5]},
		Yaw:            yaw,
		Pitch:          pitch,
		Roll:           roll,
		Iterations:     iter,
		RMSError:       math.Sqrt(2 * cost / float64(len(object))),
	}, nil
}

// initialGuess places the model facing the camera at the depth where the
// eye anchors (indices 2 and 3) span the observed pixel distance, with the
// nose anchor (index 0) on its observed ray.
func initialGuess(object []Vec3, image []l1landmarks.Point, cam Camera) ([6]float64, error) {
	var params [6]float64

	modelSpan := floats.Distance(object[2][:], object[3][:], 2)
	imageSpan := distance(image[2], image[3])
	if imageSpan < ratioEpsilon || modelSpan < ratioEpsilon {
		return params, fmt.Errorf("%w: degenerate eye anchor span", ErrPoseSolveFailure)
	}

	tz := cam.Fx * modelSpan / imageSpan
	params[3] = (image[0].X-cam.Cx)*tz/cam.Fx - object[0][0]
	params[4] = (image[0].Y-cam.Cy)*tz/cam.Fy - object[0][1]
	params[5] = tz - object[0][2]
	return params, nil
}

// reprojectionResiduals writes projected-minus-observed pixel offsets into
// out (x then y per point). It returns false when any point lands on or
// behind the image plane.
func reprojectionResiduals(params [6]float64, object []Vec3, image []l1landmarks.Point, cam Camera, out []float64) bool {
	r := Rodrigues([3]float64{params[0], params[1], params[2]})
	for i, p := range object {
		x := r.At(0, 0)*p[0] + r.At(0, 1)*p[1] + r.At(0, 2)*p[2] + params[3]
		y := r.At(1, 0)*p[0] + r.At(1, 1)*p[1] + r.At(1, 2)*p[2] + params[4]
		z := r.At(2, 0)*p[0] + r.At(2, 1)*p[1] + r.At(2, 2)*p[2] + params[5]
		u, v, ok := cam.Project(x, y, z)
		if !ok {
			return false
		}
		out[2*i] = u - image[i].X
		out[2*i+1] = v - image[i].Y
	}
	return true
}

// numericJacobian fills jac with central differences of the residuals.
func numericJacobian(params [6]float64, object []Vec3, image []l1landmarks.Point, cam Camera, jac *mat.Dense) bool {
	n, _ := jac.Dims()
	plus := make([]float64, n)
	minus := make([]float64, n)
	for j := 0; j < 6; j++ {
		h := 1e-6 * max(1, math.Abs(params[j]))
		hi, lo := params, params
		hi[j] += h
		lo[j] -= h
		if !reprojectionResiduals(hi, object, image, cam, plus) ||
			!reprojectionResiduals(lo, object, image, cam, minus) {
			return false
		}
		for i := 0; i < n; i++ {
			jac.Set(i, j, (plus[i]-minus[i])/(2*h))
		}
	}
	return true
}
