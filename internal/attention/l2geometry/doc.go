// Package l2geometry owns Layer 2 of the attention data model: the
// geometric signals derived from one frame's landmarks.
//
// Responsibilities: eye and mouth aspect ratios, the iris gaze proxy, and
// head pose from a perspective-n-point solve against a canonical face model.
// Key types: Solver, Geometry, Camera, Pose.
//
// Dependency rule: L2 may depend on L1 only. A failed pose solve is reported
// as ErrPoseSolveFailure; every other degenerate input is absorbed by
// epsilon-guarded denominators.
package l2geometry
