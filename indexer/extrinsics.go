package indexer

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Extrinsics is a 4x4 world->camera rigid transform, stored the way the
// teacher's rimage/transform/cam_poses.go stores camera poses: as a
// gonum *mat.Dense.
type Extrinsics struct {
	// M is the 4x4 homogeneous world->camera matrix.
	M *mat.Dense
}

// Identity returns the identity extrinsics (world frame == camera frame).
func Identity() *Extrinsics {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return &Extrinsics{M: m}
}

// NewExtrinsics builds an Extrinsics from a 3x3 rotation and a translation.
func NewExtrinsics(rot *mat.Dense, t r3.Vector) *Extrinsics {
	m := mat.NewDense(4, 4, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, rot.At(r, c))
		}
	}
	m.Set(0, 3, t.X)
	m.Set(1, 3, t.Y)
	m.Set(2, 3, t.Z)
	m.Set(3, 3, 1)
	return &Extrinsics{M: m}
}

// RigidTransform applies the world->camera transform to a world point.
func (e *Extrinsics) RigidTransform(p r3.Vector) r3.Vector {
	x := e.M.At(0, 0)*p.X + e.M.At(0, 1)*p.Y + e.M.At(0, 2)*p.Z + e.M.At(0, 3)
	y := e.M.At(1, 0)*p.X + e.M.At(1, 1)*p.Y + e.M.At(1, 2)*p.Z + e.M.At(1, 3)
	z := e.M.At(2, 0)*p.X + e.M.At(2, 1)*p.Y + e.M.At(2, 2)*p.Z + e.M.At(2, 3)
	return r3.Vector{X: x, Y: y, Z: z}
}

// Rotate applies only the linear (rotation) part of the transform,
// without translation — used for RayCast's normal rotation into camera
// frame and for ray-direction unprojection.
func (e *Extrinsics) Rotate(v r3.Vector) r3.Vector {
	x := e.M.At(0, 0)*v.X + e.M.At(0, 1)*v.Y + e.M.At(0, 2)*v.Z
	y := e.M.At(1, 0)*v.X + e.M.At(1, 1)*v.Y + e.M.At(1, 2)*v.Z
	z := e.M.At(2, 0)*v.X + e.M.At(2, 1)*v.Y + e.M.At(2, 2)*v.Z
	return r3.Vector{X: x, Y: y, Z: z}
}

// Inverse returns the inverse rigid transform (camera->world), used by
// RayCast to reconstruct world-space ray origin/direction from camera
// space.
func (e *Extrinsics) Inverse() *Extrinsics {
	var inv mat.Dense
	if err := inv.Inverse(e.M); err != nil {
		// A rigid transform is always invertible; fall back to the
		// transpose-based rigid inverse if the generic solve is
		// numerically unhappy.
		rot := mat.NewDense(3, 3, nil)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				rot.Set(r, c, e.M.At(c, r))
			}
		}
		t := r3.Vector{X: e.M.At(0, 3), Y: e.M.At(1, 3), Z: e.M.At(2, 3)}
		negRt := r3.Vector{
			X: -(rot.At(0, 0)*t.X + rot.At(0, 1)*t.Y + rot.At(0, 2)*t.Z),
			Y: -(rot.At(1, 0)*t.X + rot.At(1, 1)*t.Y + rot.At(1, 2)*t.Z),
			Z: -(rot.At(2, 0)*t.X + rot.At(2, 1)*t.Y + rot.At(2, 2)*t.Z),
		}
		return NewExtrinsics(rot, negRt)
	}
	return &Extrinsics{M: &inv}
}
