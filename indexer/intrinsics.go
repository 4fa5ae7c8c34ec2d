// Package indexer provides the thin arithmetic helpers that translate
// between linear workload index, (block, voxel) coordinates, world
// coordinates, camera coordinates, and pixel coordinates — the shared
// conventions all four TSDF kernels must agree on.
package indexer

import (
	"github.com/pkg/errors"
)

// ErrNoIntrinsics is returned when intrinsics are missing or invalid,
// matching the teacher's rimage/transform.ErrNoIntrinsics sentinel.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// Intrinsics holds the 3x3 pinhole camera intrinsics.
type Intrinsics struct {
	Width, Height int
	Fx, Fy        float64
	Ppx, Ppy      float64
}

// CheckValid validates the intrinsics, in the teacher's CheckValid idiom.
func (in *Intrinsics) CheckValid() error {
	if in == nil {
		return errors.Wrap(ErrNoIntrinsics, "intrinsics are nil")
	}
	if in.Width <= 0 || in.Height <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid size (%d, %d)", in.Width, in.Height)
	}
	if in.Fx <= 0 || in.Fy <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid focal length (%v, %v)", in.Fx, in.Fy)
	}
	return nil
}

// Project maps a camera-space point to a pixel coordinate. Per spec.md
// §9's preserved open question, the caller truncates toward the origin
// (does not round) when converting to an integer pixel index — see
// TruncatePixel.
func (in *Intrinsics) Project(xc, yc, zc float64) (u, v float64) {
	u = (xc/zc)*in.Fx + in.Ppx
	v = (yc/zc)*in.Fy + in.Ppy
	return
}

// Unproject maps a pixel coordinate with depth to a camera-space point.
func (in *Intrinsics) Unproject(u, v, depth float64) (xc, yc, zc float64) {
	xc = (u - in.Ppx) / in.Fx * depth
	yc = (v - in.Ppy) / in.Fy * depth
	zc = depth
	return
}

// TruncatePixel truncates a float pixel coordinate toward the origin
// (int64(u) in the source), rather than rounding. This is an explicit,
// documented divergence point per spec.md §9's open question.
func TruncatePixel(u float64) int {
	return int(u)
}

// InBounds reports whether an integer pixel coordinate lies inside the
// intrinsics' image bounds.
func (in *Intrinsics) InBounds(px, py int) bool {
	return px >= 0 && px < in.Width && py >= 0 && py < in.Height
}
