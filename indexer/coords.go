package indexer

import (
	"math"

	"github.com/golang/geo/r3"
	"go.volu.dev/fusion/block"
)

// WorkloadIndex decomposes a linear [0, A*R^3) workload index into an
// active-block position and a within-block voxel linear index, per
// spec.md §4.2 step 1.
func WorkloadIndex(i int, layout block.Layout) (activeIdx, voxelLinear int) {
	vpb := layout.VoxelsPerBlock()
	return i / vpb, i % vpb
}

// BlockVoxelToWorld converts a voxel coordinate within a block to a
// world-space point in meters.
func BlockVoxelToWorld(key block.Key, xv, yv, zv int, layout block.Layout, voxelSize float64) r3.Vector {
	r := layout.Resolution
	return r3.Vector{
		X: float64(int(key.BX)*r+xv) * voxelSize,
		Y: float64(int(key.BY)*r+yv) * voxelSize,
		Z: float64(int(key.BZ)*r+zv) * voxelSize,
	}
}

// WorldToBlockKey returns the block key containing the given world point.
func WorldToBlockKey(p r3.Vector, layout block.Layout, voxelSize float64) block.Key {
	blockSize := voxelSize * float64(layout.Resolution)
	return block.Key{
		BX: int32(math.Floor(p.X / blockSize)),
		BY: int32(math.Floor(p.Y / blockSize)),
		BZ: int32(math.Floor(p.Z / blockSize)),
	}
}

// WorldToVoxelOffset returns the integer voxel coordinate within the
// block containing p, plus the fractional remainder for interpolation.
func WorldToVoxelOffset(p r3.Vector, key block.Key, layout block.Layout, voxelSize float64) (xv, yv, zv int, fx, fy, fz float64) {
	r := layout.Resolution
	ox := p.X/voxelSize - float64(int(key.BX)*r)
	oy := p.Y/voxelSize - float64(int(key.BY)*r)
	oz := p.Z/voxelSize - float64(int(key.BZ)*r)
	xv = int(math.Floor(ox))
	yv = int(math.Floor(oy))
	zv = int(math.Floor(oz))
	fx = ox - float64(xv)
	fy = oy - float64(yv)
	fz = oz - float64(zv)
	return
}
