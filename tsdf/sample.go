package tsdf

import (
	"github.com/golang/geo/r3"

	"go.volu.dev/fusion/block"
)

// sample holds the values read at a single voxel for interpolation
// purposes: TSDF distance, weight, and color (zero if the variant has none).
type sample struct {
	tsdf, weight  float32
	r, g, b       float32
	valid         bool
}

// wrapBlockOffset resolves a within-block-or-one-past-the-edge voxel
// offset into the 27-entry neighbor table slot that holds it, plus the
// coordinate wrapped back into [0, r). Offsets are expected to lie in
// [-1, r] on each axis.
func wrapBlockOffset(r, xv, yv, zv int) (slot, wxv, wyv, wzv int) {
	dx, dy, dz := 0, 0, 0
	if xv < 0 {
		dx = -1
		xv += r
	} else if xv >= r {
		dx = 1
		xv -= r
	}
	if yv < 0 {
		dy = -1
		yv += r
	} else if yv >= r {
		dy = 1
		yv -= r
	}
	if zv < 0 {
		dz = -1
		zv += r
	} else if zv >= r {
		dz = 1
		zv -= r
	}
	return (dx + 1) + 3*(dy+1) + 9*(dz+1), xv, yv, zv
}

// voxelAtOffset fetches the voxel at a within-block offset (xv,yv,zv)
// relative to active-list entry activeIdx, resolving out-of-range
// offsets through the neighbor table — spec.md §4.6's cross-block
// lookup. Offsets are expected to lie within [-1, R] on each axis (one
// voxel outside the block at most), matching the trilinear stencil's
// reach.
func voxelAtOffset(v *Volume, active *block.ActiveList, nt *block.NeighborTable, activeIdx, xv, yv, zv int) sample {
	slot, xv, yv, zv := wrapBlockOffset(v.Layout.Resolution, xv, yv, zv)
	if !nt.Masks[activeIdx][slot] {
		return sample{}
	}
	addr := nt.Indices[activeIdx][slot]
	rec := v.VoxelAt(addr, v.Layout.LinearIndex(xv, yv, zv))
	if rec.GetWeight() == 0 {
		return sample{}
	}
	return sample{
		tsdf:   rec.GetTSDF(),
		weight: rec.GetWeight(),
		r:      rec.GetR(),
		g:      rec.GetG(),
		b:      rec.GetB(),
		valid:  true,
	}
}

// voxelOwnerIndex resolves a within-block-or-adjacent voxel coordinate
// to the active-list position and within-block linear index of the
// block that owns it — used by ExtractSurfaceMesh to find the voxel
// that owns a cube edge shared across a block boundary.
func voxelOwnerIndex(v *Volume, nt *block.NeighborTable, invIdx map[block.Address]int, activeIdx, xv, yv, zv int) (ownerActiveIdx, localLinear int, ok bool) {
	slot, xv, yv, zv := wrapBlockOffset(v.Layout.Resolution, xv, yv, zv)
	if !nt.Masks[activeIdx][slot] {
		return 0, 0, false
	}
	addr := nt.Indices[activeIdx][slot]
	ownerActiveIdx, ok = invIdx[addr]
	if !ok {
		return 0, 0, false
	}
	return ownerActiveIdx, v.Layout.LinearIndex(xv, yv, zv), true
}

// trilinearAt samples the TSDF field at a fractional within-block voxel
// coordinate (xv+fx, yv+fy, zv+fz) using the eight surrounding voxels.
// ok is false if any of the eight corners is unobserved (weight == 0)
// or lies in an unallocated neighbor block.
func trilinearAt(v *Volume, active *block.ActiveList, nt *block.NeighborTable, activeIdx, xv, yv, zv int, fx, fy, fz float64) (tsdfVal float64, r, g, b float64, ok bool) {
	var corners [8]sample
	for i, shift := range cornerShifts {
		corners[i] = voxelAtOffset(v, active, nt, activeIdx, xv+shift[0], yv+shift[1], zv+shift[2])
		if !corners[i].valid {
			return 0, 0, 0, 0, false
		}
	}
	tsdfVal = triInterp(corners, fx, fy, fz, func(s sample) float64 { return float64(s.tsdf) })
	r = triInterp(corners, fx, fy, fz, func(s sample) float64 { return float64(s.r) })
	g = triInterp(corners, fx, fy, fz, func(s sample) float64 { return float64(s.g) })
	b = triInterp(corners, fx, fy, fz, func(s sample) float64 { return float64(s.b) })
	return tsdfVal, r, g, b, true
}

var cornerShifts = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
}

func triInterp(corners [8]sample, fx, fy, fz float64, get func(sample) float64) float64 {
	c00 := get(corners[0])*(1-fx) + get(corners[1])*fx
	c10 := get(corners[2])*(1-fx) + get(corners[3])*fx
	c01 := get(corners[4])*(1-fx) + get(corners[5])*fx
	c11 := get(corners[6])*(1-fx) + get(corners[7])*fx
	c0 := c00*(1-fy) + c10*fy
	c1 := c01*(1-fy) + c11*fy
	return c0*(1-fz) + c1*fz
}

// centralDifferenceNormal estimates the surface normal at a fractional
// within-block voxel coordinate via central differences of the
// trilinearly interpolated TSDF field, per spec.md §4.3/§4.6. Each
// difference sample interpolates over the observed corners only, with
// their trilinear weights renormalized; a sample with no observed
// corner makes the estimate fail.
func centralDifferenceNormal(v *Volume, active *block.ActiveList, nt *block.NeighborTable, activeIdx, xv, yv, zv int, fx, fy, fz float64) (r3.Vector, bool) {
	const h = 0.5

	sampleAt := func(ox, oy, oz float64) (float64, bool) {
		gx := float64(xv) + fx + ox
		gy := float64(yv) + fy + oy
		gz := float64(zv) + fz + oz
		ix, iy, iz := int(floor(gx)), int(floor(gy)), int(floor(gz))
		lfx, lfy, lfz := gx-float64(ix), gy-float64(iy), gz-float64(iz)
		var sum, wsum float64
		for _, sh := range cornerShifts {
			c := voxelAtOffset(v, active, nt, activeIdx, ix+sh[0], iy+sh[1], iz+sh[2])
			w := (float64(sh[0])*lfx + float64(1-sh[0])*(1-lfx)) *
				(float64(sh[1])*lfy + float64(1-sh[1])*(1-lfy)) *
				(float64(sh[2])*lfz + float64(1-sh[2])*(1-lfz))
			if c.valid {
				sum, wsum = sum+w*float64(c.tsdf), wsum+w
			}
		}
		if wsum == 0 {
			return 0, false
		}
		return sum / wsum, true
	}

	xp, ok1 := sampleAt(h, 0, 0)
	xm, ok2 := sampleAt(-h, 0, 0)
	yp, ok3 := sampleAt(0, h, 0)
	ym, ok4 := sampleAt(0, -h, 0)
	zp, ok5 := sampleAt(0, 0, h)
	zm, ok6 := sampleAt(0, 0, -h)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return r3.Vector{}, false
	}
	n := r3.Vector{X: xp - xm, Y: yp - ym, Z: zp - zm}
	if n.Norm() == 0 {
		return r3.Vector{}, false
	}
	return n.Normalize(), true
}

func floor(f float64) float64 {
	i := int(f)
	if f < 0 && float64(i) != f {
		i--
	}
	return float64(i)
}
