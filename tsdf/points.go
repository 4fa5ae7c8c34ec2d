package tsdf

import (
	"context"
	"sync/atomic"

	"github.com/golang/geo/r3"

	"go.volu.dev/fusion/indexer"
	"go.volu.dev/fusion/pointcloud"
)

// PointsConfig tunes ExtractSurfacePoints.
type PointsConfig struct {
	// MinWeight excludes voxels observed fewer than this many times.
	MinWeight float32
}

// ExtractSurfacePoints walks every voxel of every active block looking
// for a sign change along the +x, +y, or +z voxel edge and emits one
// point per crossing, per spec.md §4.3. It runs in two passes: a sizing
// pass that counts crossings with an atomic counter, and an emission
// pass that claims output slots by atomic index — so the output order
// is nondeterministic across runs but the count is exact.
func (v *Volume) ExtractSurfacePoints(ctx context.Context, cfg PointsConfig) (*pointcloud.Basic, error) {
	active, nt := v.blockNeighborTable()
	vpb := v.Layout.VoxelsPerBlock()
	n := len(active.Keys) * vpb

	var count int64
	countCrossing := func(i int) {
		activeIdx, voxelLinear := indexer.WorkloadIndex(i, v.Layout)
		xv, yv, zv := v.Layout.VoxelCoord(voxelLinear)
		addr := active.Addresses[activeIdx]
		self := v.VoxelAt(addr, voxelLinear)
		if self.GetWeight() < cfg.MinWeight {
			return
		}
		for axis := 0; axis < 3; axis++ {
			nx, ny, nz := xv, yv, zv
			switch axis {
			case 0:
				nx++
			case 1:
				ny++
			case 2:
				nz++
			}
			neighbor := voxelAtOffset(v, active, nt, activeIdx, nx, ny, nz)
			if !neighbor.valid || neighbor.weight < cfg.MinWeight {
				continue
			}
			if signChanges(self.GetTSDF(), neighbor.tsdf) {
				atomic.AddInt64(&count, 1)
			}
		}
	}

	if err := v.Launcher.Launch(ctx, n, countCrossing); err != nil {
		return nil, err
	}

	out := pointcloud.NewBasic(int(count))
	slots := make([]pointcloud.Point, count)
	var slotIdx int64

	emit := func(i int) {
		activeIdx, voxelLinear := indexer.WorkloadIndex(i, v.Layout)
		xv, yv, zv := v.Layout.VoxelCoord(voxelLinear)
		key := active.Keys[activeIdx]
		addr := active.Addresses[activeIdx]
		self := v.VoxelAt(addr, voxelLinear)
		if self.GetWeight() < cfg.MinWeight {
			return
		}
		for axis := 0; axis < 3; axis++ {
			nx, ny, nz := xv, yv, zv
			switch axis {
			case 0:
				nx++
			case 1:
				ny++
			case 2:
				nz++
			}
			neighbor := voxelAtOffset(v, active, nt, activeIdx, nx, ny, nz)
			if !neighbor.valid || neighbor.weight < cfg.MinWeight {
				continue
			}
			if !signChanges(self.GetTSDF(), neighbor.tsdf) {
				continue
			}
			t := float64(self.GetTSDF()) / float64(self.GetTSDF()-neighbor.tsdf)
			fx, fy, fz := 0.0, 0.0, 0.0
			switch axis {
			case 0:
				fx = t
			case 1:
				fy = t
			case 2:
				fz = t
			}
			world := v.voxelWorldPos(key, xv, yv, zv)
			switch axis {
			case 0:
				world.X += fx * v.Config.VoxelSize
			case 1:
				world.Y += fy * v.Config.VoxelSize
			case 2:
				world.Z += fz * v.Config.VoxelSize
			}

			normal, ok := centralDifferenceNormal(v, active, nt, activeIdx, xv, yv, zv, fx, fy, fz)
			if !ok {
				normal = axisFallbackNormal(axis, self.GetTSDF(), neighbor.tsdf)
			}

			slot := atomic.AddInt64(&slotIdx, 1) - 1
			p := pointcloud.Point{Position: world, Normal: normal}
			if self.HasColor() {
				_, r, g, b, cok := trilinearAt(v, active, nt, activeIdx, xv, yv, zv, fx, fy, fz)
				p.HasColor = true
				if cok {
					p.R, p.G, p.B = float32(r), float32(g), float32(b)
				} else {
					p.R, p.G, p.B = self.GetR(), self.GetG(), self.GetB()
				}
			}
			slots[slot] = p
		}
	}

	if err := v.Launcher.Launch(ctx, n, emit); err != nil {
		return nil, err
	}
	for _, p := range slots[:slotIdx] {
		out.Append(p)
	}
	return out, nil
}

func signChanges(a, b float32) bool {
	return (a < 0) != (b < 0)
}

// axisFallbackNormal is used when the central-difference stencil can't
// be fully evaluated (e.g. near an unallocated neighbor block): it
// points along the crossing axis, from the negative side of the
// isosurface toward the positive side.
func axisFallbackNormal(axis int, selfTSDF, neighborTSDF float32) r3.Vector {
	sign := 1.0
	if selfTSDF > neighborTSDF {
		sign = -1
	}
	v := r3.Vector{}
	switch axis {
	case 0:
		v.X = sign
	case 1:
		v.Y = sign
	case 2:
		v.Z = sign
	}
	return v
}
