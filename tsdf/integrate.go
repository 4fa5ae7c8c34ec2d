package tsdf

import (
	"context"

	"go.volu.dev/fusion/image"
	"go.volu.dev/fusion/indexer"
)

// Frame is one posed RGB-D observation fed to Integrate.
type Frame struct {
	Depth      *image.DepthMap
	Color      *image.ColorImage // nil for a depth-only frame
	Intrinsics indexer.Intrinsics
	Extrinsics *indexer.Extrinsics // world->camera
}

// Integrate fuses a single posed RGB-D frame into every voxel of every
// currently active block, per spec.md §4.2: one goroutine task per
// (active block, voxel) pair, projecting the voxel's world position
// into the frame and updating the running-average TSDF (and color, if
// both the frame and the voxel variant carry it).
func (v *Volume) Integrate(ctx context.Context, frame Frame) error {
	if err := frame.Intrinsics.CheckValid(); err != nil {
		return err
	}
	active := v.ActiveKeys()
	vpb := v.Layout.VoxelsPerBlock()
	n := len(active) * vpb

	return v.Launcher.Launch(ctx, n, func(i int) {
		activeIdx, voxelLinear := indexer.WorkloadIndex(i, v.Layout)
		key := active[activeIdx]
		xv, yv, zv := v.Layout.VoxelCoord(voxelLinear)

		world := v.voxelWorldPos(key, xv, yv, zv)
		cam := frame.Extrinsics.RigidTransform(world)
		if cam.Z <= 0 {
			return
		}
		uPix, vPix := frame.Intrinsics.Project(cam.X, cam.Y, cam.Z)
		px := indexer.TruncatePixel(uPix)
		py := indexer.TruncatePixel(vPix)
		if !frame.Intrinsics.InBounds(px, py) {
			return
		}
		depthMeters, ok := frame.Depth.GetDepthMeters(px, py)
		if !ok || depthMeters <= 0 {
			return
		}
		if depthMeters > v.Config.DepthMax {
			return
		}

		sdf := depthMeters - cam.Z
		if sdf < -v.Config.TruncationMeters {
			return
		}
		sdfNorm := sdf / v.Config.TruncationMeters
		if sdfNorm > 1 {
			sdfNorm = 1
		}

		addr, ok := v.HashMap.Find(key)
		if !ok {
			return
		}
		rec := v.blocks[addr][voxelLinear]

		if frame.Color != nil && rec.HasColor() {
			r, g, b, ok := frame.Color.GetColor(px, py)
			if ok {
				rec.IntegrateColor(float32(sdfNorm), r, g, b)
				return
			}
		}
		rec.Integrate(float32(sdfNorm))
	})
}
