package tsdf

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/golang/geo/r3"

	"go.volu.dev/fusion/image"
	"go.volu.dev/fusion/indexer"
)

// RangeMap holds, per output tile, the min/max ray-marching depth to
// try before falling back to the frame's near/far defaults — the
// coarse acceleration structure spec.md §4.5 describes.
type RangeMap struct {
	TileSize     int
	TilesX       int
	TilesY       int
	minDepthBits []uint32
	maxDepthBits []uint32
}

// NewRangeMap allocates a range map covering a width x height image at
// the given tile size, with every tile initialized to [+Inf, -Inf] so
// the first observed active block always widens the range.
func NewRangeMap(width, height, tileSize int) *RangeMap {
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize
	n := tilesX * tilesY
	rm := &RangeMap{
		TileSize:     tileSize,
		TilesX:       tilesX,
		TilesY:       tilesY,
		minDepthBits: make([]uint32, n),
		maxDepthBits: make([]uint32, n),
	}
	for i := range rm.minDepthBits {
		rm.minDepthBits[i] = math.Float32bits(float32(math.Inf(1)))
		rm.maxDepthBits[i] = math.Float32bits(float32(math.Inf(-1)))
	}
	return rm
}

// Range returns the current [min, max] depth estimate for the tile
// containing pixel (px, py).
func (rm *RangeMap) Range(px, py int) (min, max float32) {
	tx, ty := px/rm.TileSize, py/rm.TileSize
	i := ty*rm.TilesX + tx
	return math.Float32frombits(rm.minDepthBits[i]), math.Float32frombits(rm.maxDepthBits[i])
}

func atomicMinFloat32(bitsSlice []uint32, i int, val float32) {
	valBits := math.Float32bits(val)
	for {
		old := atomic.LoadUint32(&bitsSlice[i])
		if math.Float32frombits(old) <= val {
			return
		}
		if atomic.CompareAndSwapUint32(&bitsSlice[i], old, valBits) {
			return
		}
	}
}

func atomicMaxFloat32(bitsSlice []uint32, i int, val float32) {
	valBits := math.Float32bits(val)
	for {
		old := atomic.LoadUint32(&bitsSlice[i])
		if math.Float32frombits(old) >= val {
			return
		}
		if atomic.CompareAndSwapUint32(&bitsSlice[i], old, valBits) {
			return
		}
	}
}

// estimateRangeFragmentCapacity bounds the fragment buffer EstimateRange
// allocates per call (F in spec.md §4.5). A fragment pass that needs
// more than this many 16x16 tiles drops the remainder and logs a
// diagnostic rather than growing unboundedly.
const estimateRangeFragmentCapacity = 1 << 16

// fragmentTile is the fixed subdivision size spec.md §4.5 mandates for
// breaking a block's pixel-space bounding rectangle into fragments.
const fragmentTile = 16

// rangeFragment is one 16x16-pixel (or smaller, at a rectangle edge)
// tile of a single active block's projected bounding rectangle, queued
// by the fragment pass for the accumulate pass to widen the range map
// with.
type rangeFragment struct {
	zMin, zMax             float32
	uMin, vMin, uMax, vMax int
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EstimateRange implements spec.md §4.5's fragment/tile pass: project
// every active block's 8 corners into the camera, compute its
// pixel-space bounding rectangle and conservative [min, max] camera-Z
// range over the whole block, subdivide the rectangle into 16x16
// fragments (queued into a fixed-capacity buffer, dropping and logging
// on overflow), then widen every range-map tile covered by each
// fragment in a second, pixel-parallel accumulate pass.
func (v *Volume) EstimateRange(ctx context.Context, intrinsics indexer.Intrinsics, extrinsics *indexer.Extrinsics, rm *RangeMap) error {
	active := v.ActiveKeys()
	r := v.Layout.Resolution

	frags := make([]rangeFragment, estimateRangeFragmentCapacity)
	var fragCount int64
	var overflowed int32

	fragmentPass := func(i int) {
		key := active[i]
		minU, minV := math.Inf(1), math.Inf(1)
		maxU, maxV := math.Inf(-1), math.Inf(-1)
		zMin, zMax := math.Inf(1), math.Inf(-1)
		anyCorner := false
		for c := 0; c < 8; c++ {
			shift := cornerShifts8[c]
			world := v.voxelWorldPos(key, shift[0]*r, shift[1]*r, shift[2]*r)
			cam := extrinsics.RigidTransform(world)
			if cam.Z <= 0 {
				continue
			}
			u, vv := intrinsics.Project(cam.X, cam.Y, cam.Z)
			anyCorner = true
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, vv), math.Max(maxV, vv)
			zMin, zMax = math.Min(zMin, cam.Z), math.Max(zMax, cam.Z)
		}
		if !anyCorner {
			return
		}
		uLo := clampInt(int(math.Floor(minU)), 0, intrinsics.Width-1)
		uHi := clampInt(int(math.Ceil(maxU)), 0, intrinsics.Width-1)
		vLo := clampInt(int(math.Floor(minV)), 0, intrinsics.Height-1)
		vHi := clampInt(int(math.Ceil(maxV)), 0, intrinsics.Height-1)
		if uHi < uLo || vHi < vLo {
			return
		}

		for ty := vLo; ty <= vHi; ty += fragmentTile {
			for tx := uLo; tx <= uHi; tx += fragmentTile {
				slot := atomic.AddInt64(&fragCount, 1) - 1
				if slot >= estimateRangeFragmentCapacity {
					if atomic.CompareAndSwapInt32(&overflowed, 0, 1) {
						v.Log.Warnw("range map fragment buffer overflow, range estimate may be incomplete",
							"capacity", estimateRangeFragmentCapacity)
					}
					return
				}
				frags[slot] = rangeFragment{
					zMin: float32(zMin),
					zMax: float32(zMax),
					uMin: tx,
					vMin: ty,
					uMax: clampInt(tx+fragmentTile, 0, uHi+1),
					vMax: clampInt(ty+fragmentTile, 0, vHi+1),
				}
			}
		}
	}
	if err := v.Launcher.Launch(ctx, len(active), fragmentPass); err != nil {
		return err
	}

	n := int(fragCount)
	if n > estimateRangeFragmentCapacity {
		n = estimateRangeFragmentCapacity
	}
	if n == 0 {
		return nil
	}

	accumulate := func(i int) {
		fragIdx := i / (fragmentTile * fragmentTile)
		local := i % (fragmentTile * fragmentTile)
		frag := frags[fragIdx]
		px := frag.uMin + local%fragmentTile
		py := frag.vMin + local/fragmentTile
		if px >= frag.uMax || py >= frag.vMax || !intrinsics.InBounds(px, py) {
			return
		}
		tx, ty := px/rm.TileSize, py/rm.TileSize
		idx := ty*rm.TilesX + tx
		atomicMinFloat32(rm.minDepthBits, idx, frag.zMin)
		atomicMaxFloat32(rm.maxDepthBits, idx, frag.zMax)
	}
	return v.Launcher.Launch(ctx, n*fragmentTile*fragmentTile, accumulate)
}

var cornerShifts8 = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
}

// RayCastConfig tunes RayCast.
type RayCastConfig struct {
	StepMeters      float64
	MaxSteps        int
	NearDefault     float64
	FarDefault      float64
}

// RayCast marches one ray per output pixel from the camera through the
// range map's estimated depth interval, stepping by StepMeters and
// stopping at the first positive-to-non-positive TSDF zero crossing, then
// refines the hit by linear interpolation and writes interpolated
// position (depth), camera-frame normal (central differences, rotated
// by extrinsics per spec.md §4.5.c), and (if available) color into the
// output depth/normal/color images, per spec.md §4.5-4.6. Pixels with
// no hit are left at zero depth with no normal written.
func (v *Volume) RayCast(ctx context.Context, intrinsics indexer.Intrinsics, extrinsics *indexer.Extrinsics, rm *RangeMap, cfg RayCastConfig) (*image.DepthMap, *image.ColorImage, *image.NormalMap, error) {
	active, nt := v.blockNeighborTable()
	invIdx := active.InvIndex()

	out := image.NewDepthMap(intrinsics.Width, intrinsics.Height, 1.0)
	outColor := image.NewColorImage(intrinsics.Width, intrinsics.Height)
	outNormal := image.NewNormalMap(intrinsics.Width, intrinsics.Height)
	camToWorld := extrinsics.Inverse()

	n := intrinsics.Width * intrinsics.Height
	err := v.Launcher.Launch(ctx, n, func(i int) {
		px := i % intrinsics.Width
		py := i / intrinsics.Width

		minD, maxD := rm.Range(px, py)
		near, far := float64(minD), float64(maxD)
		if math.IsInf(near, 1) || math.IsInf(far, -1) {
			near, far = cfg.NearDefault, cfg.FarDefault
		}
		if near <= 0 {
			near = cfg.NearDefault
		}
		if far <= near {
			far = near + cfg.StepMeters
		}

		xc, yc, zc := intrinsics.Unproject(float64(px)+0.5, float64(py)+0.5, 1.0)
		dirCam := r3.Vector{X: xc, Y: yc, Z: zc}.Normalize()
		dirWorld := camToWorld.Rotate(dirCam)
		origin := camToWorld.RigidTransform(r3.Vector{})

		step := cfg.StepMeters
		maxSteps := cfg.MaxSteps
		if maxSteps <= 0 {
			maxSteps = int((far-near)/step) + 1
		}

		var prevT, prevTSDF float64
		havePrev := false
		for s := 0; s < maxSteps; s++ {
			t := near + float64(s)*step
			if t > far {
				break
			}
			p := origin.Add(dirWorld.Mul(t))
			key := indexer.WorldToBlockKey(p, v.Layout, v.Config.VoxelSize)
			addr, ok := v.HashMap.Find(key)
			if !ok {
				havePrev = false
				continue
			}
			activeIdx, ok := invIdx[addr]
			if !ok {
				havePrev = false
				continue
			}
			xv, yv, zv, fx, fy, fz := indexer.WorldToVoxelOffset(p, key, v.Layout, v.Config.VoxelSize)
			tsdfVal, _, _, _, ok := trilinearAt(v, active, nt, activeIdx, xv, yv, zv, fx, fy, fz)
			if !ok {
				havePrev = false
				continue
			}

			if havePrev && prevTSDF > 0 && tsdfVal <= 0 {
				denom := prevTSDF - tsdfVal
				var frac float64
				if denom != 0 {
					frac = prevTSDF / denom
				}
				hitT := prevT + frac*(t-prevT)
				out.Set(px, py, float32(hitT))
				hitP := origin.Add(dirWorld.Mul(hitT))
				hitKey := indexer.WorldToBlockKey(hitP, v.Layout, v.Config.VoxelSize)
				if hitAddr, ok := v.HashMap.Find(hitKey); ok {
					if hitActiveIdx, ok := invIdx[hitAddr]; ok {
						hxv, hyv, hzv, hfx, hfy, hfz := indexer.WorldToVoxelOffset(hitP, hitKey, v.Layout, v.Config.VoxelSize)
						_, hr, hg, hb, cok := trilinearAt(v, active, nt, hitActiveIdx, hxv, hyv, hzv, hfx, hfy, hfz)
						if cok {
							outColor.SetColor(px, py, float32(hr), float32(hg), float32(hb))
						}
						if normalWorld, nok := centralDifferenceNormal(v, active, nt, hitActiveIdx, hxv, hyv, hzv, hfx, hfy, hfz); nok {
							normalCam := extrinsics.Rotate(normalWorld)
							outNormal.SetNormal(px, py, float32(normalCam.X), float32(normalCam.Y), float32(normalCam.Z))
						}
					}
				}
				return
			}
			prevT, prevTSDF, havePrev = t, tsdfVal, true
		}
	})
	return out, outColor, outNormal, err
}
