// Package tsdf implements the four sparse TSDF kernels — Integrate,
// ExtractSurfacePoints, ExtractSurfaceMesh, and EstimateRange+RayCast —
// against the shared sparse block layout in package block. It is the
// only package that imports all the others, matching the dependency
// order documented in SPEC_FULL.md.
package tsdf

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.volu.dev/fusion/block"
	"go.volu.dev/fusion/execute"
	"go.volu.dev/fusion/hashmap"
	"go.volu.dev/fusion/logging"
	"go.volu.dev/fusion/voxel"
)

// Config holds the fixed, per-volume parameters every kernel reads:
// voxel size, truncation distance, and integration weight cap.
type Config struct {
	VoxelSize        float64
	TruncationMeters float64
	MaxWeight        float32
	// DepthMax rejects any depth sample farther than this, per spec.md
	// §4.2 step 6 — keeps sensor noise and far-plane garbage out of the
	// volume even when it lands within the truncation band.
	DepthMax float64
	// UseColor selects the voxel.ColorTSDFVoxel variant; when false the
	// volume uses the smaller voxel.TSDFVoxel variant. AllocateBlock
	// reads this flag; the kernels check voxel.Record.HasColor on each
	// record. voxel.ElementSize is not consulted.
	UseColor bool
}

// CheckValid validates the configuration, in the teacher's CheckValid idiom.
func (c Config) CheckValid() error {
	if c.VoxelSize <= 0 {
		return errors.Errorf("voxel size must be positive, got %v", c.VoxelSize)
	}
	if c.TruncationMeters <= 0 {
		return errors.Errorf("truncation distance must be positive, got %v", c.TruncationMeters)
	}
	if c.MaxWeight <= 0 {
		return errors.Errorf("max weight must be positive, got %v", c.MaxWeight)
	}
	if c.DepthMax <= 0 {
		return errors.Errorf("depth max must be positive, got %v", c.DepthMax)
	}
	return nil
}

// Volume is a sparse TSDF volume: a block layout, a hash map from block
// key to address, per-block voxel storage, and the launcher every
// kernel dispatches through.
type Volume struct {
	Config   Config
	Layout   block.Layout
	HashMap  *hashmap.Concurrent
	Launcher execute.Launcher
	Log      logging.Logger

	blocks [][]voxel.Record
	keys   []block.Key
}

// NewVolume constructs an empty sparse volume with the given block
// resolution (voxels per edge).
func NewVolume(cfg Config, resolution int) *Volume {
	return &Volume{
		Config:   cfg,
		Layout:   block.Layout{Resolution: resolution},
		HashMap:  hashmap.New(),
		Launcher: execute.HostLauncher{},
		Log:      logging.Global().Named("tsdf"),
	}
}

// AllocateBlock creates a new empty voxel block at key if one does not
// already exist, and returns its address. Block allocation is an
// external, sequential collaborator operation per spec.md §3 — never
// performed by a kernel mid-launch.
func (v *Volume) AllocateBlock(key block.Key) block.Address {
	if addr, ok := v.HashMap.Find(key); ok {
		return addr
	}
	addr := block.Address(len(v.blocks))
	vpb := v.Layout.VoxelsPerBlock()
	records := make([]voxel.Record, vpb)
	for i := range records {
		if v.Config.UseColor {
			r := voxel.NewColorTSDFVoxel()
			r.MaxWeight = v.Config.MaxWeight
			records[i] = r
		} else {
			r := voxel.NewTSDFVoxel()
			r.MaxWeight = v.Config.MaxWeight
			records[i] = r
		}
	}
	v.blocks = append(v.blocks, records)
	v.keys = append(v.keys, key)
	v.HashMap.Allocate(key, addr)
	return addr
}

// ActiveKeys returns the keys of every allocated block, in allocation order.
func (v *Volume) ActiveKeys() []block.Key {
	out := make([]block.Key, len(v.keys))
	copy(out, v.keys)
	return out
}

// VoxelAt returns the voxel record at (address, voxel linear index).
func (v *Volume) VoxelAt(addr block.Address, voxelLinear int) voxel.Record {
	return v.blocks[addr][voxelLinear]
}

// blockNeighborTable builds a fresh 27-entry neighbor table over every
// currently active block, the read-only collaborator every kernel that
// crosses block boundaries consults (spec.md §3).
func (v *Volume) blockNeighborTable() (*block.ActiveList, *block.NeighborTable) {
	active := &block.ActiveList{Keys: v.ActiveKeys()}
	active.Addresses = make([]block.Address, len(active.Keys))
	for i, k := range active.Keys {
		addr, _ := v.HashMap.Find(k)
		active.Addresses[i] = addr
	}
	nt := block.BuildNeighborTable(active.Keys, v.HashMap)
	return active, nt
}

// voxelWorldPos returns the world-space position (meters) of a voxel
// given its block key and within-block coordinate.
func (v *Volume) voxelWorldPos(key block.Key, xv, yv, zv int) r3.Vector {
	r := v.Layout.Resolution
	return r3.Vector{
		X: (float64(int(key.BX)*r+xv) + 0.5) * v.Config.VoxelSize,
		Y: (float64(int(key.BY)*r+yv) + 0.5) * v.Config.VoxelSize,
		Z: (float64(int(key.BZ)*r+zv) + 0.5) * v.Config.VoxelSize,
	}
}

// blockCornerWorldPos returns the world position of the voxel-grid
// corner (not center) at fractional within-block coordinate (gx,gy,gz),
// used by Marching Cubes edge interpolation where positions fall
// between voxel centers.
func (v *Volume) blockCornerWorldPos(key block.Key, gx, gy, gz float64) r3.Vector {
	r := v.Layout.Resolution
	return r3.Vector{
		X: (float64(int(key.BX)*r) + gx) * v.Config.VoxelSize,
		Y: (float64(int(key.BY)*r) + gy) * v.Config.VoxelSize,
		Z: (float64(int(key.BZ)*r) + gz) * v.Config.VoxelSize,
	}
}

