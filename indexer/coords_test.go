package indexer

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"

	"go.volu.dev/fusion/block"
)

func TestWorkloadIndex(t *testing.T) {
	layout := block.Layout{Resolution: 8}
	vpb := layout.VoxelsPerBlock()
	activeIdx, voxelLinear := WorkloadIndex(vpb+5, layout)
	assert.Equal(t, 1, activeIdx)
	assert.Equal(t, 5, voxelLinear)
}

func TestWorldToBlockKey_And_VoxelOffset_RoundTrip(t *testing.T) {
	layout := block.Layout{Resolution: 8}
	voxelSize := 0.01
	key := block.Key{BX: 2, BY: -1, BZ: 0}
	world := BlockVoxelToWorld(key, 3, 4, 5, layout, voxelSize)

	gotKey := WorldToBlockKey(world, layout, voxelSize)
	assert.Equal(t, key, gotKey)

	xv, yv, zv, fx, fy, fz := WorldToVoxelOffset(world, key, layout, voxelSize)
	assert.Equal(t, 3, xv)
	assert.Equal(t, 4, yv)
	assert.Equal(t, 5, zv)
	assert.InDelta(t, 0, fx, 1e-9)
	assert.InDelta(t, 0, fy, 1e-9)
	assert.InDelta(t, 0, fz, 1e-9)
}

func TestWorldToBlockKey_NegativeCoordinatesFloor(t *testing.T) {
	layout := block.Layout{Resolution: 8}
	voxelSize := 0.1
	p := r3.Vector{X: -0.05, Y: -0.05, Z: -0.05}
	key := WorldToBlockKey(p, layout, voxelSize)
	assert.Equal(t, int32(-1), key.BX)
}
