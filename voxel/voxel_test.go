package voxel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTSDFVoxel_Integrate_WeightedAverage(t *testing.T) {
	v := NewTSDFVoxel()
	v.Integrate(0.5)
	assert.InDelta(t, 0.5, v.GetTSDF(), 1e-6)
	assert.InDelta(t, 1, v.GetWeight(), 1e-6)

	v.Integrate(-0.5)
	assert.InDelta(t, 0, v.GetTSDF(), 1e-6)
	assert.InDelta(t, 2, v.GetWeight(), 1e-6)
	assert.False(t, v.HasColor())
}

func TestTSDFVoxel_Integrate_ClampsAtMaxWeight(t *testing.T) {
	v := NewTSDFVoxel()
	v.MaxWeight = 2
	v.Integrate(1)
	v.Integrate(1)
	v.Integrate(1)
	require.InDelta(t, 2, v.GetWeight(), 1e-6)
}

func TestColorTSDFVoxel_IntegrateColor(t *testing.T) {
	v := NewColorTSDFVoxel()
	v.IntegrateColor(0.5, 1, 0, 0)
	v.IntegrateColor(-0.5, 0, 1, 0)

	assert.True(t, v.HasColor())
	assert.InDelta(t, 0, v.GetTSDF(), 1e-6)
	assert.InDelta(t, 0.5, v.GetR(), 1e-6)
	assert.InDelta(t, 0.5, v.GetG(), 1e-6)
	assert.InDelta(t, 0, v.GetB(), 1e-6)
}

func TestColorTSDFVoxel_Integrate_LeavesColorUntouched(t *testing.T) {
	v := NewColorTSDFVoxel()
	v.IntegrateColor(0, 1, 1, 1)
	v.Integrate(0.2)
	assert.InDelta(t, 1, v.GetR(), 1e-6)
}

func TestElementSize_DistinguishesVariants(t *testing.T) {
	assert.NotEqual(t, SizeTSDFOnly, SizeTSDFColor)
}
