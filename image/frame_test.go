package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthMap_SetAndGet(t *testing.T) {
	d := NewDepthMap(4, 3, 1000)
	require.NoError(t, d.Set(1, 2, 500))

	raw, ok := d.GetDepth(1, 2)
	require.True(t, ok)
	assert.Equal(t, float32(500), raw)

	meters, ok := d.GetDepthMeters(1, 2)
	require.True(t, ok)
	assert.InDelta(t, 0.5, meters, 1e-9)
}

func TestDepthMap_OutOfBounds(t *testing.T) {
	d := NewDepthMap(4, 3, 1000)
	assert.Error(t, d.Set(4, 0, 1))
	assert.Error(t, d.Set(0, -1, 1))

	_, ok := d.GetDepth(10, 10)
	assert.False(t, ok)
	_, ok = d.GetDepthMeters(10, 10)
	assert.False(t, ok)
}

func TestDepthMap_Clone(t *testing.T) {
	d := NewDepthMap(2, 2, 1000)
	require.NoError(t, d.Set(0, 0, 42))

	clone := d.Clone()
	require.NoError(t, clone.Set(0, 0, 7))

	raw, _ := d.GetDepth(0, 0)
	assert.Equal(t, float32(42), raw, "mutating the clone must not affect the original")

	cloneRaw, _ := clone.GetDepth(0, 0)
	assert.Equal(t, float32(7), cloneRaw)
}

func TestColorImage_SetAndGet(t *testing.T) {
	c := NewColorImage(3, 3)
	require.NoError(t, c.SetColor(1, 1, 0.1, 0.2, 0.3))

	r, g, b, ok := c.GetColor(1, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.1, r, 1e-6)
	assert.InDelta(t, 0.2, g, 1e-6)
	assert.InDelta(t, 0.3, b, 1e-6)
}

func TestColorImage_OutOfBounds(t *testing.T) {
	c := NewColorImage(3, 3)
	assert.Error(t, c.SetColor(3, 0, 1, 1, 1))

	_, _, _, ok := c.GetColor(-1, 0)
	assert.False(t, ok)
}

func TestColorImage_Clone(t *testing.T) {
	c := NewColorImage(2, 2)
	require.NoError(t, c.SetColor(0, 0, 1, 1, 1))

	clone := c.Clone()
	require.NoError(t, clone.SetColor(0, 0, 0, 0, 0))

	r, g, b, _ := c.GetColor(0, 0)
	assert.Equal(t, [3]float32{1, 1, 1}, [3]float32{r, g, b})
}
