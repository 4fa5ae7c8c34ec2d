package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrinsics_CheckValid(t *testing.T) {
	valid := &Intrinsics{Width: 640, Height: 480, Fx: 500, Fy: 500, Ppx: 320, Ppy: 240}
	require.NoError(t, valid.CheckValid())

	var nilIn *Intrinsics
	assert.ErrorIs(t, nilIn.CheckValid(), ErrNoIntrinsics)

	bad := &Intrinsics{Width: 0, Height: 480, Fx: 500, Fy: 500}
	assert.ErrorIs(t, bad.CheckValid(), ErrNoIntrinsics)

	badFocal := &Intrinsics{Width: 640, Height: 480, Fx: 0, Fy: 500}
	assert.ErrorIs(t, badFocal.CheckValid(), ErrNoIntrinsics)
}

func TestIntrinsics_ProjectUnproject_RoundTrip(t *testing.T) {
	in := &Intrinsics{Width: 640, Height: 480, Fx: 500, Fy: 500, Ppx: 320, Ppy: 240}
	xc, yc, zc := 0.1, -0.2, 2.0
	u, v := in.Project(xc, yc, zc)
	gxc, gyc, gzc := in.Unproject(u, v, zc)
	assert.InDelta(t, xc, gxc, 1e-9)
	assert.InDelta(t, yc, gyc, 1e-9)
	assert.InDelta(t, zc, gzc, 1e-9)
}

func TestTruncatePixel_TruncatesTowardZero(t *testing.T) {
	assert.Equal(t, 3, TruncatePixel(3.9))
	assert.Equal(t, -3, TruncatePixel(-3.9))
}

func TestIntrinsics_InBounds(t *testing.T) {
	in := &Intrinsics{Width: 10, Height: 10}
	assert.True(t, in.InBounds(0, 0))
	assert.True(t, in.InBounds(9, 9))
	assert.False(t, in.InBounds(10, 0))
	assert.False(t, in.InBounds(-1, 0))
}
