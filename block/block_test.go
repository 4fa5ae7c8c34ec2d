package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_LinearIndexRoundTrip(t *testing.T) {
	layout := Layout{Resolution: 8}
	for xv := 0; xv < 8; xv++ {
		for yv := 0; yv < 8; yv++ {
			for zv := 0; zv < 8; zv++ {
				linear := layout.LinearIndex(xv, yv, zv)
				gx, gy, gz := layout.VoxelCoord(linear)
				require.Equal(t, xv, gx)
				require.Equal(t, yv, gy)
				require.Equal(t, zv, gz)
			}
		}
	}
}

func TestLayout_LinearIndex_XFastest(t *testing.T) {
	layout := Layout{Resolution: 4}
	assert.Equal(t, 1, layout.LinearIndex(1, 0, 0))
	assert.Equal(t, 4, layout.LinearIndex(0, 1, 0))
	assert.Equal(t, 16, layout.LinearIndex(0, 0, 1))
}

func TestNeighborOffset_SelfIsCenter(t *testing.T) {
	dx, dy, dz := NeighborOffset(SelfNeighborIndex)
	assert.Equal(t, int32(0), dx)
	assert.Equal(t, int32(0), dy)
	assert.Equal(t, int32(0), dz)
}

func TestNeighborOffset_CanonicalOrdering(t *testing.T) {
	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				idx := int((dx + 1) + 3*(dy+1) + 9*(dz+1))
				gx, gy, gz := NeighborOffset(idx)
				assert.Equal(t, dx, gx)
				assert.Equal(t, dy, gy)
				assert.Equal(t, dz, gz)
			}
		}
	}
}

type fakeHashMap map[Key]Address

func (f fakeHashMap) Find(key Key) (Address, bool) {
	a, ok := f[key]
	return a, ok
}

func TestBuildNeighborTable(t *testing.T) {
	center := Key{BX: 0, BY: 0, BZ: 0}
	east := Key{BX: 1, BY: 0, BZ: 0}
	hm := fakeHashMap{center: 0, east: 1}

	nt := BuildNeighborTable([]Key{center}, hm)
	require.Len(t, nt.Indices, 1)

	assert.True(t, nt.Masks[0][SelfNeighborIndex])
	assert.Equal(t, Address(0), nt.Indices[0][SelfNeighborIndex])

	eastSlot := (1 + 1) + 3*(0+1) + 9*(0+1)
	assert.True(t, nt.Masks[0][eastSlot])
	assert.Equal(t, Address(1), nt.Indices[0][eastSlot])

	westSlot := (-1 + 1) + 3*(0+1) + 9*(0+1)
	assert.False(t, nt.Masks[0][westSlot])
	assert.Equal(t, NoAddress, nt.Indices[0][westSlot])
}

func TestActiveList_InvIndex(t *testing.T) {
	active := &ActiveList{
		Keys:      []Key{{BX: 0}, {BX: 1}},
		Addresses: []Address{5, 9},
	}
	inv := active.InvIndex()
	assert.Equal(t, 0, inv[5])
	assert.Equal(t, 1, inv[9])
}
