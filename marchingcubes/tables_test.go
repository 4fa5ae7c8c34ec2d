package marchingcubes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeTable_EmptyConfigurations(t *testing.T) {
	// The all-outside (0x00) and all-inside (0xFF) configurations both
	// carry no surface, the canonical table's baseline sanity check.
	assert.Equal(t, 0, EdgeTable[0x00])
	assert.Equal(t, 0, EdgeTable[0xFF])
}

func TestTriCount_MatchesTriTableLength(t *testing.T) {
	for i := 0; i < 256; i++ {
		n := 0
		for TriTable[i][n*3] != -1 {
			n++
		}
		assert.Equalf(t, n, TriCount[i], "cube index %d", i)
	}
}

func TestTriTable_NeverExceedsFiveTriangles(t *testing.T) {
	for i := 0; i < 256; i++ {
		assert.LessOrEqualf(t, TriCount[i], 5, "cube index %d", i)
	}
}

func TestVtxShifts_CoverUnitCube(t *testing.T) {
	seen := map[[3]int]bool{}
	for _, s := range VtxShifts {
		seen[s] = true
	}
	assert.Len(t, seen, 8)
}

func TestEdgeShifts_ReferenceValidCorners(t *testing.T) {
	for _, e := range EdgeShifts {
		assert.GreaterOrEqual(t, e[0], 0)
		assert.Less(t, e[0], 8)
		assert.GreaterOrEqual(t, e[1], 0)
		assert.Less(t, e[1], 8)
	}
}
