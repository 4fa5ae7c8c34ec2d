// Package block defines the sparse block layout shared by every TSDF
// kernel: block keys and addresses, the per-active-block neighbor table,
// and the active-block list. The block hash map itself is an external
// collaborator, modeled here only through the HashMap interface.
package block

// Key identifies a block in world-block space.
type Key struct {
	BX, BY, BZ int32
}

// Address is an opaque handle into the contiguous block buffer, returned
// by a HashMap lookup.
type Address int64

// NoAddress is the sentinel returned when a lookup misses.
const NoAddress Address = -1

// HashMap maps block keys to block addresses. It is read-only during
// kernel execution; allocation happens externally, before a kernel runs.
type HashMap interface {
	Find(key Key) (Address, bool)
}

// Layout describes a cubic block of side Resolution (R), containing
// Resolution^3 voxels in x-fastest order.
type Layout struct {
	Resolution int
}

// VoxelsPerBlock returns R^3.
func (l Layout) VoxelsPerBlock() int {
	r := l.Resolution
	return r * r * r
}

// LinearIndex maps a within-block voxel coordinate to its linear offset,
// x-fastest: xv + R*yv + R*R*zv.
func (l Layout) LinearIndex(xv, yv, zv int) int {
	r := l.Resolution
	return xv + r*yv + r*r*zv
}

// VoxelCoord recovers (xv,yv,zv) from a linear within-block index.
func (l Layout) VoxelCoord(linear int) (xv, yv, zv int) {
	r := l.Resolution
	xv = linear % r
	rem := linear / r
	yv = rem % r
	zv = rem / r
	return
}

// neighborOffsets enumerates the 3x3x3 neighborhood in the canonical
// order the spec requires: linear index (dx+1) + 3*(dy+1) + 9*(dz+1).
var neighborOffsets = func() [27][3]int32 {
	var offs [27][3]int32
	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				idx := (dx + 1) + 3*(dy+1) + 9*(dz+1)
				offs[idx] = [3]int32{dx, dy, dz}
			}
		}
	}
	return offs
}()

// NeighborOffset returns the (dx,dy,dz) offset for the 27-entry neighbor
// slot at the given linear index. Self sits at index 13.
func NeighborOffset(idx int) (dx, dy, dz int32) {
	o := neighborOffsets[idx]
	return o[0], o[1], o[2]
}

// SelfNeighborIndex is the slot holding the block's own address.
const SelfNeighborIndex = 13

// NeighborTable holds, for each active block, the block address of each
// of its 27 neighbors (including self) and a validity mask.
type NeighborTable struct {
	Indices [][27]Address
	Masks   [][27]bool
}

// BuildNeighborTable precomputes the 3x3x3 neighborhood for every active
// block by probing the hash map once per neighbor slot.
func BuildNeighborTable(active []Key, hm HashMap) *NeighborTable {
	nt := &NeighborTable{
		Indices: make([][27]Address, len(active)),
		Masks:   make([][27]bool, len(active)),
	}
	for i, k := range active {
		for slot := 0; slot < 27; slot++ {
			dx, dy, dz := NeighborOffset(slot)
			nk := Key{BX: k.BX + dx, BY: k.BY + dy, BZ: k.BZ + dz}
			addr, ok := hm.Find(nk)
			if ok {
				nt.Indices[i][slot] = addr
				nt.Masks[i][slot] = true
			} else {
				nt.Indices[i][slot] = NoAddress
				nt.Masks[i][slot] = false
			}
		}
	}
	return nt
}

// ActiveList is the subset of blocks touched by the current operation.
type ActiveList struct {
	Keys      []Key
	Addresses []Address
}

// InvIndex builds the inverse mapping from absolute block address to its
// position in the active list, for the "inv_indices" cross-block lookups
// mesh extraction needs.
func (a *ActiveList) InvIndex() map[Address]int {
	m := make(map[Address]int, len(a.Addresses))
	for i, addr := range a.Addresses {
		m[addr] = i
	}
	return m
}
