package indexer

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestExtrinsics_Identity(t *testing.T) {
	id := Identity()
	p := r3.Vector{X: 1, Y: 2, Z: 3}
	got := id.RigidTransform(p)
	assert.InDelta(t, p.X, got.X, 1e-9)
	assert.InDelta(t, p.Y, got.Y, 1e-9)
	assert.InDelta(t, p.Z, got.Z, 1e-9)
}

func TestExtrinsics_Inverse_RoundTrips(t *testing.T) {
	rot := mat.NewDense(3, 3, []float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	})
	e := NewExtrinsics(rot, r3.Vector{X: 1, Y: 2, Z: 3})
	inv := e.Inverse()

	p := r3.Vector{X: 0.5, Y: -0.25, Z: 1.5}
	world := inv.RigidTransform(e.RigidTransform(p))
	assert.InDelta(t, p.X, world.X, 1e-6)
	assert.InDelta(t, p.Y, world.Y, 1e-6)
	assert.InDelta(t, p.Z, world.Z, 1e-6)
}

func TestExtrinsics_Rotate_IgnoresTranslation(t *testing.T) {
	e := NewExtrinsics(mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), r3.Vector{X: 5, Y: 5, Z: 5})
	got := e.Rotate(r3.Vector{X: 1, Y: 0, Z: 0})
	assert.InDelta(t, 1, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)
}
