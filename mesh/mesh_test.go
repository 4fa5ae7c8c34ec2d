package mesh

import (
	"bytes"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMesh_AddVertexAndTriangle(t *testing.T) {
	m := NewMesh(0, 0)
	a := m.AddVertex(r3.Vector{X: 0}, r3.Vector{Z: 1})
	b := m.AddVertex(r3.Vector{X: 1}, r3.Vector{Z: 1})
	c := m.AddVertex(r3.Vector{X: 0, Y: 1}, r3.Vector{Z: 1})
	m.AddTriangle(a, b, c)

	require.Len(t, m.Vertices, 3)
	require.Len(t, m.Triangles, 1)
	assert.Equal(t, Triangle{A: 0, B: 1, C: 2}, m.Triangles[0])
}

func TestMesh_WriteToPLY(t *testing.T) {
	m := NewMesh(0, 0)
	a := m.AddVertex(r3.Vector{X: 0}, r3.Vector{Z: 1})
	b := m.AddVertex(r3.Vector{X: 1}, r3.Vector{Z: 1})
	c := m.AddVertex(r3.Vector{X: 0, Y: 1}, r3.Vector{Z: 1})
	m.AddTriangle(a, b, c)

	var buf bytes.Buffer
	require.NoError(t, m.WriteToPLY(&buf))
	out := buf.String()
	assert.Contains(t, out, "element vertex 3")
	assert.Contains(t, out, "element face 1")
	assert.Contains(t, out, "3 0 1 2")
}
