// Package mesh materializes the triangles ExtractSurfaceMesh produces,
// adapted from the teacher's spatialmath.Mesh/Triangle types with the
// PLY writer idiom borrowed from rimage/pcd.go's ASCII writer pattern.
package mesh

import (
	"bufio"
	"fmt"
	"io"

	"github.com/golang/geo/r3"
)

// Triangle is a single mesh face referencing three vertex indices into
// the owning Mesh's vertex slice, following the teacher's
// spatialmath.Triangle indexed-face convention.
type Triangle struct {
	A, B, C int
}

// Mesh is an indexed triangle mesh with one normal per vertex, the
// output shape of ExtractSurfaceMesh (spec.md §4.4).
type Mesh struct {
	Vertices  []r3.Vector
	Normals   []r3.Vector
	Triangles []Triangle
}

// NewMesh allocates a Mesh with the given vertex/triangle capacity hints.
func NewMesh(vertexCap, triangleCap int) *Mesh {
	return &Mesh{
		Vertices:  make([]r3.Vector, 0, vertexCap),
		Normals:   make([]r3.Vector, 0, vertexCap),
		Triangles: make([]Triangle, 0, triangleCap),
	}
}

// AddVertex appends a vertex/normal pair and returns its index.
func (m *Mesh) AddVertex(p, n r3.Vector) int {
	m.Vertices = append(m.Vertices, p)
	m.Normals = append(m.Normals, n)
	return len(m.Vertices) - 1
}

// AddTriangle appends a face referencing three already-added vertices.
func (m *Mesh) AddTriangle(a, b, c int) {
	m.Triangles = append(m.Triangles, Triangle{A: a, B: b, C: c})
}

// WriteToPLY writes the mesh in ASCII PLY format, adapted from the
// teacher's ASCII PCD writer idiom in rimage/pcd.go.
func (m *Mesh) WriteToPLY(w io.Writer) error {
	bw := bufio.NewWriter(w)
	header := fmt.Sprintf(
		"ply\n"+
			"format ascii 1.0\n"+
			"element vertex %d\n"+
			"property float x\n"+
			"property float y\n"+
			"property float z\n"+
			"property float nx\n"+
			"property float ny\n"+
			"property float nz\n"+
			"element face %d\n"+
			"property list uchar int vertex_indices\n"+
			"end_header\n",
		len(m.Vertices), len(m.Triangles))
	if _, err := bw.WriteString(header); err != nil {
		return err
	}
	for i, v := range m.Vertices {
		n := m.Normals[i]
		if _, err := fmt.Fprintf(bw, "%g %g %g %g %g %g\n", v.X, v.Y, v.Z, n.X, n.Y, n.Z); err != nil {
			return err
		}
	}
	for _, t := range m.Triangles {
		if _, err := fmt.Fprintf(bw, "3 %d %d %d\n", t.A, t.B, t.C); err != nil {
			return err
		}
	}
	return bw.Flush()
}
