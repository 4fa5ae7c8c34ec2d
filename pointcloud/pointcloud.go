// Package pointcloud materializes the surface points ExtractSurfacePoints
// produces into a reusable point cloud type, adapted from the teacher's
// pointcloud.PointCloud / pointcloud.BasicPointCloud.
package pointcloud

import (
	"bufio"
	"fmt"
	"io"

	"github.com/golang/geo/r3"
)

// Point is a single reconstructed surface sample: position, estimated
// normal, and optional color (HasColor false when the TSDF has no color
// channel, per voxel.Record.HasColor).
type Point struct {
	Position  r3.Vector
	Normal    r3.Vector
	HasColor  bool
	R, G, B   float32
}

// PointCloud is an ordered collection of reconstructed points, mirroring
// the teacher's pointcloud.PointCloud surface area trimmed to what the
// TSDF kernels and exporters need: index, iterate, size, and write.
// Appending is done on the concrete Basic type.
type PointCloud interface {
	Size() int
	At(i int) Point
	Points() []Point
	WriteToPCD(w io.Writer) error
}

// Basic is a slice-backed PointCloud, grounded on the teacher's
// BasicPointCloud map-of-points storage but using an append-only slice
// since ExtractSurfacePoints claims output slots by atomic index rather
// than by spatial key.
type Basic struct {
	pts []Point
}

// NewBasic allocates a Basic point cloud with the given capacity hint.
func NewBasic(capacity int) *Basic {
	return &Basic{pts: make([]Point, 0, capacity)}
}

// Append adds a point to the cloud.
func (b *Basic) Append(p Point) {
	b.pts = append(b.pts, p)
}

// Size implements PointCloud.
func (b *Basic) Size() int { return len(b.pts) }

// At implements PointCloud.
func (b *Basic) At(i int) Point { return b.pts[i] }

// Points implements PointCloud.
func (b *Basic) Points() []Point { return b.pts }

// WriteToPCD writes the cloud in ASCII PCD format, adapted from the
// teacher's pointcloud_file.go ToPCD/writePCDData.
func (b *Basic) WriteToPCD(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fields := "x y z normal_x normal_y normal_z"
	sizes := "4 4 4 4 4 4"
	types := "F F F F F F"
	counts := "1 1 1 1 1 1"
	hasColor := len(b.pts) > 0 && b.pts[0].HasColor
	if hasColor {
		fields += " rgb"
		sizes += " 4"
		types += " F"
		counts += " 1"
	}

	header := fmt.Sprintf(
		"# .PCD v0.7 - Point Cloud Data file format\n"+
			"VERSION 0.7\n"+
			"FIELDS %s\n"+
			"SIZE %s\n"+
			"TYPE %s\n"+
			"COUNT %s\n"+
			"WIDTH %d\n"+
			"HEIGHT 1\n"+
			"VIEWPOINT 0 0 0 1 0 0 0\n"+
			"POINTS %d\n"+
			"DATA ascii\n",
		fields, sizes, types, counts, len(b.pts), len(b.pts))
	if _, err := bw.WriteString(header); err != nil {
		return err
	}

	for _, p := range b.pts {
		if hasColor {
			rgb := packRGB(p.R, p.G, p.B)
			if _, err := fmt.Fprintf(bw, "%g %g %g %g %g %g %g\n",
				p.Position.X, p.Position.Y, p.Position.Z,
				p.Normal.X, p.Normal.Y, p.Normal.Z, rgb); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(bw, "%g %g %g %g %g %g\n",
			p.Position.X, p.Position.Y, p.Position.Z,
			p.Normal.X, p.Normal.Y, p.Normal.Z); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// packRGB packs normalized [0, 1] float32 color channels into the
// single-float RGB encoding the PCD format expects, matching the
// teacher's packed-float color convention.
func packRGB(r, g, b float32) float32 {
	ri := uint32(r * 255)
	gi := uint32(g * 255)
	bi := uint32(b * 255)
	packed := (ri << 16) | (gi << 8) | bi
	return float32(packed)
}
