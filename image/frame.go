// Package image holds the depth and color frame buffers the Integrate
// kernel reads from, adapted from the teacher's rimage.DepthMap and
// rimage.Image but carrying float32 samples instead of encoded pixels —
// the TSDF kernels never need to decode a wire image format.
package image

import "fmt"

// DepthMap is a row-major buffer of raw depth samples in DepthScale
// units (e.g. millimeters), mirroring rimage.DepthMap's storage layout.
type DepthMap struct {
	Width, Height int
	// DepthScale converts a raw sample to meters: meters = raw / DepthScale.
	DepthScale float64
	data       []float32
}

// NewDepthMap allocates a zeroed depth map of the given size.
func NewDepthMap(width, height int, depthScale float64) *DepthMap {
	return &DepthMap{
		Width:      width,
		Height:     height,
		DepthScale: depthScale,
		data:       make([]float32, width*height),
	}
}

func (d *DepthMap) index(x, y int) (int, error) {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return 0, fmt.Errorf("depth map coordinate (%d, %d) out of bounds (%dx%d)", x, y, d.Width, d.Height)
	}
	return y*d.Width + x, nil
}

// GetDepth returns the raw sample at (x, y), or ok=false if out of bounds.
func (d *DepthMap) GetDepth(x, y int) (raw float32, ok bool) {
	i, err := d.index(x, y)
	if err != nil {
		return 0, false
	}
	return d.data[i], true
}

// GetDepthMeters returns the depth at (x, y) converted to meters.
func (d *DepthMap) GetDepthMeters(x, y int) (meters float64, ok bool) {
	raw, ok := d.GetDepth(x, y)
	if !ok {
		return 0, false
	}
	return float64(raw) / d.DepthScale, true
}

// Set writes a raw sample at (x, y).
func (d *DepthMap) Set(x, y int, raw float32) error {
	i, err := d.index(x, y)
	if err != nil {
		return err
	}
	d.data[i] = raw
	return nil
}

// Clone returns a deep copy of the depth map.
func (d *DepthMap) Clone() *DepthMap {
	out := &DepthMap{Width: d.Width, Height: d.Height, DepthScale: d.DepthScale}
	out.data = make([]float32, len(d.data))
	copy(out.data, d.data)
	return out
}

// ColorImage is a row-major buffer of normalized [0, 1] float32 RGB
// samples, adapted from rimage.Image's pixel storage but decoupled from
// any particular color space encoding.
type ColorImage struct {
	Width, Height int
	r, g, b       []float32
}

// NewColorImage allocates a zeroed color image of the given size.
func NewColorImage(width, height int) *ColorImage {
	n := width * height
	return &ColorImage{
		Width:  width,
		Height: height,
		r:      make([]float32, n),
		g:      make([]float32, n),
		b:      make([]float32, n),
	}
}

func (c *ColorImage) index(x, y int) (int, error) {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return 0, fmt.Errorf("color image coordinate (%d, %d) out of bounds (%dx%d)", x, y, c.Width, c.Height)
	}
	return y*c.Width + x, nil
}

// GetColor returns the RGB sample at (x, y), or ok=false if out of bounds.
func (c *ColorImage) GetColor(x, y int) (r, g, b float32, ok bool) {
	i, err := c.index(x, y)
	if err != nil {
		return 0, 0, 0, false
	}
	return c.r[i], c.g[i], c.b[i], true
}

// SetColor writes an RGB sample at (x, y).
func (c *ColorImage) SetColor(x, y int, r, g, b float32) error {
	i, err := c.index(x, y)
	if err != nil {
		return err
	}
	c.r[i], c.g[i], c.b[i] = r, g, b
	return nil
}

// Clone returns a deep copy of the color image.
func (c *ColorImage) Clone() *ColorImage {
	out := &ColorImage{Width: c.Width, Height: c.Height}
	out.r = append([]float32(nil), c.r...)
	out.g = append([]float32(nil), c.g...)
	out.b = append([]float32(nil), c.b...)
	return out
}

// NormalMap is a row-major buffer of unit surface normals in the camera
// frame, one per pixel, produced by RayCast alongside its depth and
// color outputs.
type NormalMap struct {
	Width, Height int
	x, y, z       []float32
}

// NewNormalMap allocates a zeroed normal map of the given size.
func NewNormalMap(width, height int) *NormalMap {
	n := width * height
	return &NormalMap{
		Width:  width,
		Height: height,
		x:      make([]float32, n),
		y:      make([]float32, n),
		z:      make([]float32, n),
	}
}

func (n *NormalMap) index(x, y int) (int, error) {
	if x < 0 || x >= n.Width || y < 0 || y >= n.Height {
		return 0, fmt.Errorf("normal map coordinate (%d, %d) out of bounds (%dx%d)", x, y, n.Width, n.Height)
	}
	return y*n.Width + x, nil
}

// GetNormal returns the unit normal at (x, y), or ok=false if out of
// bounds or unset.
func (n *NormalMap) GetNormal(x, y int) (nx, ny, nz float32, ok bool) {
	i, err := n.index(x, y)
	if err != nil {
		return 0, 0, 0, false
	}
	if n.x[i] == 0 && n.y[i] == 0 && n.z[i] == 0 {
		return 0, 0, 0, false
	}
	return n.x[i], n.y[i], n.z[i], true
}

// SetNormal writes a unit normal at (x, y).
func (n *NormalMap) SetNormal(x, y int, nx, ny, nz float32) error {
	i, err := n.index(x, y)
	if err != nil {
		return err
	}
	n.x[i], n.y[i], n.z[i] = nx, ny, nz
	return nil
}

// Clone returns a deep copy of the normal map.
func (n *NormalMap) Clone() *NormalMap {
	out := &NormalMap{Width: n.Width, Height: n.Height}
	out.x = append([]float32(nil), n.x...)
	out.y = append([]float32(nil), n.y...)
	out.z = append([]float32(nil), n.z...)
	return out
}
