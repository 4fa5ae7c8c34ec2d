package pointcloud

import (
	"bytes"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasic_AppendAndSize(t *testing.T) {
	b := NewBasic(0)
	b.Append(Point{Position: r3.Vector{X: 1}})
	b.Append(Point{Position: r3.Vector{X: 2}})
	assert.Equal(t, 2, b.Size())
	assert.Equal(t, 1.0, b.At(0).Position.X)
}

func TestBasic_WriteToPCD_NoColor(t *testing.T) {
	b := NewBasic(0)
	b.Append(Point{Position: r3.Vector{X: 1, Y: 2, Z: 3}, Normal: r3.Vector{X: 0, Y: 0, Z: 1}})

	var buf bytes.Buffer
	require.NoError(t, b.WriteToPCD(&buf))
	out := buf.String()
	assert.Contains(t, out, "POINTS 1")
	assert.Contains(t, out, "FIELDS x y z normal_x normal_y normal_z")
	assert.False(t, strings.Contains(out, "rgb"))
}

func TestBasic_WriteToPCD_WithColor(t *testing.T) {
	b := NewBasic(0)
	b.Append(Point{Position: r3.Vector{X: 1}, HasColor: true, R: 1, G: 0.5, B: 0})

	var buf bytes.Buffer
	require.NoError(t, b.WriteToPCD(&buf))
	assert.Contains(t, buf.String(), "rgb")
}
