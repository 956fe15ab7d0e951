// Package heightfield provides quantized height grids for terrain LOD meshes:
// generators, filters and import/export of common heightmap formats.
package heightfield

import (
	"errors"
	"fmt"
	stdmath "math"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

var (
	// ErrFormat is returned for malformed or unsupported heightmap data.
	ErrFormat = errors.New("heightfield: unsupported or malformed data")
	// ErrSize is returned for grid dimensions that cannot be allocated.
	ErrSize = errors.New("heightfield: invalid size")
)

// Raw sample limits. Samples are quantized world heights:
// world = base + raw*scale.
const (
	MinRaw = -0x7FFF
	MaxRaw = 0x7FFF
)

// Grid is a row-major grid of quantized height samples.
// It satisfies lod.HeightSampler.
type Grid struct {
	rows, cols int
	data       []int16
	base       float32
	scale      float32
}

// New allocates a flat grid of rows x cols samples with unit scale.
func New(rows, cols int) (*Grid, error) {
	if rows < 2 || cols < 2 || rows > 0xFFFF || cols > 0xFFFF {
		return nil, fmt.Errorf("%w: %dx%d", ErrSize, rows, cols)
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		data:  make([]int16, rows*cols),
		scale: 1,
	}, nil
}

// NewTiled allocates a grid covering tileRows x tileCols tiles of 2^level
// cells, the sample count a lod.Mesh expects.
func NewTiled(tileRows, tileCols, level int) (*Grid, error) {
	if tileRows < 1 || tileCols < 1 || level < 1 || level > 12 {
		return nil, fmt.Errorf("%w: %dx%d tiles of level %d", ErrSize, tileRows, tileCols, level)
	}
	return New(tileRows<<level+1, tileCols<<level+1)
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Get returns the raw sample at (row, col).
func (g *Grid) Get(row, col int) int16 { return g.data[row*g.cols+col] }

// Set stores a raw sample.
func (g *Grid) Set(row, col int, v int16) { g.data[row*g.cols+col] = v }

// Base returns the world height of raw sample 0.
func (g *Grid) Base() float32 { return g.base }

// Scale returns the world height of one raw step.
func (g *Grid) Scale() float32 { return g.scale }

// SetQuantization changes how raw samples map to world heights.
func (g *Grid) SetQuantization(base, scale float32) {
	g.base, g.scale = base, scale
}

// SetRange picks a quantization that spreads [lo, hi] over the full raw
// range. Existing samples keep their raw values.
func (g *Grid) SetRange(lo, hi float32) {
	if hi <= lo {
		g.base, g.scale = lo, 1
		return
	}
	g.base = (lo + hi) / 2
	g.scale = (hi - lo) / (MaxRaw - MinRaw)
}

// WorldHeight converts a raw sample to a world height.
func (g *Grid) WorldHeight(raw int16) float32 { return g.base + float32(raw)*g.scale }

// Quantize converts a world height to the nearest raw sample, clamped.
func (g *Grid) Quantize(h float32) int16 {
	return clampRaw(stdmath.Round(float64((h - g.base) / g.scale)))
}

// Height returns the world height at (row, col).
func (g *Grid) Height(row, col int) float32 { return g.WorldHeight(g.Get(row, col)) }

// Min returns the lowest raw sample.
func (g *Grid) Min() int16 {
	m := g.data[0]
	for _, v := range g.data {
		m = min(m, v)
	}
	return m
}

// Max returns the highest raw sample.
func (g *Grid) Max() int16 {
	m := g.data[0]
	for _, v := range g.data {
		m = max(m, v)
	}
	return m
}

// Normal returns the unit surface normal at a sample from central
// differences, one-sided at the border. spacing is the world distance
// between neighbouring samples.
func (g *Grid) Normal(row, col int, spacing float32) math.Vec3 {
	var nx, nz float32
	switch {
	case col > 0 && col < g.cols-1:
		nz = g.Height(row, col-1) - g.Height(row, col+1)
	case col > 0:
		nz = 2 * (g.Height(row, col-1) - g.Height(row, col))
	default:
		nz = 2 * (g.Height(row, col) - g.Height(row, col+1))
	}
	switch {
	case row > 0 && row < g.rows-1:
		nx = g.Height(row-1, col) - g.Height(row+1, col)
	case row > 0:
		nx = 2 * (g.Height(row-1, col) - g.Height(row, col))
	default:
		nx = 2 * (g.Height(row, col) - g.Height(row+1, col))
	}
	return math.Vec3{X: nx, Y: 2 * spacing, Z: nz}.Normalize()
}

func clampRaw(v float64) int16 {
	switch {
	case v < MinRaw:
		return MinRaw
	case v > MaxRaw:
		return MaxRaw
	}
	return int16(v)
}
