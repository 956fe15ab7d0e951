package heightfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrid(t *testing.T, rows, cols int) *Grid {
	t.Helper()
	g, err := New(rows, cols)
	require.NoError(t, err)
	return g
}

func TestSine(t *testing.T) {
	g := newGrid(t, 33, 33)
	g.Sine()
	assert.Zero(t, g.Get(0, 0))
	assert.Equal(t, g.Max(), g.Get(16, 16))
	assert.Greater(t, g.Get(16, 16), int16(19000))
	assert.Equal(t, g.Get(8, 3), g.Get(3, 8))
}

func TestFractalIsDeterministic(t *testing.T) {
	a := newGrid(t, 33, 49)
	b := newGrid(t, 33, 49)
	c := newGrid(t, 33, 49)
	a.Fractal(7, 0.5, 5000)
	b.Fractal(7, 0.5, 5000)
	c.Fractal(8, 0.5, 5000)

	assert.Equal(t, a.data, b.data)
	assert.NotEqual(t, a.data, c.data)
	assert.Zero(t, a.Min())
	assert.Equal(t, int16(5000), a.Max())
}

func TestFractalRoughness(t *testing.T) {
	bumpiness := func(roughness float64) int {
		g := newGrid(t, 65, 65)
		g.Fractal(3, roughness, 10000)
		total := 0
		for r := range g.rows {
			for c := 1; c < g.cols; c++ {
				d := int(g.Get(r, c)) - int(g.Get(r, c-1))
				total += max(d, -d)
			}
		}
		return total
	}
	assert.Greater(t, bumpiness(0.8), bumpiness(0.3))
}

func TestFilters(t *testing.T) {
	g := newGrid(t, 3, 3)
	g.Set(0, 0, 2)
	g.Set(0, 1, -3)
	g.Set(0, 2, 30000)

	g.Canyonize(1)
	assert.Equal(t, int16(4), g.Get(0, 0))
	assert.Equal(t, int16(-9), g.Get(0, 1))
	assert.Equal(t, int16(MaxRaw), g.Get(0, 2))

	g.ScaleBy(-2)
	assert.Equal(t, int16(-8), g.Get(0, 0))
	assert.Equal(t, int16(MinRaw), g.Get(0, 2))

	g.Translate(10)
	assert.Equal(t, int16(2), g.Get(0, 0))
	assert.Equal(t, int16(28), g.Get(0, 1))

	g.ClampMin(5)
	assert.Equal(t, int16(5), g.Get(0, 0))
	g.ClampMax(20)
	assert.Equal(t, int16(20), g.Get(0, 1))
	assert.Equal(t, int16(10), g.Get(2, 2))
}

func TestGlaciate(t *testing.T) {
	g := newGrid(t, 5, 5)
	g.Set(1, 1, 50)
	g.Set(3, 3, 20000)

	g.Glaciate(0.01)
	assert.Equal(t, int16(0), g.Get(1, 1), "small bump flattened")
	assert.Equal(t, int16(20000), g.Get(3, 3), "peak kept")
}

func TestCloseEdge(t *testing.T) {
	g := newGrid(t, 4, 5)
	g.Fractal(1, 0.5, 1000)
	g.SetQuantization(100, 2)
	inner := g.Get(1, 2)

	g.CloseEdge(80)
	for r := range g.rows {
		assert.Equal(t, int16(-10), g.Get(r, 0))
		assert.Equal(t, int16(-10), g.Get(r, 4))
	}
	for c := range g.cols {
		assert.Equal(t, int16(-10), g.Get(0, c))
		assert.Equal(t, int16(-10), g.Get(3, c))
	}
	assert.Equal(t, inner, g.Get(1, 2))
}

func TestApplyRunsNamedFilters(t *testing.T) {
	g := newGrid(t, 9, 9)
	g.Sine()
	want := newGrid(t, 9, 9)
	want.Sine()

	require.NoError(t, g.Apply(FilterScale, 0.5))
	want.ScaleBy(0.5)
	require.NoError(t, g.Apply(FilterTranslate, -100))
	want.Translate(-100)
	require.NoError(t, g.Apply(FilterClampMin, 1000.4))
	want.ClampMin(1000)
	require.NoError(t, g.Apply(FilterClampMax, 9000))
	want.ClampMax(9000)
	require.NoError(t, g.Apply(FilterGlaciate, 0.01))
	want.Glaciate(0.01)
	require.NoError(t, g.Apply(FilterCanyonize, 0.1))
	want.Canyonize(0.1)
	g.SetQuantization(0, 0.5)
	want.SetQuantization(0, 0.5)
	require.NoError(t, g.Apply(FilterCloseEdge, 3))
	want.CloseEdge(3)

	assert.Equal(t, want.data, g.data)
	assert.Equal(t, int16(6), g.Get(0, 4))
}

func TestApplyRejectsUnknownFilter(t *testing.T) {
	g := newGrid(t, 3, 3)
	assert.ErrorIs(t, g.Apply("erode", 1), ErrUnknownFilter)
}
