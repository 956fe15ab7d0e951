package lod

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

type testGrid struct {
	rows, cols int
	h          []int16
	scale      float32
}

func newTestGrid(tiles, level int) *testGrid {
	n := tiles<<level + 1
	return &testGrid{rows: n, cols: n, h: make([]int16, n*n), scale: 1}
}

func (g *testGrid) Get(r, c int) int16            { return g.h[r*g.cols+c] }
func (g *testGrid) Set(r, c int, v int16)         { g.h[r*g.cols+c] = v }
func (g *testGrid) Rows() int                     { return g.rows }
func (g *testGrid) Cols() int                     { return g.cols }
func (g *testGrid) WorldHeight(raw int16) float32 { return float32(raw) * g.scale }

func (g *testGrid) randomize(seed int64, amplitude int) {
	rng := rand.New(rand.NewSource(seed))
	for i := range g.h {
		g.h[i] = int16(rng.Intn(amplitude))
	}
}

type noneVisible struct{}

func (noneVisible) Clip(math.Box3) math.Containment { return math.Outside }

func testOptions(level int) Options {
	opts := DefaultOptions()
	opts.TileLevel = level
	opts.MaxTriangles = 1 << 20
	opts.AbsMaxTriangles = 1 << 20
	opts.FarClip = 1000
	opts.Logger = zap.NewNop()
	return opts
}

func newTestMesh(t *testing.T, g HeightSampler, opts Options) *Mesh {
	t.Helper()
	m, err := New(g, opts)
	require.NoError(t, err)
	return m
}

func cameraAt(row, col float32) Camera {
	return Camera{
		Position: math.Vec3{X: row, Y: 50, Z: col},
		Forward:  math.Vec3{X: 1, Y: 0, Z: 0},
	}
}

// checkFrontier asserts that every root-to-leaf path of every tree meets
// exactly one active triangle.
func checkFrontier(t *testing.T, m *Mesh) {
	t.Helper()
	var walk func(b *BinTree, i TriIndex, covered bool)
	walk = func(b *BinTree, i TriIndex, covered bool) {
		active := b.Active(i)
		if covered && active {
			t.Fatalf("tree %d: triangle %d active below an active ancestor", b.id, i)
		}
		if b.layout.IsLeaf(i) {
			if !covered && !active {
				t.Fatalf("tree %d: hole at leaf %d", b.id, i)
			}
			return
		}
		walk(b, FirstChild(i), covered || active)
		walk(b, SecondChild(i), covered || active)
	}
	total := 0
	for _, b := range m.trees {
		walk(b, 1, false)
		total += b.ActiveCount()
	}
	require.Equal(t, total, m.ActiveCount(), "cache length must equal active triangles")
}

// checkNoCracks asserts that no active triangle edge passes through a
// vertex of another active triangle and that shared vertices agree on height.
func checkNoCracks(t *testing.T, m *Mesh) {
	t.Helper()
	type point struct{ r, c int }
	heights := map[point]float32{}
	var tris []Triangle
	for id := range m.trees {
		for _, tri := range m.ActiveTriangles(id) {
			tris = append(tris, tri)
			for _, p := range tri.Positions {
				k := point{int(p.X), int(p.Z)}
				if h, ok := heights[k]; ok {
					require.Equal(t, h, p.Y, "vertex %v has two heights", k)
				}
				heights[k] = p.Y
			}
		}
	}
	for _, tri := range tris {
		for e := range 3 {
			a, b := tri.Positions[e], tri.Positions[(e+1)%3]
			dr, dc := sign(int(b.X)-int(a.X)), sign(int(b.Z)-int(a.Z))
			steps := max(abs(int(b.X)-int(a.X)), abs(int(b.Z)-int(a.Z)))
			for j := 1; j < steps; j++ {
				k := point{int(a.X) + j*dr, int(a.Z) + j*dc}
				_, ok := heights[k]
				require.False(t, ok, "T-junction at %v on edge %v-%v", k, a, b)
			}
		}
	}
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

type activeKey struct {
	tree int
	tri  TriIndex
}

func activeSet(m *Mesh) map[activeKey]TriNode {
	out := map[activeKey]TriNode{}
	for _, b := range m.trees {
		b.ForEachActive(func(i TriIndex) {
			out[activeKey{b.id, i}] = *b.node(i)
		})
	}
	return out
}
