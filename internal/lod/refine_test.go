package lod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

func TestRefineKeepsFrontierValid(t *testing.T) {
	const level = 4
	g := newTestGrid(3, level)
	g.randomize(42, 800)
	opts := testOptions(level)
	opts.MaxTriangles = 400
	opts.AbsMaxTriangles = 600
	opts.FarClip = 60
	m := newTestMesh(t, g, opts)

	for frame := range 30 {
		cam := cameraAt(float32(frame*2), float32(5+frame))
		stats := m.Refine(cam, AllVisible{})
		checkFrontier(t, m)
		checkNoCracks(t, m)

		assert.Equal(t, m.ActiveCount(), stats.Active)
		if m.MergeQueueLen() > 0 {
			assert.LessOrEqual(t, m.ActiveCount(), opts.MaxTriangles, "frame %d", frame)
		}
	}
}

func TestRefineWithFrustum(t *testing.T) {
	const level = 4
	g := newTestGrid(4, level)
	g.randomize(5, 600)
	opts := testOptions(level)
	opts.MaxTriangles = 2000
	opts.AbsMaxTriangles = 2000
	opts.FarClip = 50
	m := newTestMesh(t, g, opts)

	eye := math.Vec3{X: 2, Y: 30, Z: 32}
	view := math.LookAt(eye, math.Vec3{X: 40, Y: 0, Z: 32}, math.Vec3{Y: 1})
	proj := math.Perspective(1.0, 1.5, 0.5, 200)
	frustum := math.FrustumFromVP(proj.Mul(view)).SidePlanes()
	cam := Camera{Position: eye, Forward: math.Vec3{X: 1}}

	stats := m.Refine(cam, frustum)
	checkFrontier(t, m)
	checkNoCracks(t, m)
	assert.Less(t, stats.Visible, stats.Active, "triangles behind the camera are classified out")
	assert.Positive(t, stats.VisibilityTests)
	assert.Positive(t, stats.Splits)
}

func TestUpdateSplitIsIdempotent(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.randomize(9, 500)
	opts := testOptions(level)
	opts.MaxTriangles = 300
	opts.AbsMaxTriangles = 300
	m := newTestMesh(t, g, opts)
	m.Refine(cameraAt(4, 4), AllVisible{})

	refresh := func() map[activeKey]TriNode {
		for _, b := range m.trees {
			b.refresh(0)
		}
		return activeSet(m)
	}
	first := refresh()
	moves := m.stats.Moves
	second := refresh()

	assert.Equal(t, first, second)
	assert.Equal(t, moves, m.stats.Moves, "second refresh changes nothing")
}

func TestSplitMergeRoundTrip(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.randomize(21, 500)
	opts := testOptions(level)
	opts.MaxTriangles = 60
	opts.AbsMaxTriangles = 60
	m := newTestMesh(t, g, opts)
	m.Refine(cameraAt(8, 8), AllVisible{})

	// Find an active triangle whose diamond partner is active as well, so
	// splitting it touches exactly the two of them.
	var b *BinTree
	var i TriIndex
	for _, tree := range m.trees {
		tree.ForEachActive(func(c TriIndex) {
			if b != nil || m.layout.IsLeaf(c) {
				return
			}
			if n, nt := tree.Neighbour(c); nt == nil || nt.Active(n) {
				b, i = tree, c
			}
		})
	}
	require.NotNil(t, b, "no splittable triangle")
	n, nt := b.Neighbour(i)

	before := activeSet(m)
	b.forceSplit(i)
	checkFrontier(t, m)
	require.False(t, b.Active(i))

	b.forceMerge(FirstChild(i))
	checkFrontier(t, m)
	after := activeSet(m)

	require.Equal(t, len(before), len(after))
	for k, want := range before {
		got, ok := after[k]
		require.True(t, ok, "triangle %v not restored", k)
		touched := k == activeKey{b.id, i} || nt != nil && k == activeKey{nt.id, n}
		if touched {
			continue
		}
		assert.Equal(t, want.Index, got.Index)
		assert.Equal(t, want.Priority, got.Priority, "unaffected triangle %v", k)
		assert.Equal(t, want.Vis, got.Vis, "unaffected triangle %v", k)
		assert.Equal(t, want.Split != 0, got.Split != 0, "unaffected triangle %v", k)
	}
}

func TestForceMergePanicsOnIncompleteDiamond(t *testing.T) {
	g := newTestGrid(1, 3)
	m := newTestMesh(t, g, testOptions(3))
	m.Refine(cameraAt(0, 0), AllVisible{})

	b := m.Tree(0)
	assert.Panics(t, func() { b.forceMerge(FirstChild(1)) }, "root is not split")
}

func TestFlatTerrainStaysCoarse(t *testing.T) {
	const level = 4
	g := newTestGrid(3, level)
	m := newTestMesh(t, g, testOptions(level))

	for _, cam := range []Camera{cameraAt(0, 0), cameraAt(24, 24), cameraAt(500, -200)} {
		stats := m.Refine(cam, AllVisible{})
		assert.Equal(t, m.TreeCount(), stats.Active)
		assert.Zero(t, stats.Splits)
		assert.Zero(t, m.SplitQueueLen())
	}
}

func TestRefinedTerrainCoarsensWhenFlattened(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.Set(12, 9, 1500)
	m := newTestMesh(t, g, testOptions(level))

	m.Refine(cameraAt(12, 9), AllVisible{})
	require.Greater(t, m.ActiveCount(), m.TreeCount())

	g.Set(12, 9, 0)
	require.NoError(t, m.UpdateHeight(12, 9))
	stats := m.Refine(cameraAt(12, 9), AllVisible{})

	assert.Equal(t, m.TreeCount(), m.ActiveCount(), "flat terrain collapses to the roots")
	assert.Positive(t, stats.Merges)
	checkFrontier(t, m)
}

func TestSpikeRefinesToLeavesAlongItsChain(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.Set(10, 7, 1000)
	opts := testOptions(level)
	opts.FarClip = 100
	m := newTestMesh(t, g, opts)

	for range 3 {
		m.Refine(cameraAt(10, 7), AllVisible{})
	}
	checkFrontier(t, m)
	checkNoCracks(t, m)

	coveringLeaves := 0
	for _, b := range m.trees {
		r, c := 10-b.dr, 7-b.dc
		if b.mirror {
			r, c = b.dr-10, b.dc-7
		}
		b.ForEachActive(func(i TriIndex) {
			if b.contains(i, float64(r), float64(c)) {
				coveringLeaves++
				assert.True(t, m.layout.IsLeaf(i), "tree %d triangle %d covers the spike", b.id, i)
				return
			}
			if !m.layout.IsLeaf(i) {
				assert.Zero(t, b.TreeError(i), "tree %d triangle %d refined without error", b.id, i)
			}
		})
	}
	assert.Positive(t, coveringLeaves)
	assert.Less(t, m.ActiveCount(), m.TreeCount()*int(m.layout.LeafTriNo), "flat areas stay coarse")
}

func TestPriorityFallsWithDistance(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.randomize(17, 700)
	opts := testOptions(level)
	opts.FarClip = 300
	m := newTestMesh(t, g, opts)
	b := m.Tree(0)

	var prev []Priority
	for step := range 8 {
		cam := cameraAt(float32(-10*step), 8)
		m.Refine(cam, AllVisible{})

		cur := make([]Priority, m.layout.LeafTriNo)
		for i := TriIndex(1); i < m.layout.LeafTriNo; i++ {
			cur[i] = b.priorityCalc(i)
			if prev != nil {
				require.LessOrEqual(t, cur[i], prev[i], "step %d triangle %d", step, i)
			}
		}
		prev = cur
	}
}

func TestRetreatingCameraNeverSplits(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.randomize(23, 700)
	opts := testOptions(level)
	opts.FarClip = 200
	m := newTestMesh(t, g, opts)

	m.Refine(cameraAt(0, 16), AllVisible{})
	active := m.ActiveCount()
	for step := 1; step < 10; step++ {
		stats := m.Refine(cameraAt(float32(-15*step), 16), AllVisible{})
		assert.Zero(t, stats.Splits, "step %d", step)
		assert.LessOrEqual(t, stats.Active, active, "step %d", step)
		active = stats.Active
	}
	checkFrontier(t, m)
}

func TestHeightAtCornersIsExact(t *testing.T) {
	const level = 3
	g := newTestGrid(3, level)
	g.randomize(31, 900)
	g.scale = 0.25
	opts := testOptions(level)
	opts.MaxTriangles = 150
	opts.AbsMaxTriangles = 150
	m := newTestMesh(t, g, opts)

	check := func() {
		for r := 0; r < g.rows; r += 8 {
			for c := 0; c < g.cols; c += 8 {
				h, err := m.HeightAt(float32(r), float32(c))
				require.NoError(t, err)
				require.Equal(t, g.WorldHeight(g.Get(r, c)), h, "corner (%d,%d)", r, c)
			}
		}
	}
	check()
	m.Refine(cameraAt(3, 3), AllVisible{})
	check()
	m.Refine(cameraAt(20, 12), AllVisible{})
	check()
}

func TestHeightAtInterpolatesPlanes(t *testing.T) {
	const level = 3
	g := newTestGrid(2, level)
	for r := range g.rows {
		for c := range g.cols {
			g.Set(r, c, int16(3*r+2*c))
		}
	}
	g.scale = 0.5
	m := newTestMesh(t, g, testOptions(level))
	m.Refine(cameraAt(0, 0), AllVisible{})

	for _, p := range [][2]float32{{1.5, 2.25}, {7.9, 0.1}, {8, 8}, {12.5, 13.75}, {16, 16}, {0, 16}} {
		h, err := m.HeightAt(p[0], p[1])
		require.NoError(t, err)
		assert.InDelta(t, 0.5*(3*p[0]+2*p[1]), h, 1e-3, "at %v", p)
	}

	_, err := m.HeightAt(-0.5, 3)
	assert.ErrorIs(t, err, ErrOutsideMesh)
	_, err = m.HeightAt(3, 16.01)
	assert.ErrorIs(t, err, ErrOutsideMesh)
}

func TestActiveTrianglesFaceUp(t *testing.T) {
	const level = 3
	g := newTestGrid(2, level)
	g.randomize(2, 200)
	m := newTestMesh(t, g, testOptions(level))
	m.Refine(cameraAt(4, 4), AllVisible{})

	total := 0
	for id := range m.TreeCount() {
		for _, tri := range m.ActiveTriangles(id) {
			total++
			p := tri.Positions
			n := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
			assert.GreaterOrEqual(t, n.Y, float32(0))
			for _, uv := range tri.TexCoords {
				assert.True(t, uv.X >= 0 && uv.X <= 1 && uv.Y >= 0 && uv.Y <= 1, "uv %v", uv)
			}
		}
	}
	assert.Equal(t, m.ActiveCount(), total)
}

func TestRayTest(t *testing.T) {
	const level = 3
	g := newTestGrid(2, level)
	g.randomize(13, 100)
	m := newTestMesh(t, g, testOptions(level))
	m.Refine(cameraAt(4, 4), AllVisible{})

	want, err := m.HeightAt(5.5, 6.25)
	require.NoError(t, err)

	hit, ok := m.RayTest(math.Vec3{X: 5.5, Y: 500, Z: 6.25}, math.Vec3{X: 5.5, Y: -500, Z: 6.25})
	require.True(t, ok)
	assert.InDelta(t, want, hit.Point.Y, 1e-2)
	assert.True(t, m.Tree(hit.Tree).Active(hit.Index))

	_, ok = m.RayTest(math.Vec3{X: 1, Y: 500, Z: 1}, math.Vec3{X: 15, Y: 400, Z: 15})
	assert.False(t, ok, "segment above the terrain")
}

func TestFrameBudgetStopsSplitting(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.randomize(8, 900)
	opts := testOptions(level)
	opts.FrameBudget = 3 * time.Millisecond
	now := time.Unix(0, 0)
	opts.Clock = func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
	m := newTestMesh(t, g, opts)

	stats := m.Refine(cameraAt(8, 8), AllVisible{})
	assert.Equal(t, TruncatedTime, stats.Truncated)
	assert.Positive(t, stats.SplitQueue, "work is left for the next frame")
	checkFrontier(t, m)
}

func TestBudgetTruncation(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.randomize(8, 900)
	opts := testOptions(level)
	opts.MaxTriangles = 50
	m := newTestMesh(t, g, opts)

	stats := m.Refine(cameraAt(8, 8), AllVisible{})
	assert.Equal(t, TruncatedBudget, stats.Truncated)
	assert.Equal(t, "budget", stats.Truncated.String())
}

func TestSplitCostMatchesForcedSplits(t *testing.T) {
	const level = 5
	g := newTestGrid(2, level)
	g.randomize(3, 4000)
	opts := testOptions(level)
	opts.Merge = false
	opts.MaxTriangles = 40
	opts.AbsMaxTriangles = 40
	m := newTestMesh(t, g, opts)
	m.Refine(cameraAt(20, 20), AllVisible{})

	for range 200 {
		h, ok := m.splitQ.Highest()
		if !ok {
			break
		}
		tree, i := m.splitQ.Entry(h)
		clear(m.sim)
		cost := m.trees[tree].splitCost(i, m.sim)

		before := m.ActiveCount()
		m.trees[tree].forceSplit(i)
		require.Equal(t, before+cost, m.ActiveCount(), "tree %d triangle %d", tree, i)
	}
	checkFrontier(t, m)
	checkNoCracks(t, m)
}

func TestHardCapHoldsWithoutMerging(t *testing.T) {
	const level = 5
	capped := 0
	for seed := range int64(4) {
		g := newTestGrid(2, level)
		g.randomize(seed, 4000)
		for limit := 20; limit <= 200; limit += 3 {
			opts := testOptions(level)
			opts.Merge = false
			opts.MaxTriangles = limit
			opts.AbsMaxTriangles = limit
			m := newTestMesh(t, g, opts)

			for frame := range 3 {
				stats := m.Refine(cameraAt(float32(10*frame), 20), AllVisible{})
				require.LessOrEqual(t, stats.Active, limit, "seed %d limit %d", seed, limit)
				if stats.Truncated == TruncatedHardCap {
					capped++
				}
			}
		}
	}
	assert.Positive(t, capped, "cascading splits reach the hard cap")
	assert.Equal(t, "hard-cap", TruncatedHardCap.String())
}

func TestInvisibleTreesKeepTheirTriangles(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.randomize(4, 900)
	m := newTestMesh(t, g, testOptions(level))

	m.Refine(cameraAt(8, 8), AllVisible{})
	before := m.ActiveCount()
	require.Greater(t, before, m.TreeCount())

	for range 5 {
		stats := m.Refine(cameraAt(8, 8), noneVisible{})
		assert.Equal(t, m.TreeCount(), stats.SkippedTrees)
	}
	assert.Equal(t, before, m.ActiveCount())
}

func TestEvictAfterFrames(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.randomize(4, 900)
	opts := testOptions(level)
	opts.EvictAfterFrames = 2
	m := newTestMesh(t, g, opts)

	m.Refine(cameraAt(8, 8), AllVisible{})
	before := m.ActiveCount()

	for range 2 {
		m.Refine(cameraAt(8, 8), noneVisible{})
	}
	assert.Equal(t, before, m.ActiveCount(), "still within the grace period")

	stats := m.Refine(cameraAt(8, 8), noneVisible{})
	assert.Zero(t, stats.SkippedTrees)
	assert.Equal(t, m.TreeCount(), m.ActiveCount(), "evicted trees collapse to their roots")
	assert.Zero(t, m.VisibleCount())
}

func TestMergeDisabledOnlyRefines(t *testing.T) {
	const level = 4
	g := newTestGrid(2, level)
	g.randomize(4, 900)
	opts := testOptions(level)
	opts.Merge = false
	m := newTestMesh(t, g, opts)

	m.Refine(cameraAt(8, 8), AllVisible{})
	before := m.ActiveCount()
	stats := m.Refine(cameraAt(-900, 8), AllVisible{})

	assert.Zero(t, stats.Merges)
	assert.Zero(t, m.MergeQueueLen())
	assert.Equal(t, before, m.ActiveCount())
}
