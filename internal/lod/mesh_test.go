package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadInput(t *testing.T) {
	g := newTestGrid(2, 3)

	opts := testOptions(3)
	opts.TileLevel = 0
	_, err := New(g, opts)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = New(g, testOptions(5))
	assert.ErrorIs(t, err, ErrGridMismatch, "17 samples cannot hold a 32-cell tile")

	odd := &testGrid{rows: 20, cols: 17, h: make([]int16, 20*17), scale: 1}
	_, err = New(odd, testOptions(3))
	assert.ErrorIs(t, err, ErrGridMismatch)

	opts = testOptions(3)
	opts.AbsMaxTriangles = opts.MaxTriangles - 1
	_, err = New(g, opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	opts = testOptions(3)
	opts.FarClip = opts.NearClip
	_, err = New(g, opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	opts = testOptions(3)
	opts.PriorityResolution = int(MaxPriority)
	_, err = New(g, opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	opts.PriorityResolution = int(MaxPriority) - 1
	_, err = New(g, opts)
	assert.NoError(t, err, "largest resolution the config accepts")
}

func TestNewBuildsMirroredPairs(t *testing.T) {
	g := newTestGrid(3, 2)
	m := newTestMesh(t, g, testOptions(2))

	assert.Equal(t, 3, m.TileRows())
	assert.Equal(t, 3, m.TileCols())
	assert.Equal(t, 18, m.TreeCount())
	assert.Equal(t, 18, m.ActiveCount(), "every tree starts with its root active")
	assert.Zero(t, m.VisibleCount())

	for id := range m.TreeCount() {
		b := m.Tree(id)
		assert.Equal(t, id%2 == 1, b.Mirrored())
		assert.True(t, b.Active(1))
	}

	// Middle tile: normal tree borders three mirrored trees.
	n := m.treeAt(1, 1, false)
	assert.Same(t, m.treeAt(0, 1, true), n.top)
	assert.Same(t, m.treeAt(1, 0, true), n.left)
	assert.Same(t, m.treeAt(1, 1, true), n.diag)

	x := m.treeAt(1, 1, true)
	assert.Same(t, m.treeAt(2, 1, false), x.top)
	assert.Same(t, m.treeAt(1, 2, false), x.left)
	assert.Same(t, n, x.diag)

	// Border trees have no partner outside the mesh.
	corner := m.treeAt(0, 0, false)
	assert.Nil(t, corner.top)
	assert.Nil(t, corner.left)
	_, nt := corner.Neighbour(3)
	assert.Nil(t, nt)
}

func TestNeighbourSharesWorldPoint(t *testing.T) {
	g := newTestGrid(2, 3)
	m := newTestMesh(t, g, testOptions(3))

	for _, b := range m.trees {
		for i := TriIndex(1); i < m.layout.TriNo; i++ {
			n, nt := b.Neighbour(i)
			if nt == nil {
				continue
			}
			require.Equal(t, b.mrow(i), nt.mrow(n), "tree %d triangle %d", b.id, i)
			require.Equal(t, b.mcol(i), nt.mcol(n), "tree %d triangle %d", b.id, i)
		}
	}
}

func TestMemoryBytesGrowsWithTiles(t *testing.T) {
	small := newTestMesh(t, newTestGrid(1, 3), testOptions(3))
	large := newTestMesh(t, newTestGrid(3, 3), testOptions(3))
	assert.Greater(t, large.MemoryBytes(), small.MemoryBytes())
}
