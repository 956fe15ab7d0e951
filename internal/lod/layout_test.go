package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutEdges(t *testing.T) {
	l, err := NewLayout(3)
	require.NoError(t, err)

	assert.Equal(t, EdgeDiag, l.EdgeOf(1))
	assert.Equal(t, EdgeLeft, l.EdgeOf(2))
	assert.Equal(t, EdgeTop, l.EdgeOf(3))
	assert.Equal(t, TriIndex(1), l.Neighbour(1), "root pairs with the mirrored root")
	assert.Equal(t, "diag", EdgeDiag.String())
}

func TestLayoutLookupCoversTile(t *testing.T) {
	l, err := NewLayout(4)
	require.NoError(t, err)

	for r := 0; r <= l.Edge; r++ {
		for c := 0; c+r <= l.Edge; c++ {
			i, ok := l.Lookup(r, c)
			require.True(t, ok)
			require.Equal(t, r, l.Row(i), "(%d,%d)", r, c)
			require.Equal(t, c, l.Col(i), "(%d,%d)", r, c)
		}
	}
	_, ok := l.Lookup(l.Edge, 1)
	assert.False(t, ok, "points past the diagonal belong to the mirrored tree")
}

func TestLayoutNeighbours(t *testing.T) {
	l, err := NewLayout(4)
	require.NoError(t, err)
	s := l.Edge

	for i := TriIndex(1); i < l.TriNo; i++ {
		n := l.Neighbour(i)
		require.NotZero(t, n, "triangle %d", i)
		require.Equal(t, Level(i), Level(n), "triangle %d and %d", i, n)

		r, c := l.Row(i), l.Col(i)
		switch l.EdgeOf(i) {
		case EdgeInner:
			require.NotEqual(t, i, n)
			require.Equal(t, i, l.Neighbour(n))
			require.Equal(t, r, l.Row(n))
			require.Equal(t, c, l.Col(n))
		case EdgeTop:
			require.Equal(t, 0, l.Row(n))
			require.Equal(t, s-c, l.Col(n))
		case EdgeLeft:
			require.Equal(t, s-r, l.Row(n))
			require.Equal(t, 0, l.Col(n))
		case EdgeDiag:
			require.Equal(t, s-r, l.Row(n))
			require.Equal(t, s-c, l.Col(n))
		}
		if l.EdgeOf(i) != EdgeInner {
			require.Equal(t, l.EdgeOf(i), l.EdgeOf(n), "mirror edges match")
			require.Equal(t, i, l.Neighbour(n))
		}
	}
}
