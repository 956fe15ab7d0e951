package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexArithmetic(t *testing.T) {
	for i := TriIndex(1); i < 1024; i++ {
		assert.Equal(t, i, Parent(FirstChild(i)))
		assert.Equal(t, i, Parent(SecondChild(i)))
		assert.Equal(t, SecondChild(i), Sibling(FirstChild(i)))
		assert.Equal(t, Level(i)+1, Level(FirstChild(i)))
	}
	assert.Equal(t, 0, Level(1))
	assert.Equal(t, 3, Level(15))
	assert.Panics(t, func() { Level(0) })
}

func TestNewSize(t *testing.T) {
	s, err := NewSize(3)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Edge)
	assert.Equal(t, TriIndex(64), s.TriNo)
	assert.Equal(t, TriIndex(32), s.LeafTriNo)
	assert.Equal(t, 6, s.Levels())
	assert.True(t, s.IsLeaf(32))
	assert.False(t, s.IsLeaf(31))

	for _, level := range []int{0, -1, MaxTileLevel + 1} {
		_, err := NewSize(level)
		assert.ErrorIs(t, err, ErrInvalidSize, "level %d", level)
	}
}

func TestLocateTopLevels(t *testing.T) {
	s, err := NewSize(2)
	require.NoError(t, err)

	tests := []struct {
		i        TriIndex
		row, col int
		v0, v1   TriIndex
	}{
		{1, 2, 2, s.TriNo + 1, s.TriNo},
		{2, 2, 0, 0, s.TriNo + 1},
		{3, 0, 2, s.TriNo, 0},
		{4, 1, 1, 1, 0},
		{5, 3, 1, s.TriNo + 1, 1},
	}
	for _, tt := range tests {
		row, col, v0, v1 := s.Locate(tt.i)
		assert.Equal(t, tt.row, row, "row of %d", tt.i)
		assert.Equal(t, tt.col, col, "col of %d", tt.i)
		assert.Equal(t, tt.v0, v0, "v0 of %d", tt.i)
		assert.Equal(t, tt.v1, v1, "v1 of %d", tt.i)
	}
}

func TestLocateRejectsInvalidIndex(t *testing.T) {
	s, err := NewSize(2)
	require.NoError(t, err)
	assert.Panics(t, func() { s.Locate(0) })
	assert.Panics(t, func() { s.Locate(s.TriNo) })
}

func TestLocateMatchesLayout(t *testing.T) {
	for level := 1; level <= 5; level++ {
		l, err := NewLayout(level)
		require.NoError(t, err)
		for i := TriIndex(1); i < l.TriNo; i++ {
			row, col, v0, v1 := l.Locate(i)
			require.Equal(t, l.Row(i), row, "level %d triangle %d", level, i)
			require.Equal(t, l.Col(i), col, "level %d triangle %d", level, i)
			require.Equal(t, l.V0(i), v0, "level %d triangle %d", level, i)
			require.Equal(t, l.V1(i), v1, "level %d triangle %d", level, i)
		}
	}
}
