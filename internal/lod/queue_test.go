package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrdering(t *testing.T) {
	q := NewQueue(16)
	_, ok := q.Highest()
	require.False(t, ok)

	q.Insert(0, 10, 5)
	hi := q.Insert(1, 11, 12)
	lo := q.Insert(2, 12, 1)
	assert.Equal(t, 3, q.Len())

	h, ok := q.Highest()
	require.True(t, ok)
	assert.Equal(t, hi, h)
	tree, tri := q.Entry(h)
	assert.Equal(t, 1, tree)
	assert.Equal(t, TriIndex(11), tri)

	h, ok = q.Lowest()
	require.True(t, ok)
	assert.Equal(t, lo, h)

	q.Remove(hi)
	h, _ = q.Highest()
	assert.Equal(t, Priority(5), q.Bucket(h))
}

func TestQueueMoveKeepsHandle(t *testing.T) {
	q := NewQueue(8)
	a := q.Insert(0, 2, 3)
	b := q.Insert(0, 3, 3)

	q.Move(a, 7)
	assert.Equal(t, Priority(7), q.Bucket(a))
	h, _ := q.Highest()
	assert.Equal(t, a, h)

	q.Move(a, 0)
	h, _ = q.Lowest()
	assert.Equal(t, a, h)
	h, _ = q.Highest()
	assert.Equal(t, b, h)
}

func TestQueueHandlesSnapshot(t *testing.T) {
	q := NewQueue(8)
	q.Insert(0, 1, 2)
	q.Insert(0, 2, 6)
	q.Insert(0, 3, 4)

	var got []Priority
	for _, h := range q.Handles() {
		got = append(got, q.Bucket(h))
	}
	assert.Equal(t, []Priority{6, 4, 2}, got)
}

func TestQueueMisuse(t *testing.T) {
	q := NewQueue(4)
	h := q.Insert(0, 1, 1)
	q.Remove(h)

	assert.Panics(t, func() { q.Remove(h) }, "double removal")
	assert.Panics(t, func() { q.Insert(0, 1, 4) }, "priority past resolution")
	assert.Panics(t, func() { NewQueue(1) })
	assert.Zero(t, q.Len())
}
