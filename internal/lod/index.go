package lod

import (
	"fmt"
	"math/bits"
)

// MaxTileLevel bounds the tile edge at 2^12 cells so cache handles stay in 24 bits.
const MaxTileLevel = 12

// TriIndex addresses a triangle inside one bintree. The root is 1 and the
// children of i are 2i and 2i+1. As a vertex index, i names the midpoint of
// the hypotenuse of triangle i; 0, TriNo and TriNo+1 name the root corners.
type TriIndex uint32

// Parent returns the triangle that was bisected to produce i.
// The parent of the root is 0, which is also the root's apex vertex.
func Parent(i TriIndex) TriIndex { return i >> 1 }

// FirstChild returns the child on the v0 side of i's split line.
func FirstChild(i TriIndex) TriIndex { return i << 1 }

// SecondChild returns the child on the v1 side of i's split line.
func SecondChild(i TriIndex) TriIndex { return i<<1 | 1 }

// Sibling returns the other child of i's parent.
func Sibling(i TriIndex) TriIndex { return i ^ 1 }

// Level returns the depth of i; the root is level 0.
func Level(i TriIndex) int {
	if i == 0 {
		panic("lod: level of triangle 0")
	}
	return bits.Len32(uint32(i)) - 1
}

// Size is the shape shared by every bintree of a mesh.
type Size struct {
	Level     int      // tile edge is 2^Level cells
	Edge      int      // cells along one tile side
	TriNo     TriIndex // Edge*Edge; valid triangles are 1..TriNo-1
	LeafTriNo TriIndex // first index of the deepest level
}

// NewSize returns the shape of a tile with 2^level cells per side.
func NewSize(level int) (Size, error) {
	if level < 1 || level > MaxTileLevel {
		return Size{}, fmt.Errorf("%w: level %d not in [1,%d]", ErrInvalidSize, level, MaxTileLevel)
	}
	edge := 1 << level
	triNo := TriIndex(edge * edge)
	return Size{Level: level, Edge: edge, TriNo: triNo, LeafTriNo: triNo / 2}, nil
}

// Levels returns the number of triangle levels in a tree.
func (s Size) Levels() int { return 2 * s.Level }

// IsLeaf reports whether i is on the deepest level and cannot be split.
func (s Size) IsLeaf(i TriIndex) bool { return i >= s.LeafTriNo }

// Valid reports whether i addresses a triangle.
func (s Size) Valid(i TriIndex) bool { return i >= 1 && i < s.TriNo }

func (s Size) mustValid(i TriIndex) {
	if !s.Valid(i) {
		panic(fmt.Sprintf("lod: triangle index %d out of range [1,%d)", i, s.TriNo))
	}
}

// Locate derives the tile-local position of triangle i's split point and the
// vertex indices of its two base corners by walking the bits of i from the
// root. The apex vertex is always Parent(i).
func (s Size) Locate(i TriIndex) (row, col int, v0, v1 TriIndex) {
	s.mustValid(i)

	type vert struct {
		idx      TriIndex
		row, col int
	}
	a := vert{0, 0, 0}
	b0 := vert{s.TriNo + 1, s.Edge, 0}
	b1 := vert{s.TriNo, 0, s.Edge}

	node := TriIndex(1)
	for bit := Level(i) - 1; bit >= 0; bit-- {
		c := vert{node, (b0.row + b1.row) / 2, (b0.col + b1.col) / 2}
		if i>>uint(bit)&1 == 0 {
			a, b0, b1 = c, a, b0
			node = FirstChild(node)
		} else {
			a, b0, b1 = c, b1, a
			node = SecondChild(node)
		}
	}
	return (b0.row + b1.row) / 2, (b0.col + b1.col) / 2, b0.idx, b1.idx
}
