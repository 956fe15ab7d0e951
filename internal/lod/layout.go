package lod

import "fmt"

// Edge classifies where a triangle's hypotenuse lies within its tile.
type Edge uint8

const (
	EdgeInner Edge = iota // diamond partner is in the same tree
	EdgeTop               // partner is across row 0
	EdgeLeft              // partner is across col 0
	EdgeDiag              // partner is across the row+col == size diagonal
)

func (e Edge) String() string {
	switch e {
	case EdgeInner:
		return "inner"
	case EdgeTop:
		return "top"
	case EdgeLeft:
		return "left"
	case EdgeDiag:
		return "diag"
	default:
		return fmt.Sprintf("edge(%d)", uint8(e))
	}
}

// Layout holds everything about a bintree that depends only on its size.
// It is computed once per mesh and shared read-only by every tree.
type Layout struct {
	Size

	row, col  []uint16   // split point of each triangle, plus the three corners
	v0, v1    []TriIndex // base corner vertex indices
	neighbour []TriIndex // diamond partner, possibly in another tree
	edge      []Edge
	lookup    []TriIndex // (row*(Edge+1)+col) -> a triangle whose split point is there
}

// NewLayout builds the shared table for a tile of 2^level cells per side.
func NewLayout(level int) (*Layout, error) {
	size, err := NewSize(level)
	if err != nil {
		return nil, err
	}

	n := int(size.TriNo) + 2
	l := &Layout{
		Size:      size,
		row:       make([]uint16, n),
		col:       make([]uint16, n),
		v0:        make([]TriIndex, size.TriNo),
		v1:        make([]TriIndex, size.TriNo),
		neighbour: make([]TriIndex, size.TriNo),
		edge:      make([]Edge, size.TriNo),
		lookup:    make([]TriIndex, (size.Edge+1)*(size.Edge+1)),
	}

	s := uint16(size.Edge)
	l.row[size.TriNo], l.col[size.TriNo] = 0, s
	l.row[size.TriNo+1], l.col[size.TriNo+1] = s, 0
	l.v0[1], l.v1[1] = size.TriNo+1, size.TriNo

	// Parents precede children, so one forward pass suffices.
	for i := TriIndex(1); i < size.TriNo; i++ {
		if i > 1 {
			p := Parent(i)
			if i&1 == 0 {
				l.v0[i], l.v1[i] = Parent(p), l.v0[p]
			} else {
				l.v0[i], l.v1[i] = l.v1[p], Parent(p)
			}
		}
		l.row[i] = (l.row[l.v0[i]] + l.row[l.v1[i]]) / 2
		l.col[i] = (l.col[l.v0[i]] + l.col[l.v1[i]]) / 2
		l.edge[i] = l.classify(i)
	}

	// Inner split points are shared by exactly two triangles of the same
	// level; edge points by one triangle of this tree and one across the edge.
	const unset = ^TriIndex(0)
	for k := range l.lookup {
		l.lookup[k] = unset
	}
	for i := TriIndex(1); i < size.TriNo; i++ {
		k := l.key(int(l.row[i]), int(l.col[i]))
		if l.edge[i] == EdgeInner {
			if j := l.lookup[k]; j != unset {
				l.neighbour[i], l.neighbour[j] = j, i
				continue
			}
		}
		l.lookup[k] = i
	}
	for i := TriIndex(1); i < size.TriNo; i++ {
		r, c := int(l.row[i]), int(l.col[i])
		switch l.edge[i] {
		case EdgeTop:
			l.neighbour[i] = l.lookup[l.key(r, size.Edge-c)]
		case EdgeLeft:
			l.neighbour[i] = l.lookup[l.key(size.Edge-r, c)]
		case EdgeDiag:
			l.neighbour[i] = l.lookup[l.key(size.Edge-r, size.Edge-c)]
		}
	}
	l.lookup[l.key(0, 0)] = 0
	l.lookup[l.key(0, size.Edge)] = size.TriNo
	l.lookup[l.key(size.Edge, 0)] = size.TriNo + 1

	return l, nil
}

func (l *Layout) key(row, col int) int { return row*(l.Edge+1) + col }

func (l *Layout) classify(i TriIndex) Edge {
	r, c := int(l.row[i]), int(l.col[i])
	switch {
	case r == 0:
		return EdgeTop
	case c == 0:
		return EdgeLeft
	case r+c == l.Edge:
		return EdgeDiag
	default:
		return EdgeInner
	}
}

// Row returns the tile-local row of vertex i.
func (l *Layout) Row(i TriIndex) int { return int(l.row[i]) }

// Col returns the tile-local column of vertex i.
func (l *Layout) Col(i TriIndex) int { return int(l.col[i]) }

// V0 returns the first base corner of triangle i.
func (l *Layout) V0(i TriIndex) TriIndex { l.mustValid(i); return l.v0[i] }

// V1 returns the second base corner of triangle i.
func (l *Layout) V1(i TriIndex) TriIndex { l.mustValid(i); return l.v1[i] }

// Neighbour returns the diamond partner of i. For edge triangles the index
// refers to the adjacent tree named by EdgeOf.
func (l *Layout) Neighbour(i TriIndex) TriIndex { l.mustValid(i); return l.neighbour[i] }

// EdgeOf reports which tree holds the diamond partner of i.
func (l *Layout) EdgeOf(i TriIndex) Edge { l.mustValid(i); return l.edge[i] }

// Lookup returns a vertex index at tile-local (row, col). Points with
// row+col > Edge lie in the mirrored tree and are reported as missing.
func (l *Layout) Lookup(row, col int) (TriIndex, bool) {
	if row < 0 || col < 0 || row+col > l.Edge {
		return 0, false
	}
	return l.lookup[l.key(row, col)], true
}
