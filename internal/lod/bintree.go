package lod

import (
	"github.com/Faultbox/midgard-lod/pkg/math"
)

// HeightSampler supplies quantized heights for a grid of samples.
// World height is base + raw*scale for the sampler's own base and scale.
type HeightSampler interface {
	Get(row, col int) int16
	Rows() int
	Cols() int
	WorldHeight(raw int16) float32
}

// BinTree is one triangular half of a terrain tile. Per-triangle data lives
// in dense arrays indexed by TriIndex; only active triangles own a cache node.
type BinTree struct {
	id     int
	mesh   *Mesh
	layout *Layout
	mirror bool
	dr, dc int // world position of tile-local (0,0)

	rawHeight  []int16  // TriNo+2: split point heights and the three corners
	rawMin     []int16  // LeafTriNo: lowest height under each internal triangle
	rawMax     []int16  // LeafTriNo
	treeError  []uint16 // LeafTriNo: accumulated deviation, clamped
	cacheIndex []Handle // TriNo: zero unless the triangle is active

	top, left, diag *BinTree

	treeVis   VisState
	outFrames int
	skipped   bool // left untouched by the current refine pass
}

func newBinTree(m *Mesh, id int, mirror bool, dr, dc int) *BinTree {
	l := m.layout
	return &BinTree{
		id:         id,
		mesh:       m,
		layout:     l,
		mirror:     mirror,
		dr:         dr,
		dc:         dc,
		rawHeight:  make([]int16, l.TriNo+2),
		rawMin:     make([]int16, l.LeafTriNo),
		rawMax:     make([]int16, l.LeafTriNo),
		treeError:  make([]uint16, l.LeafTriNo),
		cacheIndex: make([]Handle, l.TriNo),
		treeVis:    VisUndef,
	}
}

// ID returns the tree's index in the mesh.
func (b *BinTree) ID() int { return b.id }

// Mirrored reports whether the tree is the south-east half of its tile.
func (b *BinTree) Mirrored() bool { return b.mirror }

// Visible returns the root classification from the last refine pass.
func (b *BinTree) Visible() VisState { return b.treeVis }

func (b *BinTree) mrow(i TriIndex) int {
	if b.mirror {
		return b.dr - b.layout.Row(i)
	}
	return b.dr + b.layout.Row(i)
}

func (b *BinTree) mcol(i TriIndex) int {
	if b.mirror {
		return b.dc - b.layout.Col(i)
	}
	return b.dc + b.layout.Col(i)
}

// init samples every vertex and derives bounds and error bottom-up.
func (b *BinTree) init(s HeightSampler) {
	l := b.layout
	for _, v := range [...]TriIndex{0, l.TriNo, l.TriNo + 1} {
		b.rawHeight[v] = s.Get(b.mrow(v), b.mcol(v))
	}
	b.initTriangle(s, 1)
	b.treeVis = VisUndef
}

func (b *BinTree) initTriangle(s HeightSampler, i TriIndex) {
	b.cacheIndex[i] = 0
	b.rawHeight[i] = s.Get(b.mrow(i), b.mcol(i))
	if !b.layout.IsLeaf(i) {
		b.initTriangle(s, FirstChild(i))
		b.initTriangle(s, SecondChild(i))
		b.calculateVariance(i)
	}
}

// localError is how far the split point of i sits from the straight line
// between its base corners, rounded up so any displacement counts.
func (b *BinTree) localError(i TriIndex) int {
	h := int(b.rawHeight[i])
	h0 := int(b.rawHeight[b.layout.v0[i]])
	h1 := int(b.rawHeight[b.layout.v1[i]])
	d := 2*h - h0 - h1
	if d < 0 {
		d = -d
	}
	return (d + 1) / 2
}

// calculateVariance derives bounds and error of internal triangle i from
// its children. Bounds cover the closed triangle: apex, base corners, split
// point and everything below.
func (b *BinTree) calculateVariance(i TriIndex) {
	l := b.layout
	f, s := FirstChild(i), SecondChild(i)

	var hmin, hmax, err int
	if !l.IsLeaf(f) {
		hmin = int(min(b.rawMin[f], b.rawMin[s]))
		hmax = int(max(b.rawMax[f], b.rawMax[s]))
		err = int(max(b.treeError[f], b.treeError[s]))
	} else {
		hmin = int(min(b.rawHeight[f], b.rawHeight[s]))
		hmax = int(max(b.rawHeight[f], b.rawHeight[s]))
		err = max(b.localError(f), b.localError(s))
	}
	for _, v := range [...]TriIndex{i, Parent(i), l.v0[i], l.v1[i]} {
		h := int(b.rawHeight[v])
		hmin = min(hmin, h)
		hmax = max(hmax, h)
	}

	err += b.localError(i)
	if err > 0xFFFF {
		err = 0xFFFF
	}
	b.rawMin[i] = int16(hmin)
	b.rawMax[i] = int16(hmax)
	b.treeError[i] = uint16(err)
}

// RawHeight returns the stored height of vertex i.
func (b *BinTree) RawHeight(i TriIndex) int16 { return b.rawHeight[i] }

// TreeError returns the accumulated error of internal triangle i; leaves
// report 0.
func (b *BinTree) TreeError(i TriIndex) uint16 {
	b.layout.mustValid(i)
	if b.layout.IsLeaf(i) {
		return 0
	}
	return b.treeError[i]
}

// HeightRange returns the raw height bounds of internal triangle i.
func (b *BinTree) HeightRange(i TriIndex) (lo, hi int16) {
	b.layout.mustValid(i)
	if b.layout.IsLeaf(i) {
		panic("lod: leaves carry no height range")
	}
	return b.rawMin[i], b.rawMax[i]
}

// Bounds returns the world-space box of internal triangle i.
func (b *BinTree) Bounds(i TriIndex) math.Box3 {
	l := b.layout
	lo, hi := b.HeightRange(i)
	y0, y1 := b.mesh.sampler.WorldHeight(lo), b.mesh.sampler.WorldHeight(hi)
	box := math.EmptyBox()
	for _, v := range [...]TriIndex{Parent(i), l.v0[i], l.v1[i]} {
		box = box.Extend(math.Vec3{X: float32(b.mrow(v)), Y: y0, Z: float32(b.mcol(v))})
		box = box.Extend(math.Vec3{X: float32(b.mrow(v)), Y: y1, Z: float32(b.mcol(v))})
	}
	return box
}

// Vertex returns the world position of vertex i.
func (b *BinTree) Vertex(i TriIndex) math.Vec3 {
	return math.Vec3{
		X: float32(b.mrow(i)),
		Y: b.mesh.sampler.WorldHeight(b.rawHeight[i]),
		Z: float32(b.mcol(i)),
	}
}

// TextureCoord returns the position of vertex i within its tile, 0..1.
func (b *BinTree) TextureCoord(i TriIndex) math.Vec2 {
	r, c := float32(b.layout.Row(i)), float32(b.layout.Col(i))
	s := float32(b.layout.Edge)
	if b.mirror {
		r, c = s-r, s-c
	}
	return math.Vec2{X: r / s, Y: c / s}
}

// Neighbour returns the diamond partner of i and the tree holding it, or
// (0, nil) on the outer border of the mesh.
func (b *BinTree) Neighbour(i TriIndex) (TriIndex, *BinTree) {
	l := b.layout
	var t *BinTree
	switch l.EdgeOf(i) {
	case EdgeInner:
		t = b
	case EdgeTop:
		t = b.top
	case EdgeLeft:
		t = b.left
	case EdgeDiag:
		t = b.diag
	}
	if t == nil {
		return 0, nil
	}
	return l.neighbour[i], t
}

// Active reports whether i is a leaf of the current frontier.
func (b *BinTree) Active(i TriIndex) bool {
	return b.cacheIndex[i] != 0
}

// VisibilityOf returns the classification of active triangle i from the
// last refine, VisOut if it is not active.
func (b *BinTree) VisibilityOf(i TriIndex) VisState {
	if b.cacheIndex[i] == 0 {
		return VisOut
	}
	return b.node(i).Vis
}

func (b *BinTree) node(i TriIndex) *TriNode {
	return b.mesh.cache.Get(b.cacheIndex[i])
}

// priorityOf returns the stored priority of i, 0 if it is not active.
func (b *BinTree) priorityOf(i TriIndex) Priority {
	if b.cacheIndex[i] == 0 {
		return 0
	}
	return b.node(i).Priority
}

func (b *BinTree) mergeHandle(i TriIndex) Handle {
	if i == 0 || b.cacheIndex[i] == 0 {
		return 0
	}
	return b.node(i).Merge
}

// ForEachActive calls fn for every active triangle in index order of a
// depth-first walk.
func (b *BinTree) ForEachActive(fn func(i TriIndex)) {
	b.walkActive(1, fn)
}

func (b *BinTree) walkActive(i TriIndex, fn func(TriIndex)) {
	if b.cacheIndex[i] != 0 {
		fn(i)
		return
	}
	if b.layout.IsLeaf(i) {
		return
	}
	b.walkActive(FirstChild(i), fn)
	b.walkActive(SecondChild(i), fn)
}

// ActiveCount returns the number of active triangles in this tree.
func (b *BinTree) ActiveCount() int {
	n := 0
	b.ForEachActive(func(TriIndex) { n++ })
	return n
}

// contains reports whether the closed triangle i covers tile-local (r, c).
func (b *BinTree) contains(i TriIndex, r, c float64) bool {
	l := b.layout
	a := Parent(i)
	ar, ac := float64(l.Row(a)), float64(l.Col(a))
	r0, c0 := float64(l.Row(l.v0[i])), float64(l.Col(l.v0[i]))
	r1, c1 := float64(l.Row(l.v1[i])), float64(l.Col(l.v1[i]))

	d1 := (r0-ar)*(c-ac) - (c0-ac)*(r-ar)
	d2 := (r1-r0)*(c-c0) - (c1-c0)*(r-r0)
	d3 := (ar-r1)*(c-c1) - (ac-c1)*(r-r1)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// updateVariance re-reads the sample at tile-local (r, c) and recomputes
// every triangle whose footprint covers it.
func (b *BinTree) updateVariance(s HeightSampler, r, c int) {
	l := b.layout
	h := s.Get(b.mrow(0)+b.sign()*r, b.mcol(0)+b.sign()*c)
	for _, v := range [...]TriIndex{0, l.TriNo, l.TriNo + 1} {
		if l.Row(v) == r && l.Col(v) == c {
			b.rawHeight[v] = h
		}
	}
	if i, ok := l.Lookup(r, c); ok && l.Valid(i) {
		b.rawHeight[i] = h
		if l.edge[i] == EdgeInner {
			b.rawHeight[l.neighbour[i]] = h
		}
	}
	b.refreshCovering(1, float64(r), float64(c))
}

func (b *BinTree) refreshCovering(i TriIndex, r, c float64) {
	if b.layout.IsLeaf(i) || !b.contains(i, r, c) {
		return
	}
	b.refreshCovering(FirstChild(i), r, c)
	b.refreshCovering(SecondChild(i), r, c)
	b.calculateVariance(i)
}

func (b *BinTree) sign() int {
	if b.mirror {
		return -1
	}
	return 1
}
