package lod

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// Triangle is an active triangle ready to hand to a renderer. Vertices are
// ordered so the face normal points up.
type Triangle struct {
	Index     TriIndex
	Vertices  [3]TriIndex
	Positions [3]math.Vec3
	TexCoords [3]math.Vec2
}

// ActiveTriangles returns the current frontier of tree treeID.
func (m *Mesh) ActiveTriangles(treeID int) []Triangle {
	t := m.trees[treeID]
	var out []Triangle
	t.ForEachActive(func(i TriIndex) {
		out = append(out, t.Triangle(i))
	})
	return out
}

// Triangle returns the geometry of triangle i.
func (b *BinTree) Triangle(i TriIndex) Triangle {
	l := b.layout
	l.mustValid(i)
	vs := [3]TriIndex{Parent(i), l.v0[i], l.v1[i]}
	var p [3]math.Vec3
	for k, v := range vs {
		p[k] = b.Vertex(v)
	}
	if p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Y < 0 {
		vs[1], vs[2] = vs[2], vs[1]
		p[1], p[2] = p[2], p[1]
	}
	tri := Triangle{Index: i, Vertices: vs, Positions: p}
	for k, v := range vs {
		tri.TexCoords[k] = b.TextureCoord(v)
	}
	return tri
}

// locate maps a world position to the tree that covers it and the
// tree-local coordinates of the position.
func (m *Mesh) locate(row, col float64) (*BinTree, float64, float64, error) {
	s := float64(m.layout.Edge)
	if !(row >= 0 && col >= 0 && row <= float64(m.rows)*s && col <= float64(m.cols)*s) {
		return nil, 0, 0, fmt.Errorf("%w: (%g, %g)", ErrOutsideMesh, row, col)
	}
	tr := min(int(row/s), m.rows-1)
	tc := min(int(col/s), m.cols-1)
	lr, lc := row-float64(tr)*s, col-float64(tc)*s
	if lr+lc <= s {
		return m.treeAt(tr, tc, false), lr, lc, nil
	}
	return m.treeAt(tr, tc, true), s - lr, s - lc, nil
}

// HeightAt returns the height of the current frontier at a world position,
// interpolated across the active triangle that covers it. Grid vertices
// that belong to the frontier return their sampled height exactly.
func (m *Mesh) HeightAt(row, col float32) (float32, error) {
	t, lr, lc, err := m.locate(float64(row), float64(col))
	if err != nil {
		return 0, err
	}
	return t.heightAt(lr, lc), nil
}

func (b *BinTree) heightAt(r, c float64) float32 {
	l := b.layout
	i := TriIndex(1)
	for !b.Active(i) {
		if l.IsLeaf(i) {
			panic(fmt.Sprintf("lod: tree %d frontier has a hole at %d", b.id, i))
		}
		// The children are separated by the line from the apex to the split point.
		a := Parent(i)
		ar, ac := float64(l.Row(a)), float64(l.Col(a))
		dr, dc := float64(l.Row(i))-ar, float64(l.Col(i))-ac
		side := dr*(c-ac) - dc*(r-ar)
		ref := dr*(float64(l.Col(l.v0[i]))-ac) - dc*(float64(l.Row(l.v0[i]))-ar)
		if side*ref >= 0 {
			i = FirstChild(i)
		} else {
			i = SecondChild(i)
		}
	}
	return b.interpolate(i, r, c)
}

// interpolate evaluates the plane of triangle i at tile-local (r, c).
func (b *BinTree) interpolate(i TriIndex, r, c float64) float32 {
	l := b.layout
	vs := [3]TriIndex{Parent(i), l.v0[i], l.v1[i]}
	var pr, pc, h [3]float64
	for k, v := range vs {
		pr[k], pc[k] = float64(l.Row(v)), float64(l.Col(v))
		h[k] = float64(b.mesh.sampler.WorldHeight(b.rawHeight[v]))
	}
	area := func(r0, c0, r1, c1, r2, c2 float64) float64 {
		return (r1-r0)*(c2-c0) - (c1-c0)*(r2-r0)
	}
	total := area(pr[0], pc[0], pr[1], pc[1], pr[2], pc[2])
	w0 := area(r, c, pr[1], pc[1], pr[2], pc[2]) / total
	w1 := area(pr[0], pc[0], r, c, pr[2], pc[2]) / total
	w2 := area(pr[0], pc[0], pr[1], pc[1], r, c) / total
	return float32(w0*h[0] + w1*h[1] + w2*h[2])
}

// UpdateHeight re-reads the sample at world (row, col) from the sampler and
// recomputes the bounds and error of every triangle that covers it, in
// every tree that shares the point.
func (m *Mesh) UpdateHeight(row, col int) error {
	s := m.layout.Edge
	if row < 0 || col < 0 || row > m.rows*s || col > m.cols*s {
		return fmt.Errorf("%w: (%d, %d)", ErrOutsideMesh, row, col)
	}

	for tr := row/s - 1; tr <= row/s; tr++ {
		for tc := col/s - 1; tc <= col/s; tc++ {
			if t := m.treeAt(tr, tc, false); t != nil {
				if lr, lc := row-t.dr, col-t.dc; lr >= 0 && lc >= 0 && lr+lc <= s {
					t.updateVariance(m.sampler, lr, lc)
				}
			}
			if t := m.treeAt(tr, tc, true); t != nil {
				if lr, lc := t.dr-row, t.dc-col; lr >= 0 && lc >= 0 && lr+lc <= s {
					t.updateVariance(m.sampler, lr, lc)
				}
			}
		}
	}

	m.absMaxError = 0
	for _, t := range m.trees {
		m.absMaxError = max(m.absMaxError, t.treeError[1])
	}
	return nil
}

// RayHit describes where a segment first meets the frontier.
type RayHit struct {
	Tree  int
	Index TriIndex
	Point math.Vec3
	T     float32 // fraction of the segment from its start
}

// RayTest intersects the segment p1-p2 with the current frontier and
// returns the hit nearest p1. Subtrees whose height bounds the segment
// misses are skipped.
func (m *Mesh) RayTest(p1, p2 math.Vec3) (RayHit, bool) {
	best := RayHit{T: stdmath.MaxFloat32}
	found := false
	d := p2.Sub(p1)
	for _, t := range m.trees {
		if t.rayTest(1, p1, d, &best) {
			found = true
		}
	}
	return best, found
}

func (b *BinTree) rayTest(i TriIndex, p, d math.Vec3, best *RayHit) bool {
	l := b.layout
	if !l.IsLeaf(i) && !segmentHitsBox(p, d, b.Bounds(i)) {
		return false
	}
	if b.Active(i) {
		tri := b.Triangle(i)
		t, ok := segmentTriangle(p, d, tri.Positions)
		if !ok || t >= best.T {
			return false
		}
		*best = RayHit{Tree: b.id, Index: i, Point: p.Add(d.Scale(t)), T: t}
		return true
	}
	if l.IsLeaf(i) {
		return false
	}
	hit := b.rayTest(FirstChild(i), p, d, best)
	return b.rayTest(SecondChild(i), p, d, best) || hit
}

// segmentHitsBox is a slab test for the segment p + t*d, t in [0,1].
func segmentHitsBox(p, d math.Vec3, box math.Box3) bool {
	ps := [3]float32{p.X, p.Y, p.Z}
	ds := [3]float32{d.X, d.Y, d.Z}
	lo := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}

	t0, t1 := float32(0), float32(1)
	for k := range 3 {
		if ds[k] == 0 {
			if ps[k] < lo[k] || ps[k] > hi[k] {
				return false
			}
			continue
		}
		a := (lo[k] - ps[k]) / ds[k]
		b := (hi[k] - ps[k]) / ds[k]
		if a > b {
			a, b = b, a
		}
		t0, t1 = max(t0, a), min(t1, b)
		if t0 > t1 {
			return false
		}
	}
	return true
}

// segmentTriangle is the Möller-Trumbore test restricted to t in [0,1].
func segmentTriangle(p, d math.Vec3, v [3]math.Vec3) (float32, bool) {
	const eps = 1e-7
	e1, e2 := v[1].Sub(v[0]), v[2].Sub(v[0])
	h := d.Cross(e2)
	det := e1.Dot(h)
	if det > -eps && det < eps {
		return 0, false
	}
	inv := 1 / det
	s := p.Sub(v[0])
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	w := inv * d.Dot(q)
	if w < 0 || u+w > 1 {
		return 0, false
	}
	t := inv * e2.Dot(q)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}
