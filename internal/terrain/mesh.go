package terrain

import (
	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/pkg/math"
)

// Build creates a terrain mesh from the active triangles of m. Vertices are
// shared per world grid point across tiles and carry smoothed normals, so
// the buffers have no seams.
func Build(m *lod.Mesh, opts Options) *Mesh {
	edge := m.Layout().Edge
	rows := float32(m.TileRows() * edge)
	cols := float32(m.TileCols() * edge)

	var vertices []Vertex
	var indices []uint32
	var groups []TileGroup
	shared := make(map[[2]int32]uint32)
	sums := [][3]float32{}

	bounds := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}

	vertexFor := func(p math.Vec3) uint32 {
		key := [2]int32{int32(p.X), int32(p.Z)}
		if idx, ok := shared[key]; ok {
			return idx
		}
		idx := uint32(len(vertices))
		pos := [3]float32{p.X, p.Y, p.Z}
		vertices = append(vertices, Vertex{
			Position: pos,
			TexCoord: [2]float32{p.X / rows, p.Z / cols},
		})
		sums = append(sums, [3]float32{})
		shared[key] = idx
		updateBounds(&bounds, pos)
		return idx
	}

	for id := range m.TreeCount() {
		tree := m.Tree(id)
		start := len(indices)
		for _, tri := range m.ActiveTriangles(id) {
			if opts.VisibleOnly && tree.VisibilityOf(tri.Index) == lod.VisOut {
				continue
			}
			p := tri.Positions
			// Area weighted: the cross product is twice the triangle area.
			n := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
			for _, v := range p {
				idx := vertexFor(v)
				sums[idx][0] += n.X
				sums[idx][1] += n.Y
				sums[idx][2] += n.Z
				indices = append(indices, idx)
			}
		}
		if n := len(indices) - start; n > 0 {
			groups = append(groups, TileGroup{
				Tree:       id,
				StartIndex: int32(start),
				IndexCount: int32(n),
			})
		}
	}

	for i := range vertices {
		if opts.Normals != nil {
			p := vertices[i].Position
			n := opts.Normals.Normal(int(p[0]), int(p[2]), 1)
			vertices[i].Normal = [3]float32{n.X, n.Y, n.Z}
			continue
		}
		vertices[i].Normal = normalize(sums[i])
	}

	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Groups:   groups,
		Bounds:   bounds,
	}
}

// Helper functions

func updateBounds(b *Bounds, p [3]float32) {
	for k := range 3 {
		b.Min[k] = min(b.Min[k], p[k])
		b.Max[k] = max(b.Max[k], p[k])
	}
}

func normalize(v [3]float32) [3]float32 {
	n := math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	if n.Length() < 0.0001 {
		return [3]float32{0, 1, 0}
	}
	n = n.Normalize()
	return [3]float32{n.X, n.Y, n.Z}
}
