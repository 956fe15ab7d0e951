// Package terrain converts the active triangles of a LOD mesh into vertex
// and index buffers ready for GPU upload.
package terrain

import "github.com/Faultbox/midgard-lod/pkg/math"

// Vertex represents a terrain mesh vertex with all attributes.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32 // spans the whole terrain
}

// TileGroup is the index range of one bintree, so a renderer can cull or
// texture tiles separately.
type TileGroup struct {
	Tree       int
	StartIndex int32
	IndexCount int32
}

// Mesh holds the complete terrain mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Groups   []TileGroup
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of the terrain.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// TriangleCount returns the number of triangles in the index buffer.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Options selects what Build emits.
type Options struct {
	// VisibleOnly skips triangles classified outside the view volume on the
	// last refine.
	VisibleOnly bool

	// Normals, when set, samples vertex normals from the full resolution
	// heightfield instead of averaging the refined faces, so lighting does
	// not change as the mesh coarsens.
	Normals NormalSampler
}

// NormalSampler returns the surface normal at a grid sample. spacing is the
// world distance between neighbouring samples.
type NormalSampler interface {
	Normal(row, col int, spacing float32) math.Vec3
}
