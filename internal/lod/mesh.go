// Package lod implements continuous level of detail for height-field terrain
// using binary triangle trees. A Mesh covers the terrain with square tiles,
// each split into two mirrored bintrees, and refines or coarsens the active
// triangles once per frame under a triangle budget.
package lod

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/logger"
)

// Options configures a Mesh.
type Options struct {
	TileLevel          int           // tile edge is 2^TileLevel cells
	MaxTriangles       int           // soft budget of active triangles
	AbsMaxTriangles    int           // splits, forced ones included, never push the count past this
	PriorityResolution int           // queue buckets, fixed for the mesh lifetime
	Merge              bool          // allow coarsening
	NearClip           float32
	FarClip            float32
	FrameBudget        time.Duration // split loop time limit, 0 for none
	EvictAfterFrames   int           // refresh invisible trees after this many frames, 0 never

	Logger *zap.Logger
	Clock  func() time.Time
}

// DefaultOptions returns options for 32x32 tiles and a 6000 triangle budget.
func DefaultOptions() Options {
	return Options{
		TileLevel:          5,
		MaxTriangles:       6000,
		AbsMaxTriangles:    20000,
		PriorityResolution: 256,
		Merge:              true,
		NearClip:           1,
		FarClip:            400,
	}
}

func (o *Options) validate() error {
	switch {
	case o.MaxTriangles <= 0:
		return fmt.Errorf("%w: max triangles %d", ErrInvalidOptions, o.MaxTriangles)
	case o.AbsMaxTriangles < o.MaxTriangles:
		return fmt.Errorf("%w: hard cap %d below budget %d", ErrInvalidOptions, o.AbsMaxTriangles, o.MaxTriangles)
	case o.PriorityResolution < 2 || o.PriorityResolution >= int(MaxPriority):
		return fmt.Errorf("%w: priority resolution %d", ErrInvalidOptions, o.PriorityResolution)
	case o.NearClip <= 0 || o.FarClip <= o.NearClip:
		return fmt.Errorf("%w: clip range [%g,%g]", ErrInvalidOptions, o.NearClip, o.FarClip)
	case o.EvictAfterFrames < 0:
		return fmt.Errorf("%w: evict after %d frames", ErrInvalidOptions, o.EvictAfterFrames)
	}
	return nil
}

// Mesh is a grid of bintree tiles sharing one triangle cache and one pair of
// priority queues. It is not safe for concurrent use.
type Mesh struct {
	opts    Options
	log     *zap.Logger
	sampler HeightSampler
	layout  *Layout

	rows, cols int // tiles
	trees      []*BinTree

	cache  *TriangleCache
	splitQ *Queue
	mergeQ *Queue

	sim map[simKey]bool // split dry-run scratch

	absMaxError uint16
	visible     int
	frame       uint64
	ctx         frameContext
	stats       Stats
}

// New builds a mesh over sampler. The sampler must have rows*2^n+1 by
// cols*2^n+1 samples for a whole number of tiles.
func New(sampler HeightSampler, opts Options) (*Mesh, error) {
	layout, err := NewLayout(opts.TileLevel)
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := layout.Edge
	sr, sc := sampler.Rows(), sampler.Cols()
	if sr < s+1 || sc < s+1 || (sr-1)%s != 0 || (sc-1)%s != 0 {
		return nil, fmt.Errorf("%w: %dx%d samples for %d-cell tiles", ErrGridMismatch, sr, sc, s)
	}

	if opts.Logger == nil {
		opts.Logger = logger.Named("lod")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	m := &Mesh{
		opts:    opts,
		log:     opts.Logger,
		sampler: sampler,
		layout:  layout,
		rows:    (sr - 1) / s,
		cols:    (sc - 1) / s,
		cache:   NewTriangleCache(opts.MaxTriangles),
		splitQ:  NewQueue(opts.PriorityResolution),
		mergeQ:  NewQueue(opts.PriorityResolution),
		sim:     make(map[simKey]bool),
	}

	m.trees = make([]*BinTree, 2*m.rows*m.cols)
	for tr := range m.rows {
		for tc := range m.cols {
			id := m.treeID(tr, tc, false)
			m.trees[id] = newBinTree(m, id, false, tr*s, tc*s)
			m.trees[id+1] = newBinTree(m, id+1, true, tr*s+s, tc*s+s)
		}
	}
	m.connect()

	start := time.Now()
	for _, t := range m.trees {
		t.init(sampler)
		m.absMaxError = max(m.absMaxError, t.treeError[1])
	}
	for _, t := range m.trees {
		t.cacheIndex[1] = m.cache.Alloc()
		*t.node(1) = TriNode{Index: 1, Vis: VisOut}
	}

	m.log.Info("terrain mesh built",
		zap.Int("tiles", m.rows*m.cols),
		zap.Int("trees", len(m.trees)),
		zap.Int("tile_size", s),
		zap.Uint16("max_error", m.absMaxError),
		zap.Duration("took", time.Since(start)))
	return m, nil
}

func (m *Mesh) treeID(tr, tc int, mirror bool) int {
	id := 2 * (tr*m.cols + tc)
	if mirror {
		id++
	}
	return id
}

func (m *Mesh) treeAt(tr, tc int, mirror bool) *BinTree {
	if tr < 0 || tc < 0 || tr >= m.rows || tc >= m.cols {
		return nil
	}
	return m.trees[m.treeID(tr, tc, mirror)]
}

// connect wires every tree to the trees across its three edges. A normal
// tree borders mirrored trees and vice versa.
func (m *Mesh) connect() {
	for tr := range m.rows {
		for tc := range m.cols {
			n := m.treeAt(tr, tc, false)
			n.top = m.treeAt(tr-1, tc, true)
			n.left = m.treeAt(tr, tc-1, true)
			n.diag = m.treeAt(tr, tc, true)

			x := m.treeAt(tr, tc, true)
			x.top = m.treeAt(tr+1, tc, false)
			x.left = m.treeAt(tr, tc+1, false)
			x.diag = n
		}
	}
}

// Layout returns the table shared by all trees.
func (m *Mesh) Layout() *Layout { return m.layout }

// Options returns the options the mesh was built with.
func (m *Mesh) Options() Options { return m.opts }

// TileRows returns the number of tile rows.
func (m *Mesh) TileRows() int { return m.rows }

// TileCols returns the number of tile columns.
func (m *Mesh) TileCols() int { return m.cols }

// TreeCount returns the number of bintrees, two per tile.
func (m *Mesh) TreeCount() int { return len(m.trees) }

// Tree returns bintree id. It panics if id is out of range.
func (m *Mesh) Tree(id int) *BinTree { return m.trees[id] }

// ActiveCount returns the number of active triangles across the mesh.
func (m *Mesh) ActiveCount() int { return m.cache.Len() }

// VisibleCount returns the number of active triangles not classified out.
func (m *Mesh) VisibleCount() int { return m.visible }

// AbsMaxError returns the largest tree error of the mesh.
func (m *Mesh) AbsMaxError() uint16 { return m.absMaxError }

// SplitQueueLen returns the number of split candidates.
func (m *Mesh) SplitQueueLen() int { return m.splitQ.Len() }

// MergeQueueLen returns the number of mergeable diamonds.
func (m *Mesh) MergeQueueLen() int { return m.mergeQ.Len() }

// MemoryBytes estimates the memory held by per-triangle arrays and pools.
func (m *Mesh) MemoryBytes() uint64 {
	l := m.layout
	perTree := uint64(l.TriNo+2)*2 + uint64(l.LeafTriNo)*(2+2+2) + uint64(l.TriNo)*4
	shared := uint64(l.TriNo+2)*4 + uint64(l.TriNo)*(4+4+4+1) + uint64(len(l.lookup))*4
	pools := uint64(m.cache.Cap())*16 + uint64(len(m.splitQ.entries)+len(m.mergeQ.entries))*20
	return perTree*uint64(len(m.trees)) + shared + pools
}
