package lod

import "fmt"

// Handle refers to a pooled entry. The low 24 bits hold the slot and the
// high 8 bits a generation that changes whenever the slot is released, so a
// handle kept past Free is detected on the next access. The zero Handle
// refers to nothing.
type Handle uint32

const (
	slotBits = 24
	slotMask = 1<<slotBits - 1
	maxSlots = slotMask
)

func makeHandle(slot uint32, gen uint8) Handle { return Handle(uint32(gen)<<slotBits | slot) }

func (h Handle) slot() uint32 { return uint32(h) & slotMask }
func (h Handle) gen() uint8   { return uint8(uint32(h) >> slotBits) }

// generations tracks slot reuse shared by the cache and the queues.
type generations struct {
	gens []uint8
	live []bool
	free []uint32
}

func (g *generations) alloc() (uint32, Handle) {
	var slot uint32
	if n := len(g.free); n > 0 {
		slot = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		if len(g.gens) == 0 {
			// Slot 0 is never handed out so the zero Handle stays invalid.
			g.gens = append(g.gens, 0)
			g.live = append(g.live, false)
		}
		if len(g.gens) > maxSlots {
			panic("lod: pool exhausted")
		}
		slot = uint32(len(g.gens))
		g.gens = append(g.gens, 0)
		g.live = append(g.live, false)
	}
	g.live[slot] = true
	return slot, makeHandle(slot, g.gens[slot])
}

func (g *generations) check(h Handle, what string) uint32 {
	s := h.slot()
	if s == 0 || int(s) >= len(g.gens) || !g.live[s] || g.gens[s] != h.gen() {
		panic(fmt.Sprintf("lod: stale %s handle %#x", what, uint32(h)))
	}
	return s
}

func (g *generations) release(s uint32) {
	g.live[s] = false
	g.gens[s]++
	g.free = append(g.free, s)
}

// TriNode is the per-frame state of an active triangle.
type TriNode struct {
	Index    TriIndex
	Priority Priority
	Vis      VisState
	Split    Handle // split queue entry, zero when not queued
	Merge    Handle // merge diamond entry shared by all four members
}

// TriangleCache pools the state of every active triangle in a mesh.
// Its length is the number of active leaves, which the refine loop budgets.
type TriangleCache struct {
	nodes []TriNode
	gen   generations
	n     int
}

// NewTriangleCache returns a cache with room for capacity nodes before growing.
func NewTriangleCache(capacity int) *TriangleCache {
	c := &TriangleCache{nodes: make([]TriNode, 1, capacity+1)}
	c.gen.gens = make([]uint8, 1, capacity+1)
	c.gen.live = make([]bool, 1, capacity+1)
	return c
}

// Alloc reserves a zeroed node. Pointers from Get do not survive an Alloc.
func (c *TriangleCache) Alloc() Handle {
	slot, h := c.gen.alloc()
	if int(slot) == len(c.nodes) {
		c.nodes = append(c.nodes, TriNode{})
	} else {
		c.nodes[slot] = TriNode{}
	}
	c.n++
	return h
}

// Get returns the node for h. It panics if h was freed.
func (c *TriangleCache) Get(h Handle) *TriNode {
	return &c.nodes[c.gen.check(h, "cache")]
}

// Free releases h. Freeing twice panics.
func (c *TriangleCache) Free(h Handle) {
	s := c.gen.check(h, "cache")
	c.gen.release(s)
	c.n--
}

// Len returns the number of live nodes.
func (c *TriangleCache) Len() int { return c.n }

// Cap returns the number of slots allocated so far.
func (c *TriangleCache) Cap() int { return len(c.nodes) - 1 }
