package lod

import "fmt"

// insertSQ activates triangle i. pp is the priority of the triangle it
// replaces, ci a cache node to reuse (zero allocates), vp the inherited
// visibility. Visibility is only recomputed when vp is partial or unknown.
func (b *BinTree) insertSQ(i TriIndex, pp Priority, ci Handle, vp VisState) {
	m := b.mesh
	l := b.layout
	l.mustValid(i)
	if b.cacheIndex[i] != 0 {
		panic(fmt.Sprintf("lod: tree %d triangle %d already active", b.id, i))
	}

	v := vp
	switch {
	case vp == VisUndef:
		v = b.inheritedVisibility(i)
	case vp == VisIn || vp == VisOut || l.IsLeaf(i):
	default:
		v = b.visibilityTriangle(i)
	}

	if ci == 0 {
		ci = m.cache.Alloc()
	}
	b.cacheIndex[i] = ci
	m.stats.Inserts++

	var pr Priority
	if v != VisOut {
		m.visible++
		if !l.IsLeaf(i) {
			pr = b.priorityCalc(i)
			if pp > 1 && pr >= pp {
				pr = pp - 1
			}
		}
	}

	var split Handle
	if pr > 0 {
		split = m.splitQ.Insert(b.id, i, pr)
	}
	*m.cache.Get(ci) = TriNode{Index: i, Priority: pr, Vis: v, Split: split}
}

// removeSQ deactivates triangle i and returns its cache node for reuse.
// The caller frees the node if it is not reused.
func (b *BinTree) removeSQ(i TriIndex) Handle {
	m := b.mesh
	ci := b.cacheIndex[i]
	if ci == 0 {
		panic(fmt.Sprintf("lod: tree %d triangle %d is not active", b.id, i))
	}
	n := m.cache.Get(ci)
	if n.Vis != VisOut {
		m.visible--
	}
	if n.Split != 0 {
		m.splitQ.Remove(n.Split)
		n.Split = 0
		m.stats.Removes++
	}
	b.cacheIndex[i] = 0
	return ci
}

// diamond returns the parent of i, its neighbour and the neighbour's tree,
// and whether all four children are active.
func (b *BinTree) diamond(i TriIndex) (p, n TriIndex, nt *BinTree, complete bool) {
	p = Parent(i)
	if p == 0 {
		return 0, 0, nil, false
	}
	n, nt = b.Neighbour(p)
	complete = b.Active(FirstChild(p)) && b.Active(SecondChild(p))
	if nt != nil {
		complete = complete && nt.Active(FirstChild(n)) && nt.Active(SecondChild(n))
	}
	return p, n, nt, complete
}

// insertMQ queues the diamond containing i for merging unless it already is.
// pr of MaxPriority computes the merge priority.
func (b *BinTree) insertMQ(i TriIndex, pr Priority) {
	if i <= 1 || b.mergeHandle(i) != 0 {
		return
	}
	b.updateMerge(i, pr)
}

// removeMQ drops the diamond containing i from the merge queue.
func (b *BinTree) removeMQ(i TriIndex) {
	mi := b.mergeHandle(i)
	if mi == 0 {
		return
	}
	p, n, nt, complete := b.diamond(i)
	if !complete {
		panic(fmt.Sprintf("lod: tree %d merge entry for incomplete diamond at %d", b.id, p))
	}

	b.mesh.mergeQ.Remove(mi)
	b.node(FirstChild(p)).Merge = 0
	b.node(SecondChild(p)).Merge = 0
	if nt != nil {
		nt.node(FirstChild(n)).Merge = 0
		nt.node(SecondChild(n)).Merge = 0
	}
}

// mergePriority is the larger of the split priorities the diamond's two
// parents would get once merged, so a merged diamond does not split again
// on the next frame.
func (b *BinTree) mergePriority(p, n TriIndex, nt *BinTree) Priority {
	var pr Priority
	if b.inheritedVisibility(p) != VisOut {
		pr = b.priorityCalc(p)
	}
	if nt != nil && nt.inheritedVisibility(n) != VisOut {
		pr = max(pr, nt.priorityCalc(n))
	}
	return pr
}

// updateMerge queues or re-prioritizes the diamond containing i if it is
// complete. One queue entry is shared by its four triangles.
func (b *BinTree) updateMerge(i TriIndex, pr Priority) {
	m := b.mesh
	p, n, nt, complete := b.diamond(i)
	if !complete {
		return
	}
	if pr == MaxPriority {
		pr = b.mergePriority(p, n, nt)
	}

	if mi := b.node(i).Merge; mi != 0 {
		if m.mergeQ.Bucket(mi) != pr {
			m.mergeQ.Move(mi, pr)
			m.stats.Moves++
		}
		return
	}

	mi := m.mergeQ.Insert(b.id, i, pr)
	m.stats.Inserts++
	b.node(FirstChild(p)).Merge = mi
	b.node(SecondChild(p)).Merge = mi
	if nt != nil {
		nt.node(FirstChild(n)).Merge = mi
		nt.node(SecondChild(n)).Merge = mi
	}
}

// forceSplit splits i and whatever else keeps the mesh free of T-junctions,
// then queues the diamond it created for merging.
func (b *BinTree) forceSplit(i TriIndex) {
	pr := b.forceSplit2(i)
	if b.mesh.opts.Merge {
		b.insertMQ(FirstChild(i), pr)
	}
}

// forceSplit2 splits i, splitting ancestors first if i is not active yet and
// the diamond partner afterwards. It returns the highest priority split.
func (b *BinTree) forceSplit2(i TriIndex) Priority {
	m := b.mesh
	l := b.layout
	if l.IsLeaf(i) {
		panic(fmt.Sprintf("lod: tree %d cannot split leaf %d", b.id, i))
	}

	if b.cacheIndex[i] == 0 {
		if i < 2 {
			return 0
		}
		b.forceSplit2(Parent(i))
	}

	nd := b.node(i)
	v, pr := nd.Vis, nd.Priority

	if m.opts.Merge {
		b.removeMQ(i)
	}
	ci := b.removeSQ(i)
	b.insertSQ(FirstChild(i), pr, ci, v)
	b.insertSQ(SecondChild(i), pr, 0, v)
	m.stats.Splits++

	if n, nt := b.Neighbour(i); nt != nil {
		if !nt.Active(FirstChild(n)) || !nt.Active(SecondChild(n)) {
			pr = max(pr, nt.priorityOf(n))
			nt.forceSplit2(n)
		}
	}
	return pr
}

type simKey struct {
	tree int
	tri  TriIndex
}

// splitCost counts the splits forceSplit(i) would perform, which is how
// many triangles it would add, without touching the tree. sim holds the
// triangles split so far in the dry run.
func (b *BinTree) splitCost(i TriIndex, sim map[simKey]bool) int {
	var n int
	if !b.simActive(i, sim) {
		if i < 2 {
			return 0
		}
		n = b.splitCost(Parent(i), sim)
	}

	sim[simKey{b.id, i}] = true
	n++
	if nb, nt := b.Neighbour(i); nt != nil {
		if !nt.simActive(FirstChild(nb), sim) || !nt.simActive(SecondChild(nb), sim) {
			n += nt.splitCost(nb, sim)
		}
	}
	return n
}

func (b *BinTree) simActive(i TriIndex, sim map[simKey]bool) bool {
	if sim[simKey{b.id, i}] {
		return false
	}
	return b.Active(i) || (i > 1 && sim[simKey{b.id, Parent(i)}])
}

// forceMerge collapses the diamond containing i back into its two parents.
func (b *BinTree) forceMerge(i TriIndex) {
	m := b.mesh
	p, n, nt, complete := b.diamond(i)
	if !complete {
		panic(fmt.Sprintf("lod: tree %d incomplete merge diamond at %d", b.id, p))
	}

	if m.opts.Merge {
		b.removeMQ(FirstChild(p))
	}
	b.collapse(p)
	if nt != nil {
		nt.collapse(n)
	}
	m.stats.Merges++

	if m.opts.Merge {
		b.insertMQ(p, MaxPriority)
		if nt != nil {
			nt.insertMQ(n, MaxPriority)
		}
	}
}

func (b *BinTree) collapse(p TriIndex) {
	m := b.mesh
	m.cache.Free(b.removeSQ(FirstChild(p)))
	ci := b.removeSQ(SecondChild(p))
	b.insertSQ(p, MaxPriority, ci, VisUndef)
}

// updateSplit refreshes visibility and priority of every active triangle
// below i. parVis is the classification of i's parent.
func (b *BinTree) updateSplit(i TriIndex, parVis VisState) {
	v := parVis
	if parVis != VisIn && parVis != VisOut && !b.layout.IsLeaf(i) {
		v = b.visibilityTriangle(i)
	}
	b.updateNode(i, v)
}

func (b *BinTree) updateNode(i TriIndex, v VisState) {
	m := b.mesh
	l := b.layout
	if i == 1 {
		b.treeVis = v
	}

	if b.cacheIndex[i] == 0 {
		if l.IsLeaf(i) {
			panic(fmt.Sprintf("lod: tree %d frontier has a hole at %d", b.id, i))
		}
		b.updateSplit(FirstChild(i), v)
		b.updateSplit(SecondChild(i), v)
		return
	}

	nd := b.node(i)
	ov, opr := nd.Vis, nd.Priority
	var pr Priority
	if v != VisOut && !l.IsLeaf(i) {
		pr = b.priorityCalc(i)
	}
	if pr == opr && v == ov {
		return
	}
	m.stats.Moves++

	nd.Vis = v
	switch {
	case v != VisOut && ov == VisOut:
		m.visible++
	case v == VisOut && ov != VisOut:
		m.visible--
	}
	if pr == opr || l.IsLeaf(i) {
		return
	}

	nd.Priority = pr
	switch {
	case opr == 0:
		nd.Split = m.splitQ.Insert(b.id, i, pr)
	case pr == 0:
		m.splitQ.Remove(nd.Split)
		nd.Split = 0
	default:
		m.splitQ.Move(nd.Split, pr)
	}
}
