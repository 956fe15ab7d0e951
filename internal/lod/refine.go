package lod

import (
	"time"

	"go.uber.org/zap"
)

// Refine runs one frame: it re-prioritizes the active triangles for cam,
// splits the most important ones while the budget allows and merges the
// least important ones while the mesh is over budget. Diamonds whose merge
// priority is zero are always merged, so flat or distant terrain coarsens.
func (m *Mesh) Refine(cam Camera, clip Clipper) Stats {
	start := m.opts.Clock()
	m.frame++
	m.stats = Stats{Frame: m.frame}
	m.ctx = newFrameContext(cam, clip, m.opts.NearClip, m.opts.FarClip, m.absMaxError, m.opts.PriorityResolution)

	for _, t := range m.trees {
		t.skipped = !t.refresh(m.opts.EvictAfterFrames)
		if t.skipped {
			m.stats.SkippedTrees++
		}
	}

	if m.opts.Merge {
		for _, h := range m.mergeQ.Handles() {
			tree, i := m.mergeQ.Entry(h)
			if t := m.trees[tree]; !t.skipped {
				t.updateMerge(i, MaxPriority)
			}
		}
	}

	m.splitLoop(start)
	if m.opts.Merge {
		m.mergeLoop()
	}

	m.stats.Active = m.cache.Len()
	m.stats.Visible = m.visible
	m.stats.SplitQueue = m.splitQ.Len()
	m.stats.MergeQueue = m.mergeQ.Len()
	m.stats.Duration = m.opts.Clock().Sub(start)

	m.log.Debug("refine",
		zap.Uint64("frame", m.frame),
		zap.Int("active", m.stats.Active),
		zap.Int("visible", m.stats.Visible),
		zap.Int("splits", m.stats.Splits),
		zap.Int("merges", m.stats.Merges),
		zap.Duration("took", m.stats.Duration))
	return m.stats
}

// refresh updates the tree's frontier for the frame unless the whole tree is
// out of view. Out-of-view trees keep their triangles to avoid popping when
// they come back; evictAfter > 0 refreshes them after that many frames so
// their priorities drop and they coarsen.
func (b *BinTree) refresh(evictAfter int) bool {
	v := b.visibilityTriangle(1)
	if v == VisOut {
		b.outFrames++
		if evictAfter == 0 || b.outFrames <= evictAfter {
			b.treeVis = VisOut
			return false
		}
	} else {
		b.outFrames = 0
	}
	b.updateNode(1, v)
	return true
}

func (m *Mesh) splitLoop(start time.Time) {
	for m.splitQ.Len() > 0 {
		active := m.cache.Len()
		if active >= m.opts.MaxTriangles {
			m.truncate(TruncatedBudget)
			return
		}
		h, _ := m.splitQ.Highest()
		tree, i := m.splitQ.Entry(h)
		t := m.trees[tree]

		// A split may force a cascade of neighbours and ancestors.
		clear(m.sim)
		if active+t.splitCost(i, m.sim) > m.opts.AbsMaxTriangles {
			m.truncate(TruncatedHardCap)
			return
		}
		if m.opts.FrameBudget > 0 && m.opts.Clock().Sub(start) >= m.opts.FrameBudget {
			m.truncate(TruncatedTime)
			return
		}
		t.forceSplit(i)
	}
}

func (m *Mesh) truncate(reason Truncation) {
	m.stats.Truncated = reason
	m.log.Debug("split loop stopped",
		zap.Stringer("reason", reason),
		zap.Int("active", m.cache.Len()),
		zap.Int("pending", m.splitQ.Len()))
}

func (m *Mesh) mergeLoop() {
	for {
		h, ok := m.mergeQ.Lowest()
		if !ok {
			return
		}
		if m.cache.Len() <= m.opts.MaxTriangles && m.mergeQ.Bucket(h) > 0 {
			return
		}
		tree, i := m.mergeQ.Entry(h)
		m.trees[tree].forceMerge(i)
	}
}
