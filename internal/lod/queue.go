package lod

import "fmt"

// Priority orders split and merge candidates. Values run from 0 to the
// queue resolution minus one.
type Priority uint16

// MaxPriority asks the callee to compute a priority itself, and as a parent
// priority it disables clamping of the child.
const MaxPriority Priority = 0xFFFF

type queueEntry struct {
	tree       int32
	tri        TriIndex
	bucket     Priority
	prev, next uint32
}

// Queue is a bucketed priority queue of (tree, triangle) pairs. Entries with
// equal priority are unordered relative to each other. Both ends are cheap
// to pop so the same type serves as split queue and merge queue.
type Queue struct {
	heads   []uint32
	entries []queueEntry
	gen     generations
	n       int
	hi, lo  int // hints: no entry above hi or below lo
}

// NewQueue returns a queue with the given number of priority buckets.
func NewQueue(resolution int) *Queue {
	if resolution < 2 || resolution > int(MaxPriority) {
		panic(fmt.Sprintf("lod: queue resolution %d out of range", resolution))
	}
	q := &Queue{
		heads:   make([]uint32, resolution),
		entries: make([]queueEntry, 1),
		lo:      resolution - 1,
	}
	q.gen.gens = make([]uint8, 1)
	q.gen.live = make([]bool, 1)
	return q
}

// Resolution returns the number of buckets.
func (q *Queue) Resolution() int { return len(q.heads) }

// Len returns the number of queued entries.
func (q *Queue) Len() int { return q.n }

// Insert queues triangle tri of tree at priority pr.
func (q *Queue) Insert(tree int, tri TriIndex, pr Priority) Handle {
	q.mustBucket(pr)
	slot, h := q.gen.alloc()
	if int(slot) == len(q.entries) {
		q.entries = append(q.entries, queueEntry{})
	}
	q.entries[slot] = queueEntry{tree: int32(tree), tri: tri}
	q.link(slot, pr)
	q.n++
	return h
}

// Remove dequeues h. Removing an entry twice panics.
func (q *Queue) Remove(h Handle) {
	s := q.gen.check(h, "queue")
	q.unlink(s)
	q.gen.release(s)
	q.n--
}

// Move changes the priority of h; the handle stays valid.
func (q *Queue) Move(h Handle, pr Priority) {
	q.mustBucket(pr)
	s := q.gen.check(h, "queue")
	if q.entries[s].bucket == pr {
		return
	}
	q.unlink(s)
	q.link(s, pr)
}

// Bucket returns the current priority of h.
func (q *Queue) Bucket(h Handle) Priority {
	return q.entries[q.gen.check(h, "queue")].bucket
}

// Entry returns the tree and triangle queued under h.
func (q *Queue) Entry(h Handle) (tree int, tri TriIndex) {
	e := &q.entries[q.gen.check(h, "queue")]
	return int(e.tree), e.tri
}

// Highest returns an entry from the highest non-empty bucket.
func (q *Queue) Highest() (Handle, bool) {
	if q.n == 0 {
		return 0, false
	}
	for q.heads[q.hi] == 0 {
		q.hi--
	}
	s := q.heads[q.hi]
	return makeHandle(s, q.gen.gens[s]), true
}

// Lowest returns an entry from the lowest non-empty bucket.
func (q *Queue) Lowest() (Handle, bool) {
	if q.n == 0 {
		return 0, false
	}
	for q.heads[q.lo] == 0 {
		q.lo++
	}
	s := q.heads[q.lo]
	return makeHandle(s, q.gen.gens[s]), true
}

// Handles returns a snapshot of every queued handle, highest bucket first.
func (q *Queue) Handles() []Handle {
	out := make([]Handle, 0, q.n)
	for b := len(q.heads) - 1; b >= 0; b-- {
		for s := q.heads[b]; s != 0; s = q.entries[s].next {
			out = append(out, makeHandle(s, q.gen.gens[s]))
		}
	}
	return out
}

func (q *Queue) mustBucket(pr Priority) {
	if int(pr) >= len(q.heads) {
		panic(fmt.Sprintf("lod: priority %d outside %d buckets", pr, len(q.heads)))
	}
}

func (q *Queue) link(s uint32, pr Priority) {
	e := &q.entries[s]
	e.bucket = pr
	e.prev = 0
	e.next = q.heads[pr]
	if e.next != 0 {
		q.entries[e.next].prev = s
	}
	q.heads[pr] = s
	if int(pr) > q.hi {
		q.hi = int(pr)
	}
	if int(pr) < q.lo {
		q.lo = int(pr)
	}
}

func (q *Queue) unlink(s uint32) {
	e := &q.entries[s]
	if e.prev != 0 {
		q.entries[e.prev].next = e.next
	} else {
		q.heads[e.bucket] = e.next
	}
	if e.next != 0 {
		q.entries[e.next].prev = e.prev
	}
	e.prev, e.next = 0, 0
}
