package chunkmgr

import (
	"sync"

	"github.com/ridgeline-games/voxelstream/voxel"
)

// loadQueue is the FIFO of world-chunk positions the worker should load
// into their slots. Replaced wholesale on every refresh pass rather than
// appended to — ported from the original's UpdateVisibleList, which
// rebuilds its load list from scratch each time (see SPEC_FULL.md §10).
type loadQueue struct {
	mu    sync.Mutex
	items []voxel.Pos
}

func (q *loadQueue) reset(items []voxel.Pos) {
	q.mu.Lock()
	q.items = items
	q.mu.Unlock()
}

func (q *loadQueue) pop() (voxel.Pos, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return voxel.Pos{}, false
	}
	p := q.items[0]
	q.items = q.items[1:]
	return p, true
}

// rebuildQueue holds slot indices whose block array changed and whose
// back-buffer mesh needs rebuilding, deduplicated on enqueue (spec.md
// §4.6.2: "guarded against duplicates").
type rebuildQueue struct {
	mu      sync.Mutex
	items   []int32
	pending map[int32]bool
}

func newRebuildQueue() *rebuildQueue {
	return &rebuildQueue{pending: make(map[int32]bool)}
}

func (q *rebuildQueue) push(slot int32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending[slot] {
		return
	}
	q.pending[slot] = true
	q.items = append(q.items, slot)
}

func (q *rebuildQueue) pop() (int32, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return 0, false
	}
	slot := q.items[0]
	q.items = q.items[1:]
	delete(q.pending, slot)
	return slot, true
}

func (q *rebuildQueue) clear() {
	q.mu.Lock()
	q.items = nil
	q.pending = make(map[int32]bool)
	q.mu.Unlock()
}

// swapEntry is a slot whose back-buffer mesh is ready to publish, paired
// with the world-chunk position it was built for. applySwap writes that
// position into positions[slot] when the entry publishes. loadOne also
// writes positions[slot] as soon as a load finishes, before its entry
// publishes, so positions[slot] does not keep naming the previous
// occupant while the new occupant's entry is in flight.
type swapEntry struct {
	slot int32
	pos  voxel.Pos
}

// swapQueue is the cross-goroutine deque of pending mesh publications.
type swapQueue struct {
	mu    sync.Mutex
	items []swapEntry
}

func (q *swapQueue) push(slot int32, pos voxel.Pos) {
	q.mu.Lock()
	q.items = append(q.items, swapEntry{slot: slot, pos: pos})
	q.mu.Unlock()
}

// takeForSlot removes and returns the pending entry for slot, if any.
// Used by the evict path (SPEC_FULL.md §10 / spec.md §9's "open question:
// eviction of in-swap positions") and by drainRebuildQueue, which
// supersedes any swap already queued for the slot it is about to rebuild.
func (q *swapQueue) takeForSlot(slot int32) (voxel.Pos, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.items {
		if e.slot == slot {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return e.pos, true
		}
	}
	return voxel.Pos{}, false
}

func (q *swapQueue) popFront() (swapEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return swapEntry{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

// drainAll empties the queue and returns everything that was pending, in
// order. Used during shutdown to publish every finished mesh regardless
// of the per-frame swap budget.
func (q *swapQueue) drainAll() []swapEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
