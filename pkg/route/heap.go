package route

import (
	"math"

	"github.com/gridroute/gridroute/pkg/rr"
)

// Heap is the priority queue driving the connection router's wavefront
// expansion. Implementations are not safe for concurrent use; every worker
// owns its own heap.
type Heap interface {
	// Push adds a node with the given total path cost.
	Push(n rr.NodeID, cost float64)
	// Pop removes and returns the cheapest node. ok is false when empty.
	// A bucket heap may return nodes slightly out of order.
	Pop() (n rr.NodeID, cost float64, ok bool)
	// Clear empties the heap between searches without releasing storage.
	Clear()
	// Len returns the number of queued entries.
	Len() int
}

// NewHeap constructs a heap of the configured kind. The kind is chosen once
// at iteration-loop entry and fixed for the full run.
func NewHeap(kind HeapKind) Heap {
	if kind == BucketHeap {
		return newBucketHeap()
	}
	return newBinaryHeap()
}

type heapEntry struct {
	node rr.NodeID
	cost float64
}

// binaryHeap is an exact array-backed binary min-heap.
type binaryHeap struct {
	entries []heapEntry
}

func newBinaryHeap() *binaryHeap {
	return &binaryHeap{entries: make([]heapEntry, 0, 1024)}
}

func (h *binaryHeap) Push(n rr.NodeID, cost float64) {
	h.entries = append(h.entries, heapEntry{node: n, cost: cost})
	i := len(h.entries) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.entries[parent].cost <= h.entries[i].cost {
			break
		}
		h.entries[parent], h.entries[i] = h.entries[i], h.entries[parent]
		i = parent
	}
}

func (h *binaryHeap) Pop() (rr.NodeID, float64, bool) {
	if len(h.entries) == 0 {
		return rr.Invalid, 0, false
	}
	top := h.entries[0]
	last := len(h.entries) - 1
	h.entries[0] = h.entries[last]
	h.entries = h.entries[:last]

	i := 0
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < last && h.entries[l].cost < h.entries[smallest].cost {
			smallest = l
		}
		if r < last && h.entries[r].cost < h.entries[smallest].cost {
			smallest = r
		}
		if smallest == i {
			break
		}
		h.entries[i], h.entries[smallest] = h.entries[smallest], h.entries[i]
		i = smallest
	}
	return top.node, top.cost, true
}

func (h *binaryHeap) Clear() { h.entries = h.entries[:0] }

func (h *binaryHeap) Len() int { return len(h.entries) }

// bucketHeap approximates priority order by hashing costs into fixed-width
// buckets. Within a bucket, entries pop LIFO. The approximation trades
// strict A* ordering for cheaper operations; the router tolerates the
// slightly suboptimal paths.
type bucketHeap struct {
	buckets [][]heapEntry
	conv    float64 // cost units per bucket
	lowest  int     // first possibly non-empty bucket
	size    int
}

const (
	bucketCount = 4096
	bucketConv  = 1.0 / 8 // 8 buckets per unit cost
)

func newBucketHeap() *bucketHeap {
	return &bucketHeap{
		buckets: make([][]heapEntry, bucketCount),
		conv:    bucketConv,
		lowest:  bucketCount,
	}
}

func (h *bucketHeap) bucketFor(cost float64) int {
	b := int(cost / h.conv)
	if b < 0 {
		b = 0
	}
	if b >= bucketCount {
		b = bucketCount - 1
	}
	return b
}

func (h *bucketHeap) Push(n rr.NodeID, cost float64) {
	if math.IsInf(cost, 1) {
		cost = float64(bucketCount) * h.conv
	}
	b := h.bucketFor(cost)
	h.buckets[b] = append(h.buckets[b], heapEntry{node: n, cost: cost})
	if b < h.lowest {
		h.lowest = b
	}
	h.size++
}

func (h *bucketHeap) Pop() (rr.NodeID, float64, bool) {
	if h.size == 0 {
		return rr.Invalid, 0, false
	}
	for b := h.lowest; b < bucketCount; b++ {
		if len(h.buckets[b]) == 0 {
			continue
		}
		h.lowest = b
		last := len(h.buckets[b]) - 1
		e := h.buckets[b][last]
		h.buckets[b] = h.buckets[b][:last]
		h.size--
		return e.node, e.cost, true
	}
	// Inconsistent size counter; treat as empty.
	h.size = 0
	return rr.Invalid, 0, false
}

func (h *bucketHeap) Clear() {
	for b := range h.buckets {
		h.buckets[b] = h.buckets[b][:0]
	}
	h.lowest = bucketCount
	h.size = 0
}

func (h *bucketHeap) Len() int { return h.size }
