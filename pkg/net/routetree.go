package net

import (
	"sync"

	"github.com/gridroute/gridroute/pkg/rr"
)

// RouteTree is the tree of RR nodes currently assigned to a net, rooted at
// the net's source. It is stored as one full source-to-sink path per reached
// sink; the union of the paths is the tree. Shared prefixes are recorded
// once in the occupancy sense via use counts.
//
// During most of an iteration a tree is touched only by the task that owns
// the net. The exception is a decomposed net: its two virtual halves run as
// sibling tasks and extend the shared tree concurrently (on disjoint sinks
// and disjoint RR regions). A mutex serializes the structural updates; the
// RR-level disjointness comes from the clipped bounding boxes.
type RouteTree struct {
	source   rr.NodeID
	numSinks int

	mu       sync.Mutex
	paths    map[int][]rr.NodeID
	useCount map[rr.NodeID]int
}

// NewRouteTree creates an empty tree rooted at source for a net with
// numSinks sinks.
func NewRouteTree(source rr.NodeID, numSinks int) *RouteTree {
	return &RouteTree{
		source:   source,
		numSinks: numSinks,
		paths:    make(map[int]rrPath),
		useCount: make(map[rr.NodeID]int),
	}
}

type rrPath = []rr.NodeID

// Root returns the source RR node.
func (t *RouteTree) Root() rr.NodeID { return t.source }

// NumSinks returns the sink count of the underlying net.
func (t *RouteTree) NumSinks() int { return t.numSinks }

// AddSinkPath records a routed source-to-sink path for isink. The path must
// start at a node already in the tree (usually the source) and end at the
// sink's RR node. Nodes new to the tree gain occupancy; nodes already
// present are reference-counted only.
//
// Returns the nodes that are new to the tree, i.e. the ones whose RR
// occupancy the caller must increment.
func (t *RouteTree) AddSinkPath(isink int, path []rr.NodeID) []rr.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var added []rr.NodeID
	for _, n := range path {
		if t.useCount[n] == 0 {
			added = append(added, n)
		}
		t.useCount[n]++
	}
	t.paths[isink] = path
	return added
}

// RemoveSink rips up the path to isink and returns the nodes that left the
// tree entirely, i.e. the ones whose RR occupancy the caller must decrement.
func (t *RouteTree) RemoveSink(isink int) []rr.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeSinkLocked(isink)
}

func (t *RouteTree) removeSinkLocked(isink int) []rr.NodeID {
	path, ok := t.paths[isink]
	if !ok {
		return nil
	}
	delete(t.paths, isink)
	var removed []rr.NodeID
	for _, n := range path {
		t.useCount[n]--
		if t.useCount[n] == 0 {
			delete(t.useCount, n)
			removed = append(removed, n)
		}
	}
	return removed
}

// ReachedSinks returns the isinks currently connected, in ascending order.
func (t *RouteTree) ReachedSinks() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]int, 0, len(t.paths))
	for isink := 1; isink <= t.numSinks; isink++ {
		if _, ok := t.paths[isink]; ok {
			out = append(out, isink)
		}
	}
	return out
}

// RemainingSinks returns the isinks not yet connected, in ascending order.
func (t *RouteTree) RemainingSinks() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]int, 0, t.numSinks-len(t.paths))
	for isink := 1; isink <= t.numSinks; isink++ {
		if _, ok := t.paths[isink]; !ok {
			out = append(out, isink)
		}
	}
	return out
}

// IsReached reports whether isink is currently connected.
func (t *RouteTree) IsReached(isink int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.paths[isink]
	return ok
}

// SinkPath returns the recorded path to isink, or nil.
func (t *RouteTree) SinkPath(isink int) []rr.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paths[isink]
}

// Nodes returns every RR node in the tree, source included, in unspecified
// order.
func (t *RouteTree) Nodes() []rr.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]rr.NodeID, 0, len(t.useCount))
	for n := range t.useCount {
		out = append(out, n)
	}
	return out
}

// Len returns the number of distinct RR nodes in the tree.
func (t *RouteTree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.useCount)
}

// Contains reports whether the node is part of the tree.
func (t *RouteTree) Contains(n rr.NodeID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.useCount[n] > 0
}

// Copy returns a deep copy of the tree. Used to snapshot the best routing
// found so far.
func (t *RouteTree) Copy() *RouteTree {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := &RouteTree{
		source:   t.source,
		numSinks: t.numSinks,
		paths:    make(map[int]rrPath, len(t.paths)),
		useCount: make(map[rr.NodeID]int, len(t.useCount)),
	}
	for isink, p := range t.paths {
		cp := make(rrPath, len(p))
		copy(cp, p)
		out.paths[isink] = cp
	}
	for n, c := range t.useCount {
		out.useCount[n] = c
	}
	return out
}

// PruneIf removes every sink path containing a node for which illegal
// returns true. Returns the isinks that were dropped and the nodes that
// left the tree (for occupancy accounting).
func (t *RouteTree) PruneIf(illegal func(rr.NodeID) bool) (dropped []int, removed []rr.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for isink := 1; isink <= t.numSinks; isink++ {
		path, ok := t.paths[isink]
		if !ok {
			continue
		}
		bad := false
		for _, n := range path {
			if illegal(n) {
				bad = true
				break
			}
		}
		if bad {
			removed = append(removed, t.removeSinkLocked(isink)...)
			dropped = append(dropped, isink)
		}
	}
	return dropped, removed
}
