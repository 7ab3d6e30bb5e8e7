package net

import (
	"slices"
	"sync"
	"testing"

	"github.com/gridroute/gridroute/pkg/rr"
)

func TestRouteTree_AddAndRemove(t *testing.T) {
	tree := NewRouteTree(0, 2)

	added := tree.AddSinkPath(1, []rr.NodeID{0, 10, 11, 12})
	if !slices.Equal(added, []rr.NodeID{0, 10, 11, 12}) {
		t.Errorf("first AddSinkPath added %v", added)
	}

	// Second path shares the 0->10 prefix; only the new suffix is added.
	added = tree.AddSinkPath(2, []rr.NodeID{0, 10, 20, 21})
	if !slices.Equal(added, []rr.NodeID{20, 21}) {
		t.Errorf("second AddSinkPath added %v, want [20 21]", added)
	}

	if got := tree.ReachedSinks(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("ReachedSinks() = %v, want [1 2]", got)
	}
	if got := tree.RemainingSinks(); len(got) != 0 {
		t.Errorf("RemainingSinks() = %v, want empty", got)
	}
	if tree.Len() != 6 {
		t.Errorf("Len() = %d, want 6", tree.Len())
	}

	// Ripping up sink 1 must keep the shared prefix alive.
	removed := tree.RemoveSink(1)
	if !slices.Equal(removed, []rr.NodeID{11, 12}) {
		t.Errorf("RemoveSink(1) removed %v, want [11 12]", removed)
	}
	if !tree.Contains(10) {
		t.Error("shared node 10 removed with sink 1")
	}
	if got := tree.RemainingSinks(); !slices.Equal(got, []int{1}) {
		t.Errorf("RemainingSinks() = %v, want [1]", got)
	}
}

func TestRouteTree_RemoveUnroutedSink(t *testing.T) {
	tree := NewRouteTree(0, 1)
	if removed := tree.RemoveSink(1); removed != nil {
		t.Errorf("RemoveSink on unrouted sink removed %v", removed)
	}
}

func TestRouteTree_Copy(t *testing.T) {
	tree := NewRouteTree(0, 1)
	tree.AddSinkPath(1, []rr.NodeID{0, 5, 6})

	cp := tree.Copy()
	cp.RemoveSink(1)

	if !tree.IsReached(1) {
		t.Error("mutating the copy affected the original")
	}
	if cp.IsReached(1) {
		t.Error("RemoveSink on copy did not take")
	}
}

func TestRouteTree_PruneIf(t *testing.T) {
	tree := NewRouteTree(0, 3)
	tree.AddSinkPath(1, []rr.NodeID{0, 1, 2})
	tree.AddSinkPath(2, []rr.NodeID{0, 1, 3})
	tree.AddSinkPath(3, []rr.NodeID{0, 4, 5})

	// Node 3 is illegal: only sink 2's path goes through it.
	dropped, removed := tree.PruneIf(func(n rr.NodeID) bool { return n == 3 })

	if !slices.Equal(dropped, []int{2}) {
		t.Errorf("dropped = %v, want [2]", dropped)
	}
	if !slices.Equal(removed, []rr.NodeID{3}) {
		t.Errorf("removed = %v, want [3]", removed)
	}
	if !tree.IsReached(1) || !tree.IsReached(3) {
		t.Error("legal sinks dropped by prune")
	}
}

func TestRouteTree_ConcurrentHalves(t *testing.T) {
	// The two halves of a decomposed net extend the shared tree from
	// sibling tasks; disjoint sinks added concurrently must all land.
	tree := NewRouteTree(0, 40)

	var wg sync.WaitGroup
	for half := 0; half < 2; half++ {
		wg.Add(1)
		go func(half int) {
			defer wg.Done()
			for isink := 1 + half; isink <= 40; isink += 2 {
				path := []rr.NodeID{0, rr.NodeID(100 + isink), rr.NodeID(200 + isink)}
				tree.AddSinkPath(isink, path)
			}
		}(half)
	}
	wg.Wait()

	if got := len(tree.ReachedSinks()); got != 40 {
		t.Errorf("reached %d sinks after concurrent adds, want 40", got)
	}
	// Root shared by all paths, plus two unique nodes per sink.
	if tree.Len() != 81 {
		t.Errorf("Len() = %d, want 81", tree.Len())
	}
}

func TestStatus_Reset(t *testing.T) {
	s := NewStatus(3)
	s.SetRouted(1, true)
	s.SetFixed(2, true)

	s.Reset()

	for i := ID(0); i < 3; i++ {
		if s.IsRouted(i) || s.IsFixed(i) {
			t.Errorf("net %d flags survived Reset", i)
		}
	}
}

func TestDelayMatrix(t *testing.T) {
	nl := NewList([]Info{
		{Name: "a", Terminals: []rr.NodeID{0, 1, 2}},
		{Name: "b", Terminals: []rr.NodeID{3, 4}},
	})
	m := NewDelayMatrix(nl)

	m.Set(0, 2, 1.5)
	if got := m.Get(0, 2); got != 1.5 {
		t.Errorf("Get(0, 2) = %v, want 1.5", got)
	}

	m.ZeroNet(0)
	if got := m.Get(0, 2); got != 0 {
		t.Errorf("Get after ZeroNet = %v, want 0", got)
	}
	if m.NumSinks(1) != 1 {
		t.Errorf("NumSinks(1) = %d, want 1", m.NumSinks(1))
	}
}
