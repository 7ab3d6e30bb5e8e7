package route

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/gridroute/gridroute/pkg/rr"
)

func TestBinaryHeap_PopsInOrder(t *testing.T) {
	h := newBinaryHeap()
	rng := rand.New(rand.NewSource(7))

	costs := make([]float64, 200)
	for i := range costs {
		costs[i] = rng.Float64() * 100
		h.Push(rr.NodeID(i), costs[i])
	}

	sort.Float64s(costs)
	for i, want := range costs {
		_, got, ok := h.Pop()
		if !ok {
			t.Fatalf("heap empty after %d pops, want 200", i)
		}
		if got != want {
			t.Fatalf("pop %d cost = %v, want %v", i, got, want)
		}
	}
	if _, _, ok := h.Pop(); ok {
		t.Error("Pop on empty heap returned ok")
	}
}

func TestBinaryHeap_Clear(t *testing.T) {
	h := newBinaryHeap()
	h.Push(1, 5)
	h.Push(2, 3)
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Len after Clear = %d", h.Len())
	}
	if _, _, ok := h.Pop(); ok {
		t.Error("Pop after Clear returned ok")
	}
}

func TestBucketHeap_ApproximateOrder(t *testing.T) {
	h := newBucketHeap()
	rng := rand.New(rand.NewSource(3))

	n := 500
	for i := 0; i < n; i++ {
		h.Push(rr.NodeID(i), rng.Float64()*50)
	}
	if h.Len() != n {
		t.Fatalf("Len = %d, want %d", h.Len(), n)
	}

	// Costs must come out bucket-monotonic: each pop's cost may precede
	// the previous one by at most one bucket width.
	prev := -1.0
	for i := 0; i < n; i++ {
		_, cost, ok := h.Pop()
		if !ok {
			t.Fatalf("heap empty after %d pops", i)
		}
		if cost < prev-bucketConv {
			t.Fatalf("pop %d cost %v is more than a bucket below previous %v", i, cost, prev)
		}
		if cost > prev {
			prev = cost
		}
	}
}

func TestBucketHeap_LowestTracksRefills(t *testing.T) {
	h := newBucketHeap()
	h.Push(1, 40)
	if _, cost, _ := h.Pop(); cost != 40 {
		t.Fatalf("cost = %v, want 40", cost)
	}

	// Pushing a cheaper entry after draining a high bucket must still pop
	// the cheap one first.
	h.Push(2, 30)
	h.Push(3, 0.5)
	id, _, ok := h.Pop()
	if !ok || id != 3 {
		t.Errorf("Pop = %v, want node 3", id)
	}
}

func TestNewHeap_Kinds(t *testing.T) {
	if _, ok := NewHeap(BinaryHeap).(*binaryHeap); !ok {
		t.Error("NewHeap(BinaryHeap) did not return a binary heap")
	}
	if _, ok := NewHeap(BucketHeap).(*bucketHeap); !ok {
		t.Error("NewHeap(BucketHeap) did not return a bucket heap")
	}
}
