package route

import (
	"testing"

	"github.com/gridroute/gridroute/pkg/geom"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/rr"
)

func routeOneSink(t *testing.T, r *AStarRouter, g *rr.GridGraph, tree *net.RouteTree,
	sink rr.NodeID, bb geom.BBox) SinkResult {
	t.Helper()
	return r.RouteSink(0, 1, sink, tree, CostParams{AstarFac: 1.2, PresFac: 0.5}, bb, &Stats{})
}

func TestAStar_FindsPath(t *testing.T) {
	g := rr.NewGridGraph(10, 10, 2)
	costs := rr.NewCosts(g)
	r := NewAStarRouter(g, costs, BinaryHeap)

	tree := net.NewRouteTree(g.SourceAt(0, 0), 1)
	res := routeOneSink(t, r, g, tree, g.SinkAt(7, 4), geom.BBox{XMin: 0, XMax: 9, YMin: 0, YMax: 9})

	if !res.Success {
		t.Fatal("RouteSink failed on an open grid")
	}
	if res.Path[0] != tree.Root() {
		t.Errorf("path starts at %d, want source %d", res.Path[0], tree.Root())
	}
	if res.Path[len(res.Path)-1] != g.SinkAt(7, 4) {
		t.Error("path does not end at the sink")
	}
	// Shortest route visits 12 cells: 11 manhattan steps plus the start.
	// Source, sink and one wire per cell.
	if len(res.Path) != 14 {
		t.Errorf("path length = %d, want 14", len(res.Path))
	}
	if res.Delay != 12 {
		t.Errorf("delay = %v, want 12 (one unit per wire)", res.Delay)
	}
}

func TestAStar_RespectsBoundingBox(t *testing.T) {
	g := rr.NewGridGraph(10, 10, 2)
	costs := rr.NewCosts(g)
	r := NewAStarRouter(g, costs, BinaryHeap)

	bb := geom.BBox{XMin: 0, XMax: 4, YMin: 0, YMax: 4}
	tree := net.NewRouteTree(g.SourceAt(0, 0), 1)
	res := routeOneSink(t, r, g, tree, g.SinkAt(4, 4), bb)

	if !res.Success {
		t.Fatal("RouteSink failed inside the box")
	}
	for _, n := range res.Path {
		if !rr.InsideBB(g, n, bb.XMin, bb.XMax, bb.YMin, bb.YMax) {
			t.Fatalf("path node %d at (%d,%d) escapes the bounding box",
				n, g.NodeXlow(n), g.NodeYlow(n))
		}
	}
}

func TestAStar_ClippedBoxAsksForRetry(t *testing.T) {
	g := rr.NewGridGraph(10, 10, 2)
	costs := rr.NewCosts(g)
	r := NewAStarRouter(g, costs, BinaryHeap)

	// Sink outside the clipped box: unreachable there, but worth a retry
	// with the full device.
	bb := geom.BBox{XMin: 0, XMax: 4, YMin: 0, YMax: 4}
	tree := net.NewRouteTree(g.SourceAt(0, 0), 1)
	res := routeOneSink(t, r, g, tree, g.SinkAt(8, 8), bb)

	if res.Success {
		t.Fatal("RouteSink succeeded to a sink outside the box")
	}
	if !res.RetryWithFullBB {
		t.Error("RetryWithFullBB = false for a clipped box failure")
	}
}

// islandGraph wraps a GridGraph and cuts every edge into one sink, making
// it genuinely unreachable.
type islandGraph struct {
	*rr.GridGraph
	island rr.NodeID
}

func (g *islandGraph) Edges(n rr.NodeID) []rr.NodeID {
	edges := g.GridGraph.Edges(n)
	out := make([]rr.NodeID, 0, len(edges))
	for _, e := range edges {
		if e != g.island {
			out = append(out, e)
		}
	}
	return out
}

func TestAStar_UnreachableSinkIsFatal(t *testing.T) {
	base := rr.NewGridGraph(6, 6, 1)
	g := &islandGraph{GridGraph: base, island: base.SinkAt(5, 5)}
	costs := rr.NewCosts(g)
	r := NewAStarRouter(g, costs, BinaryHeap)

	tree := net.NewRouteTree(base.SourceAt(0, 0), 1)
	res := routeOneSink(t, r, base, tree, base.SinkAt(5, 5), geom.BBox{XMin: 0, XMax: 5, YMin: 0, YMax: 5})

	if res.Success {
		t.Fatal("RouteSink reached a disconnected sink")
	}
	if res.RetryWithFullBB {
		t.Error("RetryWithFullBB = true with the full device box; failure is fatal")
	}
}

func TestAStar_AvoidsCongestedNodes(t *testing.T) {
	g := rr.NewGridGraph(8, 1, 2)
	costs := rr.NewCosts(g)
	r := NewAStarRouter(g, costs, BinaryHeap)

	// Fill track 0 along the row; with pres fac high, the router must
	// prefer track 1.
	for x := 0; x < 8; x++ {
		costs.Add(g.SourceAt(x, 0)+2, 1)
	}

	tree := net.NewRouteTree(g.SourceAt(0, 0), 1)
	res := r.RouteSink(0, 1, g.SinkAt(7, 0), tree,
		CostParams{AstarFac: 1.0, PresFac: 100}, geom.BBox{XMin: 0, XMax: 7, YMin: 0, YMax: 0}, &Stats{})

	if !res.Success {
		t.Fatal("RouteSink failed")
	}
	for _, n := range res.Path {
		if g.IsWire(n) && costs.Occ(n) > 0 {
			t.Errorf("path uses congested wire %d despite a free track", n)
		}
	}
}

func TestAStar_SeedsFromWholeTree(t *testing.T) {
	g := rr.NewGridGraph(10, 10, 2)
	costs := rr.NewCosts(g)
	r := NewAStarRouter(g, costs, BinaryHeap)

	// Pre-route a branch to (6, 0); a sink at (6, 3) should branch off it
	// rather than stretch a fresh path from the source.
	tree := net.NewRouteTree(g.SourceAt(0, 0), 2)
	stub := newStubRouter(g)
	seeded := stub.RouteSink(0, 1, g.SinkAt(6, 0), tree, CostParams{},
		geom.BBox{XMin: 0, XMax: 9, YMin: 0, YMax: 9}, &Stats{})
	tree.AddSinkPath(1, seeded.Path)

	res := routeOneSink(t, r, g, tree, g.SinkAt(6, 3), geom.BBox{XMin: 0, XMax: 9, YMin: 0, YMax: 9})
	if !res.Success {
		t.Fatal("RouteSink failed")
	}
	// Branching from the existing wire at (6, 0): 3 new wires + sink.
	if len(res.Path) > 5 {
		t.Errorf("path length = %d, want <= 5 (branch from existing tree)", len(res.Path))
	}
}

func TestAStar_BucketHeapRoutesToo(t *testing.T) {
	g := rr.NewGridGraph(12, 12, 2)
	costs := rr.NewCosts(g)
	r := NewAStarRouter(g, costs, BucketHeap)

	tree := net.NewRouteTree(g.SourceAt(1, 1), 1)
	res := routeOneSink(t, r, g, tree, g.SinkAt(10, 9), geom.BBox{XMin: 0, XMax: 11, YMin: 0, YMax: 11})

	if !res.Success {
		t.Fatal("bucket-heap RouteSink failed")
	}
	if res.Path[len(res.Path)-1] != g.SinkAt(10, 9) {
		t.Error("path does not end at the sink")
	}
}
