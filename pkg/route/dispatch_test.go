package route

import (
	"testing"

	"github.com/gridroute/gridroute/pkg/geom"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/partition"
	"github.com/gridroute/gridroute/pkg/rr"
)

// quadrantNets builds four 4-sink nets, one per 9x9 quadrant corner of a
// 20x20 grid.
func quadrantNets(g *rr.GridGraph) []net.Info {
	quad := func(name string, ox, oy int) net.Info {
		return makeNet(g, name, xy{ox, oy},
			xy{ox + 8, oy}, xy{ox, oy + 8}, xy{ox + 8, oy + 8}, xy{ox + 4, oy + 4})
	}
	return []net.Info{
		quad("q00", 0, 0),
		quad("q10", 11, 0),
		quad("q01", 0, 11),
		quad("q11", 11, 11),
	}
}

func runDispatch(t *testing.T, ctx *iterCtx, workers int) IterResults {
	t.Helper()
	pool := newWorkPool(workers)
	defer pool.Close()
	return decomposeRouteWithPartitionTree(pool, ctx)
}

func TestDispatch_QuadrantNets(t *testing.T) {
	// Scenario A: four independent quadrant nets, four workers. Everything
	// routes; each net's tree ends up complete.
	g := rr.NewGridGraph(20, 20, 2)
	p := newTestProblem(t, 20, 20, 2, quadrantNets(g))
	ctx := newTestCtx(t, p, Options{}, newStubRouter(p.graph), 4)

	results := runDispatch(t, ctx, 4)

	if !results.IsRoutable {
		t.Fatal("IsRoutable = false")
	}
	if len(results.ReroutedNets) != 4 {
		t.Errorf("rerouted %d nets, want 4", len(results.ReroutedNets))
	}
	for _, id := range p.nl.Nets() {
		tree := p.state.Trees[id]
		if tree == nil || len(tree.RemainingSinks()) != 0 {
			t.Errorf("net %s not fully routed", p.nl.Name(id))
		}
		if !p.state.Status.IsRouted(id) {
			t.Errorf("net %s not flagged routed", p.nl.Name(id))
		}
	}
	if results.Stats.ConnectionsRouted != 16 {
		t.Errorf("ConnectionsRouted = %d, want 16", results.Stats.ConnectionsRouted)
	}
	if results.Stats.NetsRouted != 4 {
		t.Errorf("NetsRouted = %d, want 4", results.Stats.NetsRouted)
	}
}

func TestDispatch_SpanningNet(t *testing.T) {
	// Scenario B: a device-spanning net joins the quadrant nets. It is
	// held at the root and either routed there or decomposed; all five
	// nets come back rerouted either way.
	g := rr.NewGridGraph(20, 20, 2)
	infos := append(quadrantNets(g),
		makeNet(g, "span", xy{0, 0}, xy{19, 0}, xy{0, 19}, xy{19, 19}, xy{10, 10}))
	p := newTestProblem(t, 20, 20, 2, infos)
	ctx := newTestCtx(t, p, Options{}, newStubRouter(p.graph), 4)

	results := runDispatch(t, ctx, 4)

	if !results.IsRoutable {
		t.Fatal("IsRoutable = false")
	}
	if len(results.ReroutedNets) != 5 {
		t.Errorf("rerouted %d nets, want 5", len(results.ReroutedNets))
	}
	for _, id := range p.nl.Nets() {
		tree := p.state.Trees[id]
		if tree == nil || len(tree.RemainingSinks()) != 0 {
			t.Errorf("net %s not fully routed", p.nl.Name(id))
		}
	}
}

func TestDispatch_DecomposedNetRoutesFully(t *testing.T) {
	// A high-fanout net covering most of a larger grid decomposes; the
	// virtual halves must pick up all remaining sinks.
	g := rr.NewGridGraph(40, 40, 2)
	sinks := spreadSinks(geom.BBox{XMin: 0, XMax: 36, YMin: 0, YMax: 36}, 3)
	infos := append(quadrantNets(g),
		makeNet(g, "big", xy{20, 20}, sinks...))
	p := newTestProblem(t, 40, 40, 2, infos)
	ctx := newTestCtx(t, p, Options{}, newStubRouter(p.graph), 4)

	results := runDispatch(t, ctx, 4)

	if !results.IsRoutable {
		t.Fatal("IsRoutable = false")
	}
	big := net.ID(4)
	tree := p.state.Trees[big]
	if tree == nil {
		t.Fatal("spanning net has no route tree")
	}
	if remaining := tree.RemainingSinks(); len(remaining) != 0 {
		t.Errorf("spanning net has %d unrouted sinks after dispatch", len(remaining))
	}
	if ctx.decompRetries[big].Load() == 0 {
		t.Error("spanning net was never decomposed")
	}
	if results.Stats.DecomposedNets == 0 {
		t.Error("Stats.DecomposedNets = 0")
	}
	if results.Stats.SkeletonConnections == 0 {
		t.Error("Stats.SkeletonConnections = 0")
	}
}

func TestDispatch_RetryWithFullBB(t *testing.T) {
	// Scenario E: a net that exhausts its clipped box is collected in the
	// retry list; the dispatcher grows its box to the device and disables
	// decomposition, so the next iteration holds it at the root.
	g := rr.NewGridGraph(20, 20, 2)
	infos := append(quadrantNets(g),
		makeNet(g, "stuck", xy{1, 1}, xy{7, 1}, xy{1, 7}))
	p := newTestProblem(t, 20, 20, 2, infos)
	stub := newStubRouter(p.graph)
	ctx := newTestCtx(t, p, Options{}, stub, 4)

	stuck := net.ID(4)
	stub.retry[sinkKey(stuck, 1)] = true

	results := runDispatch(t, ctx, 4)

	// Retry is not a routability failure.
	if !results.IsRoutable {
		t.Fatal("IsRoutable = false for a retryable net")
	}
	full := p.state.FullDeviceBB()
	if p.state.BBs[stuck] != full {
		t.Errorf("retried net bbox = %+v, want full device", p.state.BBs[stuck])
	}
	if got := ctx.decompRetries[stuck].Load(); got != MaxDecompReroute {
		t.Errorf("decompRetries = %d, want %d", got, MaxDecompReroute)
	}
	if results.Stats.FullBBRetries != 1 {
		t.Errorf("FullBBRetries = %d, want 1", results.Stats.FullBBRetries)
	}

	// Next iteration's tree holds the net at the root, and the retry cap
	// keeps it from decomposing.
	tree := partition.Build(p.nl, p.state.BBs, p.graph.Grid())
	found := false
	for _, id := range tree.Root().Nets {
		if id == stuck {
			found = true
		}
	}
	if !found && !tree.Root().IsLeaf() {
		t.Error("full-device net not held at the tree root")
	}
	node := &partition.Node{CutlineAxis: geom.X, CutlinePos: 9}
	if shouldDecomposeNet(ctx, stuck, 0, node) {
		t.Error("retried net still eligible for decomposition")
	}
}

func TestDispatch_HardFailureMarksUnroutable(t *testing.T) {
	g := rr.NewGridGraph(20, 20, 2)
	infos := []net.Info{makeNet(g, "dead", xy{0, 0}, xy{5, 5})}
	p := newTestProblem(t, 20, 20, 2, infos)
	stub := newStubRouter(p.graph)
	ctx := newTestCtx(t, p, Options{}, stub, 2)

	stub.fail[sinkKey(0, 1)] = true

	results := runDispatch(t, ctx, 2)
	if results.IsRoutable {
		t.Error("IsRoutable = true after a hard connection failure")
	}
}

func TestDispatch_SkipsLegallyRoutedNets(t *testing.T) {
	g := rr.NewGridGraph(20, 20, 2)
	p := newTestProblem(t, 20, 20, 2, quadrantNets(g))
	stub := newStubRouter(p.graph)
	ctx := newTestCtx(t, p, Options{}, stub, 2)

	first := runDispatch(t, ctx, 2)
	if len(first.ReroutedNets) != 4 {
		t.Fatalf("first pass rerouted %d nets", len(first.ReroutedNets))
	}

	// Second pass over a congestion-free routing touches nothing.
	p.state.Status.Reset()
	ctx.stats.ForEach(func(s *Stats) { s.Reset() })
	second := runDispatch(t, ctx, 2)
	if len(second.ReroutedNets) != 0 {
		t.Errorf("second pass rerouted %d nets, want 0", len(second.ReroutedNets))
	}
}

func TestCeilLog2(t *testing.T) {
	tests := []struct{ n, want int }{
		{1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4},
	}
	for _, tt := range tests {
		if got := ceilLog2(tt.n); got != tt.want {
			t.Errorf("ceilLog2(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
