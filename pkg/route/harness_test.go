package route

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gridroute/gridroute/pkg/geom"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/rr"
	"github.com/gridroute/gridroute/pkg/trace"
)

// testProblem bundles a synthetic routing problem for dispatcher and
// controller tests.
type testProblem struct {
	graph *rr.GridGraph
	nl    *net.List
	state *State
}

// xy is a grid coordinate used to describe test nets.
type xy struct{ x, y int }

// makeNet builds a net description from a source location and sink
// locations on the given graph.
func makeNet(g *rr.GridGraph, name string, source xy, sinks ...xy) net.Info {
	terms := []rr.NodeID{g.SourceAt(source.x, source.y)}
	for _, s := range sinks {
		terms = append(terms, g.SinkAt(s.x, s.y))
	}
	return net.Info{Name: name, Terminals: terms}
}

// newTestProblem creates a grid problem with per-net bounding boxes set to
// the terminal extent (bbFac 0) unless overridden later.
func newTestProblem(t *testing.T, w, h, channelWidth int, infos []net.Info) *testProblem {
	t.Helper()
	graph := rr.NewGridGraph(w, h, channelWidth)
	nl := net.NewList(infos)
	state := NewState(graph, nl)
	state.LoadBBoxes(nl, 0)
	return &testProblem{graph: graph, nl: nl, state: state}
}

// newTestCtx assembles an iteration context the way the controller does,
// with a fixed connection router shared by all workers.
func newTestCtx(t *testing.T, p *testProblem, opts Options, router ConnectionRouter, workers int) *iterCtx {
	t.Helper()
	opts.NumWorkers = workers
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("options: %v", err)
	}
	return &iterCtx{
		netlist:        p.nl,
		state:          p.state,
		opts:           &opts,
		itry:           1,
		presFac:        opts.FirstIterPresFac,
		routers:        newPerWorker(workers, func() ConnectionRouter { return router }),
		stats:          newPerWorker(workers, func() *Stats { return &Stats{} }),
		timing:         ConstantTiming{Criticality: 1},
		budgets:        DisabledBudgets{},
		predictor:      NewPredictor(),
		retry:          newRetryList(),
		decompRetries:  make([]atomic.Uint32, len(p.nl.Nets())),
		trace:          trace.New(),
		maxDecompLevel: maxDecompositionLevel(workers),
	}
}

// stubRouter is the deterministic connection router used by the scenario
// tests. It walks an L-shaped track-0 path from the first usable route-tree
// node to the sink and reports a fixed delay. Specific connections can be
// told to fail or to demand a full-device retry.
type stubRouter struct {
	graph *rr.GridGraph
	delay float64

	// fail marks net:isink connections that always fail outright.
	fail map[string]bool
	// retry marks net:isink connections that fail inside a clipped box
	// but succeed with the full device box.
	retry map[string]bool

	// routedSinks records every successfully routed net:isink in order.
	mu          sync.Mutex
	routedSinks []string
}

func newStubRouter(g *rr.GridGraph) *stubRouter {
	return &stubRouter{
		graph: g,
		delay: 1,
		fail:  make(map[string]bool),
		retry: make(map[string]bool),
	}
}

func sinkKey(id net.ID, isink int) string { return fmt.Sprintf("%d:%d", id, isink) }

func (s *stubRouter) RouteSink(id net.ID, isink int, sink rr.NodeID, tree *net.RouteTree,
	params CostParams, bb geom.BBox, stats *Stats) SinkResult {
	key := sinkKey(id, isink)
	if s.fail[key] {
		return SinkResult{Success: false}
	}
	if s.retry[key] && bb != fullDevice(s.graph.Grid()) {
		return SinkResult{Success: false, RetryWithFullBB: true}
	}

	start := s.startNode(tree, bb)
	if start == rr.Invalid {
		return SinkResult{Success: false, RetryWithFullBB: bb != fullDevice(s.graph.Grid())}
	}
	if !rr.InsideBB(s.graph, sink, bb.XMin, bb.XMax, bb.YMin, bb.YMax) {
		return SinkResult{Success: false, RetryWithFullBB: bb != fullDevice(s.graph.Grid())}
	}

	path := []rr.NodeID{start}
	x, y := s.graph.NodeXlow(start), s.graph.NodeYlow(start)
	tx, ty := s.graph.NodeXlow(sink), s.graph.NodeYlow(sink)
	step := func(nx, ny int) {
		path = append(path, s.graph.SourceAt(nx, ny)+2) // track 0 wire
	}
	for x != tx {
		if x < tx {
			x++
		} else {
			x--
		}
		step(x, y)
	}
	for y != ty {
		if y < ty {
			y++
		} else {
			y--
		}
		step(x, y)
	}
	path = append(path, sink)

	stats.HeapPushes += len(path)
	stats.HeapPops += len(path)
	s.mu.Lock()
	s.routedSinks = append(s.routedSinks, key)
	s.mu.Unlock()
	return SinkResult{Success: true, Path: path, Delay: s.delay}
}

// startNode picks the route-tree node to extend from: for an empty tree the
// root when it is inside the box, otherwise the lowest-numbered in-box tree
// node.
func (s *stubRouter) startNode(tree *net.RouteTree, bb geom.BBox) rr.NodeID {
	inBB := func(n rr.NodeID) bool {
		return rr.InsideBB(s.graph, n, bb.XMin, bb.XMax, bb.YMin, bb.YMax)
	}
	if tree.Len() == 0 {
		if inBB(tree.Root()) {
			return tree.Root()
		}
		return rr.Invalid
	}
	best := rr.Invalid
	for _, n := range tree.Nodes() {
		if inBB(n) && (best == rr.Invalid || n < best) {
			best = n
		}
	}
	return best
}
