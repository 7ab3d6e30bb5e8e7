package route

import (
	"math"

	"github.com/gridroute/gridroute/pkg/geom"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/rr"
)

// AStarRouter is the default connection router: a congestion-negotiating A*
// over the RR graph, bounded by the net's bounding box and generic over the
// heap strategy.
//
// Node cost combines delay and congestion weighted by the connection's
// criticality, the Pathfinder way: critical connections chase short paths,
// non-critical ones yield to congestion pressure. The lookahead is a
// Manhattan-distance estimate scaled by AstarFac.
type AStarRouter struct {
	graph rr.Graph
	costs *rr.Costs
	heap  Heap

	gCost   []float64
	prev    []rr.NodeID
	touched []rr.NodeID
}

// NewAStarRouter creates a router with its own scratch state. The heap kind
// is fixed per run; each worker gets its own instance via the exemplar
// factory.
func NewAStarRouter(graph rr.Graph, costs *rr.Costs, kind HeapKind) *AStarRouter {
	n := graph.NumNodes()
	r := &AStarRouter{
		graph: graph,
		costs: costs,
		heap:  NewHeap(kind),
		gCost: make([]float64, n),
		prev:  make([]rr.NodeID, n),
	}
	for i := range r.gCost {
		r.gCost[i] = math.Inf(1)
		r.prev[i] = rr.Invalid
	}
	return r
}

// RouteSink implements [ConnectionRouter].
func (r *AStarRouter) RouteSink(id net.ID, isink int, sink rr.NodeID, tree *net.RouteTree,
	params CostParams, bb geom.BBox, stats *Stats) SinkResult {
	defer r.reset()

	sx, sy := r.graph.NodeXlow(sink), r.graph.NodeYlow(sink)

	// Seed the wavefront with the whole current route tree so the new
	// connection can branch anywhere.
	seed := func(n rr.NodeID) {
		if !rr.InsideBB(r.graph, n, bb.XMin, bb.XMax, bb.YMin, bb.YMax) {
			return
		}
		r.gCost[n] = 0
		r.touched = append(r.touched, n)
		r.heap.Push(n, params.AstarFac*r.lookahead(n, sx, sy))
		stats.HeapPushes++
	}
	if tree.Len() == 0 {
		seed(tree.Root())
	} else {
		for _, n := range tree.Nodes() {
			seed(n)
		}
	}

	for {
		cur, _, ok := r.heap.Pop()
		if !ok {
			break
		}
		stats.HeapPops++
		if cur == sink {
			return r.finish(sink)
		}
		for _, next := range r.graph.Edges(cur) {
			if !rr.InsideBB(r.graph, next, bb.XMin, bb.XMax, bb.YMin, bb.YMax) {
				continue
			}
			g := r.gCost[cur] + r.nodeCost(cur, next, params)
			if g >= r.gCost[next] {
				continue
			}
			if math.IsInf(r.gCost[next], 1) {
				r.touched = append(r.touched, next)
			}
			r.gCost[next] = g
			r.prev[next] = cur
			r.heap.Push(next, g+params.AstarFac*r.lookahead(next, sx, sy))
			stats.HeapPushes++
		}
	}

	// Exhausted the box without reaching the sink. With a clipped box the
	// net deserves a retry at full device size; with the full device box
	// the sink is physically unreachable.
	full := fullDevice(r.graph.Grid())
	return SinkResult{Success: false, RetryWithFullBB: bb != full}
}

// nodeCost is the weighted cost of stepping onto next from cur.
func (r *AStarRouter) nodeCost(cur, next rr.NodeID, params CostParams) float64 {
	delay := r.graph.BaseCost(next)
	cong := r.costs.NodeCost(next, params.PresFac)
	cost := params.Criticality*delay + (1-params.Criticality)*cong
	if params.BendCost != 0 && r.bends(cur, next) {
		cost += params.BendCost
	}
	return cost
}

// bends reports whether the step changes movement axis relative to the step
// that reached cur.
func (r *AStarRouter) bends(cur, next rr.NodeID) bool {
	before := r.prev[cur]
	if before == rr.Invalid {
		return false
	}
	dx1 := r.graph.NodeXlow(cur) - r.graph.NodeXlow(before)
	dx2 := r.graph.NodeXlow(next) - r.graph.NodeXlow(cur)
	dy1 := r.graph.NodeYlow(cur) - r.graph.NodeYlow(before)
	dy2 := r.graph.NodeYlow(next) - r.graph.NodeYlow(cur)
	return (dx1 != 0 && dy2 != 0) || (dy1 != 0 && dx2 != 0)
}

// lookahead estimates the remaining cost to the sink.
func (r *AStarRouter) lookahead(n rr.NodeID, sx, sy int) float64 {
	dx := r.graph.NodeXlow(n) - sx
	dy := r.graph.NodeYlow(n) - sy
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return float64(dx + dy)
}

// finish backtracks the found path and computes its delay.
func (r *AStarRouter) finish(sink rr.NodeID) SinkResult {
	var path []rr.NodeID
	for n := sink; n != rr.Invalid; n = r.prev[n] {
		path = append(path, n)
	}
	// Reverse into tree-to-sink order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	delay := 0.0
	for _, n := range path {
		delay += r.graph.BaseCost(n)
	}
	return SinkResult{Success: true, Path: path, Delay: delay}
}

func (r *AStarRouter) reset() {
	for _, n := range r.touched {
		r.gCost[n] = math.Inf(1)
		r.prev[n] = rr.Invalid
	}
	r.touched = r.touched[:0]
	r.heap.Clear()
}

func fullDevice(g rr.Grid) geom.BBox {
	return geom.BBox{XMin: 0, XMax: g.Width - 1, YMin: 0, YMax: g.Height - 1}
}
