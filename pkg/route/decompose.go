package route

import (
	"github.com/gridroute/gridroute/pkg/geom"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/partition"
	"github.com/gridroute/gridroute/pkg/rr"
)

const (
	// MinDecompBinWidth is the minimum side length of a sampling bin when
	// selecting skeleton sinks. Smaller bins mean more skeleton work on
	// the parent task: less speedup, better quality.
	MinDecompBinWidth = 5

	// MaxDecompReroute caps how many times a net may be rerouted through
	// decomposition before it is routed serially for good.
	MaxDecompReroute = 5
)

// whichSide returns the side of the cutline the RR node's (xlow, ylow)
// corner falls on.
func whichSide(g rr.Graph, n rr.NodeID, axis geom.Axis, pos int) geom.Side {
	return geom.SideOf(g.NodeXlow(n), g.NodeYlow(n), axis, pos)
}

// decompBins describes the spatial sampling grid laid over a net's bbox.
type decompBins struct {
	binsX, binsY int
	binW, binH   int
}

// binsFor computes the sampling grid for a bbox: bins at least
// MinDecompBinWidth wide, with the real bin size rounded up to cover the
// box exactly.
func binsFor(bb geom.BBox) decompBins {
	w, h := bb.Width(), bb.Height()
	bx := w / MinDecompBinWidth
	by := h / MinDecompBinWidth
	if bx < 1 {
		bx = 1
	}
	if by < 1 {
		by = 1
	}
	return decompBins{
		binsX: bx,
		binsY: by,
		binW:  w/bx + 1,
		binH:  h/by + 1,
	}
}

// isWorthDecomposing reports whether splitting the net at the cutline
// yields nontrivial parallelism: the bbox must fit at least one sampling
// bin on each side of the cutline, and the net needs enough sinks to fill
// the perimeter bins with some left over for both halves.
func isWorthDecomposing(ctx *iterCtx, id net.ID, axis geom.Axis, pos int) bool {
	bb := ctx.state.BBs[id]
	bins := binsFor(bb)

	// A thin strip is smaller than its own sampling bin.
	if bb.Width() < bins.binW || bb.Height() < bins.binH {
		return false
	}

	// The cutline must leave at least one full bin on each side.
	if axis == geom.X {
		if bb.XMax-pos < bins.binW || pos-bb.XMin+1 < bins.binW {
			return false
		}
	} else {
		if bb.YMax-pos < bins.binH || pos-bb.YMin+1 < bins.binH {
			return false
		}
	}

	// Enough sinks to fill the perimeter bins plus one extra per side.
	nSamples := 2*(bins.binsX+bins.binsY) - 4
	if nSamples < 4 {
		nSamples = 4
	}
	return ctx.netlist.NumSinks(id) > nSamples+2
}

// shouldDecomposeNet gates decomposition for a net held at a tree node.
func shouldDecomposeNet(ctx *iterCtx, id net.ID, level int, node *partition.Node) bool {
	// Deep enough: every worker already has its own subtree.
	if level > ctx.maxDecompLevel {
		return false
	}
	// Two-stage-routed clock nets are off limits.
	if ctx.netlist.IsGlobal(id) && ctx.opts.TwoStageClockRouting {
		return false
	}
	// This net keeps failing decomposition; route it serially from now on.
	if ctx.decompRetries[id].Load() >= MaxDecompReroute {
		return false
	}
	// A full-device net stays whole: clipping its box would shrink the
	// very search space a retry just granted it.
	if ctx.state.BBs[id] == ctx.state.FullDeviceBB() {
		return false
	}
	return isWorthDecomposing(ctx, id, node.CutlineAxis, node.CutlinePos)
}

// routingCrossesCutline reports whether the net's current tree reaches a
// sink on the opposite side of the cutline from the source.
func routingCrossesCutline(ctx *iterCtx, id net.ID, axis geom.Axis, pos int) bool {
	tree := ctx.state.Trees[id]
	if tree == nil {
		return false
	}
	terminals := ctx.netlist.RRTerminals(id)
	sourceSide := whichSide(ctx.state.Graph, tree.Root(), axis, pos)
	for _, isink := range tree.ReachedSinks() {
		if whichSide(ctx.state.Graph, terminals[isink], axis, pos) != sourceSide {
			return true
		}
	}
	return false
}

// decompositionSinks picks the skeleton sinks: the net's bbox is divided
// into sampling bins, bins already reached by the current routing are
// skipped, and the most critical unrouted sink of each remaining bin is
// taken. remaining must be sorted by descending criticality.
func decompositionSinks(ctx *iterCtx, id net.ID, remaining []int) []int {
	tree := ctx.state.Trees[id]
	terminals := ctx.netlist.RRTerminals(id)
	bb := ctx.state.BBs[id]
	bins := binsFor(bb)

	const (
		binEmpty   = 0
		binReached = -1
	)
	samples := make([]int, bins.binsX*bins.binsY)
	toFind := len(samples)

	binOf := func(n rr.NodeID) int {
		x := (ctx.state.Graph.NodeXlow(n) - bb.XMin) / bins.binW
		y := (ctx.state.Graph.NodeYlow(n) - bb.YMin) / bins.binH
		return x*bins.binsY + y
	}

	var out []int

	// Bins with an already reached sink don't need a sample.
	for _, isink := range tree.ReachedSinks() {
		if toFind == 0 {
			return out
		}
		b := binOf(terminals[isink])
		if samples[b] != binReached {
			samples[b] = binReached
			toFind--
		}
	}

	// Sample the most critical unrouted sink per bin; remaining is already
	// criticality-sorted, so the first hit in a bin wins.
	for _, isink := range remaining {
		if toFind == 0 {
			return out
		}
		b := binOf(terminals[isink])
		if samples[b] == binEmpty {
			samples[b] = isink
			out = append(out, isink)
			toFind--
		}
	}
	return out
}

// makeDecomposedPair splits the net into its two virtual halves around the
// cutline. The left/up half comes first, matching the order in which the
// partition tree's children cover the region.
func makeDecomposedPair(ctx *iterCtx, id net.ID, axis geom.Axis, pos int) (left, right partition.VirtualNet) {
	bb := ctx.state.BBs[id]
	sourceSide := whichSide(ctx.state.Graph, ctx.state.Trees[id].Root(), axis, pos)

	sourceHalf := partition.VirtualNet{NetID: id, ClippedBB: bb.ClipToSide(axis, pos, sourceSide)}
	sinkHalf := partition.VirtualNet{NetID: id, ClippedBB: bb.ClipToSide(axis, pos, sourceSide.Opposite())}

	if sourceSide == geom.Right {
		return sinkHalf, sourceHalf
	}
	return sourceHalf, sinkHalf
}

// routeAndDecompose turns a cutline-crossing net into two independent
// virtual nets by first routing a spatially sampled "skeleton" of its sinks
// so both halves inherit a tree that already crosses the cutline.
//
// Returns ok=false when the net needs no routing or the skeleton could not
// be built; the caller then routes the net directly at this node.
func routeAndDecompose(ctx *iterCtx, worker int, id net.ID, node *partition.Node) (left, right partition.VirtualNet, ok bool) {
	axis, pos := node.CutlineAxis, node.CutlinePos

	// We don't have to route this net, so why bother decomposing it?
	if !shouldRouteNet(ctx, id) {
		return left, right, false
	}

	stats := ctx.statsFor(worker)
	router := ctx.routerFor(worker)
	tree := setupRoutingResources(ctx, id)

	// If the surviving routing already crosses the cutline the skeleton
	// pass is unnecessary.
	if !routingCrossesCutline(ctx, id, axis, pos) {
		remaining := tree.RemainingSinks()
		crit := sinkCriticalities(ctx, id, remaining)
		sortByCriticality(remaining, crit)

		skeleton := decompositionSinks(ctx, id, remaining)
		sortByCriticality(skeleton, crit)

		terminals := ctx.netlist.RRTerminals(id)
		bb := ctx.state.BBs[id]
		for _, isink := range skeleton {
			res := router.RouteSink(id, isink, terminals[isink], tree,
				costParamsFor(ctx, id, isink, crit[isink]), bb, stats)
			if !res.Success {
				// Too much work to backtrack from here; the caller routes
				// the net directly instead. The failed attempt still counts
				// against the retry cap so repeat offenders go serial.
				ctx.decompRetries[id].Add(1)
				return left, right, false
			}
			ctx.state.CommitSinkPath(id, isink, res.Path)
			ctx.state.Delays.Set(id, isink, res.Delay)
			stats.ConnectionsRouted++
			stats.SkeletonConnections++
		}

		if !routingCrossesCutline(ctx, id, axis, pos) {
			// All skeleton sinks landed on the source side; decomposing
			// would hand a child a tree it cannot extend.
			return left, right, false
		}
	}

	ctx.decompRetries[id].Add(1)
	stats.DecomposedNets++

	left, right = makeDecomposedPair(ctx, id, axis, pos)
	return left, right, true
}
