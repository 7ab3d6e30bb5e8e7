package route

import (
	"github.com/gridroute/gridroute/pkg/partition"
	"github.com/gridroute/gridroute/pkg/rr"
)

// vnetRemainingIsinks filters the net's unrouted sinks down to the clipped
// box. Regular nets read this off the route tree; a virtual net also needs
// the spatial filter.
func vnetRemainingIsinks(ctx *iterCtx, vnet partition.VirtualNet) []int {
	tree := ctx.state.Trees[vnet.NetID]
	terminals := ctx.netlist.RRTerminals(vnet.NetID)
	var out []int
	for _, isink := range tree.RemainingSinks() {
		if insideClippedBB(ctx.state.Graph, terminals[isink], vnet) {
			out = append(out, isink)
		}
	}
	return out
}

func insideClippedBB(g rr.Graph, n rr.NodeID, vnet partition.VirtualNet) bool {
	bb := vnet.ClippedBB
	return rr.InsideBB(g, n, bb.XMin, bb.XMax, bb.YMin, bb.YMax)
}

// routeVirtualNet routes the sinks of the underlying net that fall inside
// the virtual net's clipped bounding box, reusing the route tree seeded by
// the skeleton pass. The clipped box is the expansion limit, which keeps
// the two halves of a decomposed net on disjoint routing resources.
func routeVirtualNet(ctx *iterCtx, worker int, vnet partition.VirtualNet) Flags {
	id := vnet.NetID
	stats := ctx.statsFor(worker)
	router := ctx.routerFor(worker)
	tree := ctx.state.Trees[id]

	remaining := vnetRemainingIsinks(ctx, vnet)
	crit := sinkCriticalities(ctx, id, remaining)
	sortByCriticality(remaining, crit)

	// Both halves of the net may clear this concurrently; they write the
	// same value.
	if ctx.budgets.Enabled() {
		ctx.budgets.SetShouldReroute(id, false)
	}

	terminals := ctx.netlist.RRTerminals(id)
	var flags Flags

	for _, isink := range remaining {
		res := router.RouteSink(id, isink, terminals[isink], tree,
			costParamsFor(ctx, id, isink, crit[isink]), vnet.ClippedBB, stats)
		flags.RetryWithFullBB = flags.RetryWithFullBB || res.RetryWithFullBB
		if !res.Success {
			flags.Success = false
			return flags
		}
		ctx.state.CommitSinkPath(id, isink, res.Path)
		ctx.state.Delays.Set(id, isink, res.Delay)
		stats.ConnectionsRouted++
	}

	stats.NetsRouted++
	flags.Success = true
	flags.WasRerouted = true
	return flags
}
