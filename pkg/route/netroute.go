package route

import (
	"slices"

	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/rr"
)

// shouldRouteNet decides whether a net needs any routing work this
// iteration. Pre-routed and ignored nets are skipped; legal, fully
// connected nets are left alone unless the budgets layer demands a hold
// reroute.
func shouldRouteNet(ctx *iterCtx, id net.ID) bool {
	rerouteForHold := false
	if ctx.budgets.Enabled() {
		rerouteForHold = ctx.budgets.ShouldReroute(id) && ctx.worstNegSlack != 0
	}
	if ctx.state.Status.IsFixed(id) {
		return false
	}
	if ctx.netlist.IsIgnored(id) {
		return false
	}
	if rerouteForHold {
		return true
	}
	return !hasLegalRouting(ctx, id)
}

// hasLegalRouting reports whether the net's current tree connects every
// sink without touching an overused node.
func hasLegalRouting(ctx *iterCtx, id net.ID) bool {
	tree := ctx.state.Trees[id]
	if tree == nil {
		return false
	}
	if len(tree.RemainingSinks()) > 0 {
		return false
	}
	for _, n := range tree.Nodes() {
		if ctx.state.Costs.Occ(n) > ctx.state.Graph.Capacity(n) {
			return false
		}
	}
	return true
}

// setupRoutingResources prepares the net's route tree for rerouting. Low
// fanout nets are ripped up wholesale; high fanout nets keep the legal part
// of their previous routing and only lose branches through overused nodes.
func setupRoutingResources(ctx *iterCtx, id net.ID) *net.RouteTree {
	tree := ctx.state.Tree(ctx.netlist, id)
	if ctx.netlist.NumSinks(id) < ctx.opts.MinIncrementalRerouteFanout {
		ctx.state.RipupNet(id)
		return ctx.state.Trees[id]
	}
	_, removed := tree.PruneIf(func(n rr.NodeID) bool {
		return ctx.state.Costs.Occ(n) > ctx.state.Graph.Capacity(n)
	})
	ctx.state.Costs.AddNodes(removed, -1)
	return tree
}

// sinkCriticalities returns the shaped criticality of each listed sink.
func sinkCriticalities(ctx *iterCtx, id net.ID, isinks []int) map[int]float64 {
	crit := make(map[int]float64, len(isinks))
	for _, isink := range isinks {
		crit[isink] = ctx.timing.PinCriticality(id, isink)
	}
	return crit
}

// sortByCriticality orders isinks by descending criticality. The sort is
// stable so equal-criticality sinks keep netlist order and the routing
// order is reproducible for a fixed iteration.
func sortByCriticality(isinks []int, crit map[int]float64) {
	slices.SortStableFunc(isinks, func(a, b int) int {
		switch {
		case crit[a] > crit[b]:
			return -1
		case crit[a] < crit[b]:
			return 1
		default:
			return 0
		}
	})
}

// costParamsFor assembles the per-connection search parameters.
func costParamsFor(ctx *iterCtx, id net.ID, isink int, criticality float64) CostParams {
	params := CostParams{
		Criticality: criticality,
		AstarFac:    ctx.opts.AstarFac,
		BendCost:    ctx.opts.BendCost,
		PresFac:     ctx.presFac,
	}
	if ctx.budgets.Enabled() {
		params.Budget = &DelayBudget{
			Min:                  ctx.budgets.MinDelay(id, isink),
			Target:               ctx.budgets.TargetDelay(id, isink),
			Max:                  ctx.budgets.MaxDelay(id, isink),
			ShortPathCriticality: ctx.budgets.ShortPathCriticality(id, isink),
		}
	}
	return params
}

// routeNet routes every remaining sink of the net within its current
// bounding box. This is the non-decomposed path through the dispatcher.
func routeNet(ctx *iterCtx, worker int, id net.ID) Flags {
	if !shouldRouteNet(ctx, id) {
		return Flags{Success: true}
	}

	stats := ctx.statsFor(worker)
	router := ctx.routerFor(worker)
	tree := setupRoutingResources(ctx, id)

	remaining := tree.RemainingSinks()
	crit := sinkCriticalities(ctx, id, remaining)
	sortByCriticality(remaining, crit)

	terminals := ctx.netlist.RRTerminals(id)
	bb := ctx.state.BBs[id]
	flags := Flags{Success: true, WasRerouted: true}

	if ctx.budgets.Enabled() {
		ctx.budgets.SetShouldReroute(id, false)
	}

	for _, isink := range remaining {
		res := router.RouteSink(id, isink, terminals[isink], tree,
			costParamsFor(ctx, id, isink, crit[isink]), bb, stats)
		if !res.Success {
			flags.Success = false
			flags.RetryWithFullBB = res.RetryWithFullBB
			return flags
		}
		ctx.state.CommitSinkPath(id, isink, res.Path)
		ctx.state.Delays.Set(id, isink, res.Delay)
		stats.ConnectionsRouted++
	}

	stats.NetsRouted++
	ctx.state.Status.SetRouted(id, true)
	return flags
}
