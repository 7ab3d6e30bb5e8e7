package route

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gridroute/gridroute/pkg/errors"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/observability"
	"github.com/gridroute/gridroute/pkg/trace"
)

const (
	// BBScaleFactor and BBScaleIterCount govern bounding-box growth in
	// conflicted congestion mode: every BBScaleIterCount iterations the
	// global bbox factor doubles (clamped to the grid).
	BBScaleFactor    = 2
	BBScaleIterCount = 5

	// RCVFinishEarlyCountdown ends budget-driven routing early after this
	// many iterations without resolvable negative hold slack.
	RCVFinishEarlyCountdown = 15

	// maxPresFac caps the geometric penalty growth against overflow.
	maxPresFac = 1e25

	// criticalPathGrowthTolerance triggers forced rerouting of critical
	// connections when the critical path delay grows past it.
	criticalPathGrowthTolerance = 1.05

	// dynamicBBGrowth is how far a dynamic bounding box edge moves when
	// the routing presses against it.
	dynamicBBGrowth = 3
)

// Router runs the parallel Pathfinder convergence loop over a routing
// problem. Netlist and State are required; the remaining collaborators
// default to the shipped implementations when nil.
type Router struct {
	Netlist net.Netlist
	State   *State

	// Timing is the timing analyzer. Nil means not timing driven: all
	// criticalities are zero and the router optimizes wirelength only.
	Timing TimingInfo

	// Budgets supplies hold-delay windows; nil disables budgeting.
	Budgets Budgets

	// Predictor is the routing-failure predictor fed with per-iteration
	// overuse. Nil creates a fresh one.
	Predictor *Predictor

	// Factory builds per-worker connection routers. Nil uses the default
	// A* router with the configured heap.
	Factory RouterFactory

	// ReserveOpins is the external collaborator that reserves locally used
	// output pins between iterations; nil skips the step.
	ReserveOpins func(presFac, accFac float64)

	Logger *log.Logger
	Trace  *trace.Log
}

// Result summarizes a routing attempt.
type Result struct {
	Success    bool
	Iterations int
	Stats      Stats

	OverusedNodes     int
	UsedWirelength    int
	CriticalPathDelay float64
}

// routingMetrics is the quality of a converged routing, ordered by
// legality, then wirelength, then timing.
type routingMetrics struct {
	usedWirelength    int
	criticalPathDelay float64
	sTNS, sWNS        float64
	hTNS, hWNS        float64
}

// bestRouting snapshots the best converged routing found so far. It never
// regresses: a later convergence replaces it only when strictly better in
// the dominance order.
type bestRouting struct {
	trees   []*net.RouteTree
	metrics routingMetrics
}

type congestionMode int

const (
	congestionNormal congestionMode = iota
	congestionConflicted
)

// TryParallelRoute searches for a legal, timing-optimized routing within
// the iteration budget. It mutates the router's State in place (route
// trees, bounding boxes, occupancy). The returned error is non-nil only
// for configuration problems; an unroutable or non-converging design
// reports Success=false.
func (r *Router) TryParallelRoute(opts Options) (Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Result{}, err
	}
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	budgets := r.Budgets
	if budgets == nil {
		budgets = DisabledBudgets{}
	}
	factory := r.Factory
	if factory == nil {
		graph, costs := r.State.Graph, r.State.Costs
		kind := opts.RouterHeap
		factory = func() ConnectionRouter { return NewAStarRouter(graph, costs, kind) }
	}

	nets := r.Netlist.Nets()

	// Ignored signals keep zero delay; routed nets overwrite theirs.
	for _, id := range nets {
		if r.Netlist.IsIgnored(id) {
			r.State.Delays.ZeroNet(id)
		}
	}

	// Initial criticalities: with timing on, either everything is critical
	// for a min-delay first routing, or the lookahead estimates seed a real
	// analysis; with timing off, criticality stays zero to optimize
	// routability.
	routeTiming := r.initialTiming(opts)

	pool := newWorkPool(opts.NumWorkers)
	defer pool.Close()
	routers := newPerWorker(opts.NumWorkers, factory)
	workerStats := newPerWorker(opts.NumWorkers, func() *Stats { return &Stats{} })
	retry := newRetryList()
	decompRetries := make([]atomic.Uint32, len(nets))
	predictor := r.Predictor
	if predictor == nil {
		predictor = NewPredictor()
	}

	abortIter := abortThreshold(opts.RoutingFailurePredictor, opts.MaxRouterIterations)
	conflictedThreshold := opts.CongestedRoutingIterationThresholdFrac * float64(opts.MaxRouterIterations)

	presFac := opts.FirstIterPresFac
	bbFac := opts.BBFactor
	r.State.LoadBBoxes(r.Netlist, bbFac)
	availableWL := r.State.AvailableWirelength()

	grid := r.State.Graph.Grid()
	maxGridDim := max(grid.Width, grid.Height)

	var best *bestRouting
	legalConvergenceCount := 0
	itrySinceLastConvergence := -1
	mode := congestionNormal
	itryConflicted := 0
	rcvFinishedCount := RCVFinishEarlyCountdown
	stableCriticalPath := math.Inf(1)

	var out Result

	for itry := 1; itry <= opts.MaxRouterIterations; itry++ {
		iterStart := time.Now()
		out.Iterations = itry

		workerStats.ForEach(func(s *Stats) { s.Reset() })
		r.State.Status.Reset()
		if itrySinceLastConvergence >= 0 {
			itrySinceLastConvergence++
		}

		worstNegSlack := 0.0
		if budgets.Enabled() {
			worstNegSlack = routeTiming.HoldTotalNegativeSlack()
		}

		ctx := &iterCtx{
			netlist:        r.Netlist,
			state:          r.State,
			opts:           &opts,
			itry:           itry,
			presFac:        presFac,
			routers:        routers,
			stats:          workerStats,
			timing:         routeTiming,
			budgets:        budgets,
			worstNegSlack:  worstNegSlack,
			predictor:      predictor,
			retry:          retry,
			decompRetries:  decompRetries,
			trace:          r.Trace,
			maxDecompLevel: maxDecompositionLevel(opts.NumWorkers),
		}

		observability.Router().OnIterationStart(itry, presFac)
		results := decomposeRouteWithPartitionTree(pool, ctx)
		if !results.IsRoutable {
			observability.Router().OnAbort(itry, "unroutable")
			logger.Error("routing failed: disconnected routing graph", "iteration", itry)
			return out, errors.New(errors.ErrCodeUnroutable, "some connection is physically unroutable")
		}

		if r.ReserveOpins != nil {
			accFac := opts.AccFac
			if itry == 1 {
				accFac = 0
			}
			r.ReserveOpins(presFac, accFac)
		}

		feasible := r.State.Costs.Feasible()
		accFac := opts.AccFac
		if itry == 1 {
			accFac = 0
		}
		overuse := r.State.Costs.UpdateAccCost(accFac)
		wirelength := r.State.UsedWirelength()
		predictor.AddIterationOveruse(itry, overuse.OverusedNodes)
		estSuccessIter := predictor.EstimateSuccessIteration()

		criticalPath := 0.0
		if r.Timing != nil {
			r.Timing.Update()
			routeTiming = r.Timing
			criticalPath = r.Timing.CriticalPathDelay()
		} else {
			for _, id := range nets {
				if r.Netlist.IsIgnored(id) {
					r.State.Delays.ZeroNet(id)
				}
			}
		}

		out.Stats.Merge(&results.Stats)
		out.OverusedNodes = overuse.OverusedNodes
		out.UsedWirelength = wirelength
		out.CriticalPathDelay = criticalPath

		logger.Info("routing iteration",
			"iter", itry,
			"pres_fac", presFac,
			"overused", overuse.OverusedNodes,
			"overused_pct", overuse.OverusePercent()*100,
			"wirelength", wirelength,
			"cpd", criticalPath,
			"est_success_iter", estSuccessIter,
			"elapsed", time.Since(iterStart).Round(time.Millisecond))
		observability.Router().OnIterationComplete(itry, overuse.OverusedNodes, wirelength, feasible, time.Since(iterStart))

		// A legal routing with no pending retries converges. Capture it if
		// it improves on the best so far, then lower the penalty and keep
		// iterating for a better solution.
		rcvFinishedEarly := rcvFinishedCount == 0
		if results.Stats.FullBBRetries == 0 && r.iterationComplete(feasible, budgets, routeTiming, rcvFinishedEarly) {
			metrics := routingMetrics{
				usedWirelength:    wirelength,
				criticalPathDelay: criticalPath,
				sTNS:              routeTiming.SetupTotalNegativeSlack(),
				sWNS:              routeTiming.SetupWorstNegativeSlack(),
				hTNS:              routeTiming.HoldTotalNegativeSlack(),
				hWNS:              routeTiming.HoldWorstNegativeSlack(),
			}
			if isBetterQuality(best, metrics) {
				best = &bestRouting{trees: snapshotTrees(r.State.Trees), metrics: metrics}
				out.Success = true
			}
			observability.Router().OnConvergence(itry, wirelength, criticalPath)
			logger.Info("legal routing found", "iter", itry, "wirelength", wirelength, "cpd", criticalPath)

			presFac = opts.FirstIterPresFac
			legalConvergenceCount++
			itrySinceLastConvergence = 0
		}

		if itrySinceLastConvergence == 1 {
			// first_iter_pres_fac is often zero; switch to a value that
			// actually grows under pres_fac_mult.
			presFac = opts.InitialPresFac
		}

		if legalConvergenceCount >= opts.MaxConvergenceCount ||
			results.Stats.ConnectionsRouted == 0 ||
			r.earlyReconvergenceExit(itrySinceLastConvergence, best, criticalPath) {
			break
		}

		if itry == 1 && float64(wirelength) > opts.InitWirelengthAbortThreshold*float64(availableWL) {
			observability.Router().OnAbort(itry, "initial wirelength utilization too high")
			logger.Warn("routing aborted: initial wirelength usage too high",
				"used", wirelength, "available", availableWL)
			break
		}

		if overuse.OverusedNodes > minAbsoluteOveruseThreshold &&
			!math.IsNaN(estSuccessIter) && estSuccessIter > abortIter &&
			opts.RoutingBudgetsAlgorithm != BudgetsYoyo {
			observability.Router().OnAbort(itry, "predicted convergence too far out")
			logger.Warn("routing aborted: predicted success iteration too high",
				"estimate", estSuccessIter, "threshold", abortIter)
			break
		}

		if itry == 1 && opts.ExitAfterFirstRoutingIteration {
			logger.Info("exiting after first routing iteration as requested")
			break
		}

		// Prepare the next iteration: bounding boxes, penalty, budgets.
		if opts.RouteBBUpdate == BBDynamic {
			updated := r.dynamicUpdateBoundingBoxes(results.ReroutedNets, opts.HighFanoutThreshold)
			if updated > 0 {
				logger.Debug("dynamic bounding box update", "nets", updated)
			}
		}

		if float64(itry) >= conflictedThreshold {
			mode = congestionConflicted
		}

		if itry == 1 {
			presFac = opts.InitialPresFac
		} else {
			presFac = math.Min(presFac*opts.PresFacMult, maxPresFac)

			if budgets.Enabled() && itry > 5 && worstNegSlack != 0 {
				if budgets.IncreaseMinBudgetsIfStruggling(budgetIncreaseFactor, routeTiming, worstNegSlack) {
					rcvFinishedCount--
				} else {
					rcvFinishedCount = RCVFinishEarlyCountdown
				}
			}
		}

		if mode == congestionConflicted {
			// Conflicts oscillate when signals cannot detour around each
			// other inside tight boxes; grow the boxes slowly to widen the
			// search space.
			if itryConflicted%BBScaleIterCount == 0 {
				bbFac = min(maxGridDim, bbFac*BBScaleFactor)
				r.State.LoadBBoxes(r.Netlist, bbFac)
				logger.Debug("scaled bounding boxes", "bb_fac", bbFac)
			}
			itryConflicted++
		}

		if r.Timing != nil {
			if itry == 1 {
				// The first iteration routed without congestion, so its
				// delays are the lower bounds that seed the budgets.
				budgets.Load(r.State.Delays, routeTiming)
				stableCriticalPath = criticalPath
			} else {
				stable := true
				shouldRipup := opts.IncrRerouteDelayRipup == DelayRipupOn ||
					(opts.IncrRerouteDelayRipup == DelayRipupAuto && mode == congestionNormal)
				if shouldRipup && criticalPath > stableCriticalPath*criticalPathGrowthTolerance {
					ripped := r.ripupCriticalConnections(routeTiming, opts.MaxCriticality)
					stable = ripped == 0
					logger.Debug("forced reroute of timing-critical connections", "connections", ripped)
				}
				if stable {
					stableCriticalPath = criticalPath
				}
			}
		} else {
			for _, id := range nets {
				if r.Netlist.IsIgnored(id) {
					r.State.Delays.ZeroNet(id)
				}
			}
		}
	}

	if out.Success {
		r.restoreBest(best)
		out.UsedWirelength = best.metrics.usedWirelength
		out.CriticalPathDelay = best.metrics.criticalPathDelay
		out.OverusedNodes = 0
		logger.Info("successfully routed", "iterations", out.Iterations,
			"wirelength", best.metrics.usedWirelength, "cpd", best.metrics.criticalPathDelay)
	} else {
		logger.Error("routing failed", "iterations", out.Iterations, "overused", out.OverusedNodes)
	}
	return out, nil
}

// initialTiming picks the criticality source for the first iteration.
func (r *Router) initialTiming(opts Options) TimingInfo {
	if r.Timing == nil {
		return ConstantTiming{Criticality: 0}
	}
	if opts.InitialTiming == AllCritical {
		return ConstantTiming{Criticality: 1}
	}
	// Lookahead: estimate first-iteration delays from terminal distances
	// and run the analyzer on the estimates.
	for _, id := range r.Netlist.Nets() {
		terms := r.Netlist.RRTerminals(id)
		sx := r.State.Graph.NodeXlow(terms[0])
		sy := r.State.Graph.NodeYlow(terms[0])
		for isink := 1; isink < len(terms); isink++ {
			dx := abs(r.State.Graph.NodeXlow(terms[isink]) - sx)
			dy := abs(r.State.Graph.NodeYlow(terms[isink]) - sy)
			r.State.Delays.Set(id, isink, float64(dx+dy))
		}
	}
	r.Timing.Update()
	return r.Timing
}

// iterationComplete decides whether a feasible iteration counts as a legal
// convergence. Budget-driven routing additionally demands hold slack
// closure unless the finish-early countdown expired.
func (r *Router) iterationComplete(feasible bool, budgets Budgets, timing TimingInfo, rcvFinishedEarly bool) bool {
	if !feasible {
		return false
	}
	if !budgets.Enabled() {
		return true
	}
	return timing.HoldWorstNegativeSlack() == 0 || rcvFinishedEarly
}

// earlyReconvergenceExit stops re-entering after a convergence when the
// routing quality is no longer improving.
func (r *Router) earlyReconvergenceExit(itrySince int, best *bestRouting, criticalPath float64) bool {
	if r.Timing == nil || best == nil {
		return false
	}
	return itrySince >= 3 && criticalPath >= best.metrics.criticalPathDelay
}

// isBetterQuality orders routings by legality, then wirelength, then
// critical path. Every candidate here is legal, so legality only separates
// "have a routing" from "have none".
func isBetterQuality(best *bestRouting, candidate routingMetrics) bool {
	if best == nil {
		return true
	}
	if candidate.usedWirelength != best.metrics.usedWirelength {
		return candidate.usedWirelength < best.metrics.usedWirelength
	}
	return candidate.criticalPathDelay < best.metrics.criticalPathDelay
}

func snapshotTrees(trees []*net.RouteTree) []*net.RouteTree {
	out := make([]*net.RouteTree, len(trees))
	for i, t := range trees {
		if t != nil {
			out[i] = t.Copy()
		}
	}
	return out
}

// restoreBest swaps the best routing back in, compensating the shared
// congestion arrays: the current trees' contribution comes out, the best
// trees' goes in.
func (r *Router) restoreBest(best *bestRouting) {
	for i, tree := range r.State.Trees {
		if tree != nil {
			r.State.Costs.AddNodes(tree.Nodes(), -1)
		}
		if best.trees[i] != nil {
			r.State.Costs.AddNodes(best.trees[i].Nodes(), 1)
		}
	}
	r.State.Trees = best.trees
}

// dynamicUpdateBoundingBoxes grows the boxes of rerouted nets whose routing
// presses against a box edge, so the next iteration can detour further.
// High fanout nets are skipped; their boxes already span their terminals'
// full extent and growing them mostly slows the router down.
func (r *Router) dynamicUpdateBoundingBoxes(rerouted []net.ID, highFanoutThreshold int) int {
	full := r.State.FullDeviceBB()
	updated := 0
	for _, id := range rerouted {
		if r.Netlist.NumSinks(id) >= highFanoutThreshold {
			continue
		}
		tree := r.State.Trees[id]
		if tree == nil {
			continue
		}
		bb := r.State.BBs[id]
		grown := bb
		for _, n := range tree.Nodes() {
			x, y := r.State.Graph.NodeXlow(n), r.State.Graph.NodeYlow(n)
			if x <= bb.XMin {
				grown.XMin = max(full.XMin, bb.XMin-dynamicBBGrowth)
			}
			if x >= bb.XMax {
				grown.XMax = min(full.XMax, bb.XMax+dynamicBBGrowth)
			}
			if y <= bb.YMin {
				grown.YMin = max(full.YMin, bb.YMin-dynamicBBGrowth)
			}
			if y >= bb.YMax {
				grown.YMax = min(full.YMax, bb.YMax+dynamicBBGrowth)
			}
		}
		if grown != bb {
			r.State.BBs[id] = grown
			updated++
		}
	}
	return updated
}

// ripupCriticalConnections force-rips connections at (or near) max
// criticality so the next iteration must reroute them. Returns the number
// of ripped connections.
func (r *Router) ripupCriticalConnections(timing TimingInfo, maxCriticality float64) int {
	threshold := 0.9 * maxCriticality
	ripped := 0
	for _, id := range r.Netlist.Nets() {
		tree := r.State.Trees[id]
		if tree == nil {
			continue
		}
		for _, isink := range tree.ReachedSinks() {
			if timing.PinCriticality(id, isink) >= threshold {
				r.State.RipupSink(id, isink)
				ripped++
			}
		}
	}
	return ripped
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
