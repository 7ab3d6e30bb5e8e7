// Package route implements the parallel timing-driven Pathfinder router
// core: the per-iteration partition-tree dispatch, the net-decomposition
// scheme that splits large nets across cutlines, and the outer convergence
// loop that negotiates congestion until the routing is legal.
//
// The single-connection search, the RR graph and the timing analyzer are
// collaborators reached through interfaces ([ConnectionRouter], [rr.Graph],
// [TimingInfo]); the package ships working default implementations of each
// so the repository is routable end to end.
package route

import (
	"runtime"

	"github.com/gridroute/gridroute/pkg/errors"
)

// HeapKind selects the priority-queue strategy used by the connection
// router. The choice is fixed for the whole run.
type HeapKind string

const (
	// BinaryHeap is an exact binary min-heap.
	BinaryHeap HeapKind = "binary"
	// BucketHeap approximates priorities with cost buckets; pops are not
	// strictly ordered within a bucket but the heap operations are cheaper.
	BucketHeap HeapKind = "bucket"
)

// BBUpdate selects how net bounding boxes evolve between iterations.
type BBUpdate string

const (
	// BBStatic keeps the initial bounding boxes (until congestion forces a
	// global rescale).
	BBStatic BBUpdate = "static"
	// BBDynamic grows the boxes of rerouted nets toward their routed
	// extent after every iteration.
	BBDynamic BBUpdate = "dynamic"
)

// PredictorMode controls the routing-failure predictor.
type PredictorMode string

const (
	PredictorOff        PredictorMode = "off"
	PredictorSafe       PredictorMode = "safe"
	PredictorAggressive PredictorMode = "aggressive"
)

// InitialTiming selects the criticalities used on the first iteration,
// before a real timing analysis of the routing exists.
type InitialTiming string

const (
	// AllCritical treats every connection as fully critical for a
	// min-delay first routing.
	AllCritical InitialTiming = "all_critical"
	// Lookahead estimates first-iteration delays from the lookahead oracle
	// and runs timing analysis on those estimates.
	Lookahead InitialTiming = "lookahead"
)

// DelayRipup controls forced rerouting of delay-suboptimal connections.
type DelayRipup string

const (
	DelayRipupOff  DelayRipup = "off"
	DelayRipupOn   DelayRipup = "on"
	DelayRipupAuto DelayRipup = "auto"
)

// BudgetsAlgorithm selects the routing-budgets mode.
type BudgetsAlgorithm string

const (
	BudgetsDisable BudgetsAlgorithm = "disable"
	BudgetsYoyo    BudgetsAlgorithm = "yoyo"
)

// Options carries every knob recognized by the parallel router. The zero
// value is not usable; call [Options.ValidateAndSetDefaults] before use.
type Options struct {
	RouterHeap HeapKind `toml:"router_heap"`

	// NumWorkers is the fixed size of the routing worker pool. Defaults to
	// the machine's CPU count.
	NumWorkers int `toml:"num_workers"`

	MaxRouterIterations int `toml:"max_router_iterations"`
	MaxConvergenceCount int `toml:"max_convergence_count"`

	// Pathfinder penalty schedule. FirstIterPresFac is typically zero so
	// the first iteration ignores congestion and produces good delay
	// estimates.
	FirstIterPresFac float64 `toml:"first_iter_pres_fac"`
	InitialPresFac   float64 `toml:"initial_pres_fac"`
	PresFacMult      float64 `toml:"pres_fac_mult"`
	AccFac           float64 `toml:"acc_fac"`

	BBFactor            int      `toml:"bb_factor"`
	RouteBBUpdate       BBUpdate `toml:"route_bb_update"`
	HighFanoutThreshold int      `toml:"high_fanout_threshold"`

	RoutingFailurePredictor             PredictorMode `toml:"routing_failure_predictor"`
	CongestedRoutingIterationThresholdFrac float64    `toml:"congested_routing_iteration_threshold_frac"`

	InitialTiming  InitialTiming `toml:"initial_timing"`
	MaxCriticality float64       `toml:"max_criticality"`
	CriticalityExp float64       `toml:"criticality_exp"`
	AstarFac       float64       `toml:"astar_fac"`
	BendCost       float64       `toml:"bend_cost"`

	IncrRerouteDelayRipup   DelayRipup       `toml:"incr_reroute_delay_ripup"`
	RoutingBudgetsAlgorithm BudgetsAlgorithm `toml:"routing_budgets_algorithm"`

	TwoStageClockRouting bool `toml:"two_stage_clock_routing"`
	HasChokingSpot       bool `toml:"has_choking_spot"`
	IsFlat               bool `toml:"is_flat"`

	// MinIncrementalRerouteFanout is the fanout at or above which legal parts
	// of a net's previous routing are kept instead of ripped up wholesale.
	MinIncrementalRerouteFanout int `toml:"min_incremental_reroute_fanout"`

	// InitWirelengthAbortThreshold aborts after iteration 1 when the
	// initial routing already uses more than this share of the device
	// wiring.
	InitWirelengthAbortThreshold float64 `toml:"init_wirelength_abort_threshold"`

	// Debug and IO flags; inert to core routing semantics.
	SaveRoutingPerIteration        bool `toml:"save_routing_per_iteration"`
	ExitAfterFirstRoutingIteration bool `toml:"exit_after_first_routing_iteration"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		RouterHeap:                             BinaryHeap,
		NumWorkers:                             runtime.NumCPU(),
		MaxRouterIterations:                    50,
		MaxConvergenceCount:                    1,
		FirstIterPresFac:                       0,
		InitialPresFac:                         0.5,
		PresFacMult:                            1.3,
		AccFac:                                 1,
		BBFactor:                               3,
		RouteBBUpdate:                          BBDynamic,
		HighFanoutThreshold:                    64,
		RoutingFailurePredictor:                PredictorSafe,
		CongestedRoutingIterationThresholdFrac: 1,
		InitialTiming:                          AllCritical,
		MaxCriticality:                         0.99,
		CriticalityExp:                         1,
		AstarFac:                               1.2,
		BendCost:                               0,
		IncrRerouteDelayRipup:                  DelayRipupAuto,
		RoutingBudgetsAlgorithm:                BudgetsDisable,
		MinIncrementalRerouteFanout:            64,
		InitWirelengthAbortThreshold:           0.85,
	}
}

// ValidateAndSetDefaults fills unset fields with defaults and rejects
// contradictory settings. Configuration errors are fatal before the
// iteration loop starts.
func (o *Options) ValidateAndSetDefaults() error {
	def := DefaultOptions()

	if o.RouterHeap == "" {
		o.RouterHeap = def.RouterHeap
	}
	switch o.RouterHeap {
	case BinaryHeap, BucketHeap:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown router heap %q", o.RouterHeap)
	}

	if o.NumWorkers == 0 {
		o.NumWorkers = def.NumWorkers
	}
	if o.NumWorkers < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "num_workers must be >= 1, got %d", o.NumWorkers)
	}

	if o.MaxRouterIterations == 0 {
		o.MaxRouterIterations = def.MaxRouterIterations
	}
	if o.MaxRouterIterations < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_router_iterations must be >= 1, got %d", o.MaxRouterIterations)
	}
	if o.MaxConvergenceCount == 0 {
		o.MaxConvergenceCount = def.MaxConvergenceCount
	}

	if o.InitialPresFac == 0 {
		o.InitialPresFac = def.InitialPresFac
	}
	if o.PresFacMult == 0 {
		o.PresFacMult = def.PresFacMult
	}
	if o.PresFacMult < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "pres_fac_mult must be >= 1, got %v", o.PresFacMult)
	}
	if o.AccFac == 0 {
		o.AccFac = def.AccFac
	}
	if o.BBFactor == 0 {
		o.BBFactor = def.BBFactor
	}
	if o.RouteBBUpdate == "" {
		o.RouteBBUpdate = def.RouteBBUpdate
	}
	switch o.RouteBBUpdate {
	case BBStatic, BBDynamic:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown route_bb_update %q", o.RouteBBUpdate)
	}
	if o.HighFanoutThreshold == 0 {
		o.HighFanoutThreshold = def.HighFanoutThreshold
	}

	if o.RoutingFailurePredictor == "" {
		o.RoutingFailurePredictor = def.RoutingFailurePredictor
	}
	switch o.RoutingFailurePredictor {
	case PredictorOff, PredictorSafe, PredictorAggressive:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown routing_failure_predictor %q", o.RoutingFailurePredictor)
	}
	if o.CongestedRoutingIterationThresholdFrac == 0 {
		o.CongestedRoutingIterationThresholdFrac = def.CongestedRoutingIterationThresholdFrac
	}

	if o.InitialTiming == "" {
		o.InitialTiming = def.InitialTiming
	}
	switch o.InitialTiming {
	case AllCritical, Lookahead:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown initial_timing %q", o.InitialTiming)
	}
	if o.MaxCriticality == 0 {
		o.MaxCriticality = def.MaxCriticality
	}
	if o.MaxCriticality < 0 || o.MaxCriticality > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_criticality must be in [0,1], got %v", o.MaxCriticality)
	}
	if o.CriticalityExp == 0 {
		o.CriticalityExp = def.CriticalityExp
	}
	if o.AstarFac == 0 {
		o.AstarFac = def.AstarFac
	}

	if o.IncrRerouteDelayRipup == "" {
		o.IncrRerouteDelayRipup = def.IncrRerouteDelayRipup
	}
	switch o.IncrRerouteDelayRipup {
	case DelayRipupOff, DelayRipupOn, DelayRipupAuto:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown incr_reroute_delay_ripup %q", o.IncrRerouteDelayRipup)
	}
	if o.RoutingBudgetsAlgorithm == "" {
		o.RoutingBudgetsAlgorithm = def.RoutingBudgetsAlgorithm
	}
	switch o.RoutingBudgetsAlgorithm {
	case BudgetsDisable, BudgetsYoyo:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown routing_budgets_algorithm %q", o.RoutingBudgetsAlgorithm)
	}

	if o.MinIncrementalRerouteFanout == 0 {
		o.MinIncrementalRerouteFanout = def.MinIncrementalRerouteFanout
	}
	if o.InitWirelengthAbortThreshold == 0 {
		o.InitWirelengthAbortThreshold = def.InitWirelengthAbortThreshold
	}
	return nil
}
