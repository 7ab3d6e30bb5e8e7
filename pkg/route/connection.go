package route

import (
	"github.com/gridroute/gridroute/pkg/geom"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/rr"
)

// Flags is the per-net routing outcome reduced up the partition tree.
type Flags struct {
	// Success is false when a connection could not be routed at all.
	Success bool
	// RetryWithFullBB asks the outer loop to enlarge the net's bounding
	// box to the full device and re-attempt it at the tree root next
	// iteration.
	RetryWithFullBB bool
	// WasRerouted records that the routing actually changed.
	WasRerouted bool
}

// DelayBudget carries the per-connection delay window when routing budgets
// are enabled.
type DelayBudget struct {
	Min                  float64
	Target               float64
	Max                  float64
	ShortPathCriticality float64
}

// CostParams parameterizes one connection search.
type CostParams struct {
	// Criticality in [0, 1] weights delay against congestion cost.
	Criticality float64
	// AstarFac scales the lookahead estimate; values above 1 make the
	// search greedier.
	AstarFac float64
	// BendCost penalizes direction changes between consecutive wires.
	BendCost float64
	// PresFac is the present-congestion penalty factor of this iteration.
	PresFac float64
	// Budget is nil unless routing budgets are enabled.
	Budget *DelayBudget
}

// SinkResult is the outcome of routing a single connection.
type SinkResult struct {
	Success bool
	// RetryWithFullBB is set when the search exhausted a clipped bounding
	// box; the net may still be routable with a full-device box.
	RetryWithFullBB bool
	// Path is the source-to-sink RR node path, starting at a node already
	// in the route tree. Only valid on success.
	Path []rr.NodeID
	// Delay is the routed connection delay. Only valid on success.
	Delay float64
}

// ConnectionRouter finds a path from a net's current route tree to one sink
// within a bounding box. Implementations own all their scratch state; every
// worker uses a private instance, lazily cloned from an exemplar.
//
// The search must never expand outside bb: the parallel dispatcher relies
// on that to keep concurrently routed nets on disjoint RR nodes.
type ConnectionRouter interface {
	RouteSink(id net.ID, isink int, sink rr.NodeID, tree *net.RouteTree,
		params CostParams, bb geom.BBox, stats *Stats) SinkResult
}

// RouterFactory constructs per-worker connection routers from an exemplar
// configuration.
type RouterFactory func() ConnectionRouter
