package route

import (
	"sync/atomic"

	"github.com/gridroute/gridroute/pkg/net"
)

// budgetIncreaseFactor is how much extra delay the budget increaser adds to
// the minimum delay budgets per struggling iteration.
const budgetIncreaseFactor = 300e-12

// Budgets supplies per-connection delay windows for hold-slack resolution.
// Queries run concurrently from routing tasks; SetShouldReroute may be
// called by the two halves of a decomposed net at once, so implementations
// must make it atomic.
type Budgets interface {
	// Enabled reports whether budgets are loaded and should influence
	// routing.
	Enabled() bool

	MinDelay(id net.ID, isink int) float64
	MaxDelay(id net.ID, isink int) float64
	TargetDelay(id net.ID, isink int) float64
	ShortPathCriticality(id net.ID, isink int) float64

	// ShouldReroute reports whether the net must be rerouted to fix hold
	// violations.
	ShouldReroute(id net.ID) bool
	SetShouldReroute(id net.ID, v bool)

	// Load initializes budgets from uncongested delay information. Called
	// once, after the first stable iteration.
	Load(delays *net.DelayMatrix, timing TimingInfo)

	// IncreaseMinBudgetsIfStruggling bumps min budgets when hold slack is
	// not resolving. Returns true when hold looks resolved.
	IncreaseMinBudgetsIfStruggling(increase float64, timing TimingInfo, worstNegSlack float64) bool
}

// DisabledBudgets is the no-budget mode.
type DisabledBudgets struct{}

func (DisabledBudgets) Enabled() bool { return false }

func (DisabledBudgets) MinDelay(net.ID, int) float64             { return 0 }
func (DisabledBudgets) MaxDelay(net.ID, int) float64             { return 0 }
func (DisabledBudgets) TargetDelay(net.ID, int) float64          { return 0 }
func (DisabledBudgets) ShortPathCriticality(net.ID, int) float64 { return 0 }

func (DisabledBudgets) ShouldReroute(net.ID) bool     { return false }
func (DisabledBudgets) SetShouldReroute(net.ID, bool) {}

func (DisabledBudgets) Load(*net.DelayMatrix, TimingInfo) {}

func (DisabledBudgets) IncreaseMinBudgetsIfStruggling(float64, TimingInfo, float64) bool {
	return false
}

// YoyoBudgets implements the yoyo routing-budgets algorithm: delay windows
// seeded from the first uncongested routing, with min budgets raised while
// hold slack struggles to close.
type YoyoBudgets struct {
	netlist net.Netlist
	loaded  bool

	minDelay [][]float64
	maxDelay [][]float64
	target   [][]float64

	shouldReroute []atomic.Bool
}

// NewYoyoBudgets creates unloaded budgets for the netlist.
func NewYoyoBudgets(nl net.Netlist) *YoyoBudgets {
	n := len(nl.Nets())
	b := &YoyoBudgets{
		netlist:       nl,
		minDelay:      make([][]float64, n),
		maxDelay:      make([][]float64, n),
		target:        make([][]float64, n),
		shouldReroute: make([]atomic.Bool, n),
	}
	for _, id := range nl.Nets() {
		k := nl.NumSinks(id) + 1
		b.minDelay[id] = make([]float64, k)
		b.maxDelay[id] = make([]float64, k)
		b.target[id] = make([]float64, k)
	}
	return b
}

func (b *YoyoBudgets) Enabled() bool { return b.loaded }

func (b *YoyoBudgets) MinDelay(id net.ID, isink int) float64    { return b.minDelay[id][isink] }
func (b *YoyoBudgets) MaxDelay(id net.ID, isink int) float64    { return b.maxDelay[id][isink] }
func (b *YoyoBudgets) TargetDelay(id net.ID, isink int) float64 { return b.target[id][isink] }

func (b *YoyoBudgets) ShortPathCriticality(id net.ID, isink int) float64 {
	// Short-path pressure only applies once a min budget exists.
	if b.minDelay[id][isink] > 0 {
		return 1
	}
	return 0
}

func (b *YoyoBudgets) ShouldReroute(id net.ID) bool { return b.shouldReroute[id].Load() }

func (b *YoyoBudgets) SetShouldReroute(id net.ID, v bool) { b.shouldReroute[id].Store(v) }

// Load seeds the windows from the current (uncongested) delays: min at zero,
// max at twice the routed delay, target at the routed delay.
func (b *YoyoBudgets) Load(delays *net.DelayMatrix, timing TimingInfo) {
	for _, id := range b.netlist.Nets() {
		for isink := 1; isink <= b.netlist.NumSinks(id); isink++ {
			d := delays.Get(id, isink)
			b.minDelay[id][isink] = 0
			b.maxDelay[id][isink] = 2 * d
			b.target[id][isink] = d
		}
	}
	b.loaded = true
}

// IncreaseMinBudgetsIfStruggling raises every min budget by increase while
// worst negative hold slack persists. Returns true when no hold violation
// remains.
func (b *YoyoBudgets) IncreaseMinBudgetsIfStruggling(increase float64, timing TimingInfo, worstNegSlack float64) bool {
	if worstNegSlack == 0 {
		return true
	}
	for _, id := range b.netlist.Nets() {
		for isink := 1; isink <= b.netlist.NumSinks(id); isink++ {
			b.minDelay[id][isink] += increase
		}
		b.shouldReroute[id].Store(true)
	}
	return timing.HoldWorstNegativeSlack() == 0
}
