package route

import (
	"math"

	"github.com/gridroute/gridroute/pkg/net"
)

// TimingInfo is the router's window into the timing analyzer. Update is
// called once per outer iteration after net delays settle; criticality
// queries happen concurrently from routing tasks and must be read-only
// between updates.
type TimingInfo interface {
	// Update re-analyzes timing from the current net delays.
	Update()

	// PinCriticality returns the criticality of the connection to isink of
	// the net, in [0, 1], already shaped by max_criticality and
	// criticality_exp.
	PinCriticality(id net.ID, isink int) float64

	// CriticalPathDelay returns the delay of the least-slack path.
	CriticalPathDelay() float64

	SetupWorstNegativeSlack() float64
	SetupTotalNegativeSlack() float64
	HoldWorstNegativeSlack() float64
	HoldTotalNegativeSlack() float64
}

// ConstantTiming reports the same criticality for every connection and no
// slack violations. Criticality 1 yields a min-delay routing (the
// first-iteration default when timing is on); criticality 0 yields a pure
// routability routing (timing analysis off).
type ConstantTiming struct {
	Criticality float64
}

func (ConstantTiming) Update() {}

func (c ConstantTiming) PinCriticality(net.ID, int) float64 { return c.Criticality }

func (ConstantTiming) CriticalPathDelay() float64 { return 0 }

func (ConstantTiming) SetupWorstNegativeSlack() float64 { return 0 }
func (ConstantTiming) SetupTotalNegativeSlack() float64 { return 0 }
func (ConstantTiming) HoldWorstNegativeSlack() float64  { return 0 }
func (ConstantTiming) HoldTotalNegativeSlack() float64  { return 0 }

// DelayTiming derives criticalities from the routed delays themselves: a
// connection's criticality is its share of the critical path delay, shaped
// by the criticality exponent and clipped to max criticality. It stands in
// for a full static timing analyzer on unconstrained problems.
type DelayTiming struct {
	netlist        net.Netlist
	delays         *net.DelayMatrix
	maxCriticality float64
	criticalityExp float64

	criticalPath float64
}

// NewDelayTiming creates delay-derived timing over the shared delay matrix.
func NewDelayTiming(nl net.Netlist, delays *net.DelayMatrix, maxCrit, critExp float64) *DelayTiming {
	return &DelayTiming{
		netlist:        nl,
		delays:         delays,
		maxCriticality: maxCrit,
		criticalityExp: critExp,
	}
}

// Update recomputes the critical path as the largest connection delay.
func (t *DelayTiming) Update() {
	worst := 0.0
	for _, id := range t.netlist.Nets() {
		if t.netlist.IsIgnored(id) {
			continue
		}
		for isink := 1; isink <= t.netlist.NumSinks(id); isink++ {
			if d := t.delays.Get(id, isink); d > worst {
				worst = d
			}
		}
	}
	t.criticalPath = worst
}

func (t *DelayTiming) PinCriticality(id net.ID, isink int) float64 {
	if t.criticalPath <= 0 {
		return t.maxCriticality
	}
	crit := t.delays.Get(id, isink) / t.criticalPath
	crit = math.Pow(crit, t.criticalityExp)
	return math.Min(crit, t.maxCriticality)
}

func (t *DelayTiming) CriticalPathDelay() float64 { return t.criticalPath }

// The synthetic problems the delay-derived analyzer serves have no setup or
// hold constraints, so slacks are always met.
func (t *DelayTiming) SetupWorstNegativeSlack() float64 { return 0 }
func (t *DelayTiming) SetupTotalNegativeSlack() float64 { return 0 }
func (t *DelayTiming) HoldWorstNegativeSlack() float64  { return 0 }
func (t *DelayTiming) HoldTotalNegativeSlack() float64  { return 0 }
