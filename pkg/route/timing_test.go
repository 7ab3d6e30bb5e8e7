package route

import (
	"testing"

	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/rr"
)

func TestConstantTiming(t *testing.T) {
	c := ConstantTiming{Criticality: 0.7}
	if got := c.PinCriticality(0, 1); got != 0.7 {
		t.Errorf("PinCriticality = %v, want 0.7", got)
	}
	if c.CriticalPathDelay() != 0 || c.HoldWorstNegativeSlack() != 0 {
		t.Error("constant timing reports nonzero delays or slacks")
	}
}

func TestDelayTiming_Criticality(t *testing.T) {
	nl := net.NewList([]net.Info{
		{Name: "a", Terminals: []rr.NodeID{0, 1, 2}},
	})
	delays := net.NewDelayMatrix(nl)
	delays.Set(0, 1, 10)
	delays.Set(0, 2, 5)

	timing := NewDelayTiming(nl, delays, 0.99, 1)
	timing.Update()

	if got := timing.CriticalPathDelay(); got != 10 {
		t.Errorf("CriticalPathDelay = %v, want 10", got)
	}
	// The critical connection is clipped to max criticality.
	if got := timing.PinCriticality(0, 1); got != 0.99 {
		t.Errorf("PinCriticality(crit path) = %v, want 0.99", got)
	}
	if got := timing.PinCriticality(0, 2); got != 0.5 {
		t.Errorf("PinCriticality(half delay) = %v, want 0.5", got)
	}
}

func TestDelayTiming_CriticalityExponent(t *testing.T) {
	nl := net.NewList([]net.Info{
		{Name: "a", Terminals: []rr.NodeID{0, 1, 2}},
	})
	delays := net.NewDelayMatrix(nl)
	delays.Set(0, 1, 10)
	delays.Set(0, 2, 5)

	timing := NewDelayTiming(nl, delays, 0.99, 2)
	timing.Update()

	if got := timing.PinCriticality(0, 2); got != 0.25 {
		t.Errorf("PinCriticality with exp 2 = %v, want 0.25", got)
	}
}

func TestDelayTiming_IgnoredNetsExcluded(t *testing.T) {
	nl := net.NewList([]net.Info{
		{Name: "a", Terminals: []rr.NodeID{0, 1}},
		{Name: "clk", Terminals: []rr.NodeID{2, 3}, Ignored: true},
	})
	delays := net.NewDelayMatrix(nl)
	delays.Set(0, 1, 4)
	delays.Set(1, 1, 100)

	timing := NewDelayTiming(nl, delays, 0.99, 1)
	timing.Update()

	if got := timing.CriticalPathDelay(); got != 4 {
		t.Errorf("CriticalPathDelay = %v, want 4 (ignored net excluded)", got)
	}
}

func TestYoyoBudgets_LoadAndIncrease(t *testing.T) {
	nl := net.NewList([]net.Info{
		{Name: "a", Terminals: []rr.NodeID{0, 1, 2}},
	})
	delays := net.NewDelayMatrix(nl)
	delays.Set(0, 1, 8)
	delays.Set(0, 2, 2)

	b := NewYoyoBudgets(nl)
	if b.Enabled() {
		t.Fatal("budgets enabled before Load")
	}

	timing := ConstantTiming{}
	b.Load(delays, timing)
	if !b.Enabled() {
		t.Fatal("budgets not enabled after Load")
	}
	if got := b.MaxDelay(0, 1); got != 16 {
		t.Errorf("MaxDelay = %v, want 16", got)
	}
	if got := b.TargetDelay(0, 2); got != 2 {
		t.Errorf("TargetDelay = %v, want 2", got)
	}
	if got := b.MinDelay(0, 1); got != 0 {
		t.Errorf("MinDelay = %v, want 0", got)
	}

	b.IncreaseMinBudgetsIfStruggling(budgetIncreaseFactor, timing, -1e-9)
	if got := b.MinDelay(0, 1); got != budgetIncreaseFactor {
		t.Errorf("MinDelay after increase = %v, want %v", got, budgetIncreaseFactor)
	}
	if !b.ShouldReroute(0) {
		t.Error("net not marked for reroute after budget increase")
	}

	b.SetShouldReroute(0, false)
	if b.ShouldReroute(0) {
		t.Error("SetShouldReroute(false) did not clear the flag")
	}

	// Zero worst slack means hold is already resolved.
	if !b.IncreaseMinBudgetsIfStruggling(budgetIncreaseFactor, timing, 0) {
		t.Error("IncreaseMinBudgetsIfStruggling = false with zero slack")
	}
}
