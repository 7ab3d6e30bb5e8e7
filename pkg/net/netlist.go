// Package net models the clustered netlist as seen by the router: nets with
// one source and an ordered list of sinks, their route trees, and the
// per-connection delay matrix.
//
// Sink pins are addressed by "isink" indices 1..K; index 0 is the source.
// This mirrors the RR terminal layout, where terminal 0 is the source node
// and terminals 1..K are the sink nodes.
package net

import "github.com/gridroute/gridroute/pkg/rr"

// ID identifies a net within a netlist.
type ID int32

// Netlist is the read-only netlist view consumed by the router.
// Implementations must be safe for concurrent reads.
type Netlist interface {
	// Nets returns all net IDs.
	Nets() []ID

	// Name returns a human-readable net name for logs and dumps.
	Name(id ID) string

	// NumSinks returns the fanout of the net (number of sink pins).
	NumSinks(id ID) int

	// RRTerminals returns the net's terminal RR nodes: index 0 is the
	// source, 1..K are the sinks. The returned slice must not be modified.
	RRTerminals(id ID) []rr.NodeID

	// IsIgnored reports whether the router should skip the net entirely.
	IsIgnored(id ID) bool

	// IsGlobal reports whether the net is a global (e.g. clock) net.
	IsGlobal(id ID) bool
}

// Info describes one net in a [List].
type Info struct {
	Name      string
	Terminals []rr.NodeID // source first, then sinks
	Ignored   bool
	Global    bool
}

// List is a straightforward slice-backed Netlist.
type List struct {
	nets []Info
	ids  []ID
}

// NewList builds a netlist from net descriptions.
func NewList(nets []Info) *List {
	l := &List{nets: nets, ids: make([]ID, len(nets))}
	for i := range nets {
		l.ids[i] = ID(i)
	}
	return l
}

func (l *List) Nets() []ID { return l.ids }

func (l *List) Name(id ID) string { return l.nets[id].Name }

func (l *List) NumSinks(id ID) int { return len(l.nets[id].Terminals) - 1 }

func (l *List) RRTerminals(id ID) []rr.NodeID { return l.nets[id].Terminals }

func (l *List) IsIgnored(id ID) bool { return l.nets[id].Ignored }

func (l *List) IsGlobal(id ID) bool { return l.nets[id].Global }

// Status tracks the per-net routed/fixed flags reset at the top of every
// routing iteration. Flags for different nets may be written concurrently
// by tasks owning those nets; flags for one net are only touched by its
// owner.
type Status struct {
	routed []bool
	fixed  []bool
}

// NewStatus creates status flags for n nets.
func NewStatus(n int) *Status {
	return &Status{routed: make([]bool, n), fixed: make([]bool, n)}
}

// Reset clears all flags.
func (s *Status) Reset() {
	for i := range s.routed {
		s.routed[i] = false
		s.fixed[i] = false
	}
}

// IsRouted reports whether the net was routed this iteration.
func (s *Status) IsRouted(id ID) bool { return s.routed[id] }

// SetRouted marks the net as routed this iteration.
func (s *Status) SetRouted(id ID, v bool) { s.routed[id] = v }

// IsFixed reports whether the net is pre-routed and must not be touched.
func (s *Status) IsFixed(id ID) bool { return s.fixed[id] }

// SetFixed marks the net as pre-routed.
func (s *Status) SetFixed(id ID, v bool) { s.fixed[id] = v }
