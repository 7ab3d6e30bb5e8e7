package route

import (
	"github.com/gridroute/gridroute/pkg/geom"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/rr"
)

// State is the global routing state shared by all workers: per-net bounding
// boxes and route trees, the RR congestion arrays, per-net status flags and
// the net delay matrix.
//
// Mutation follows the data-separation discipline: during the parallel
// traversal, a net's tree, bbox, delays and the RR nodes inside its bbox
// are only touched by the task that owns the net. The outer loop mutates
// freely between traversals.
type State struct {
	Graph  rr.Graph
	Costs  *rr.Costs
	BBs    []geom.BBox
	Trees  []*net.RouteTree
	Status *net.Status
	Delays *net.DelayMatrix
}

// NewState allocates routing state for the netlist on the graph. Bounding
// boxes start empty; call LoadBBoxes before routing.
func NewState(g rr.Graph, nl net.Netlist) *State {
	n := len(nl.Nets())
	return &State{
		Graph:  g,
		Costs:  rr.NewCosts(g),
		BBs:    make([]geom.BBox, n),
		Trees:  make([]*net.RouteTree, n),
		Status: net.NewStatus(n),
		Delays: net.NewDelayMatrix(nl),
	}
}

// FullDeviceBB returns the bounding box covering the whole grid.
func (s *State) FullDeviceBB() geom.BBox {
	xmin, xmax, ymin, ymax := s.Graph.Grid().Bounds()
	return geom.BBox{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax}
}

// TerminalExtent returns the smallest box covering every terminal of the
// net.
func (s *State) TerminalExtent(nl net.Netlist, id net.ID) geom.BBox {
	terms := nl.RRTerminals(id)
	bb := geom.BBox{
		XMin: s.Graph.NodeXlow(terms[0]),
		XMax: s.Graph.NodeXlow(terms[0]),
		YMin: s.Graph.NodeYlow(terms[0]),
		YMax: s.Graph.NodeYlow(terms[0]),
	}
	for _, t := range terms[1:] {
		x, y := s.Graph.NodeXlow(t), s.Graph.NodeYlow(t)
		bb = bb.Union(geom.BBox{XMin: x, XMax: x, YMin: y, YMax: y})
	}
	return bb
}

// LoadBBoxes regenerates every net's routing bounding box as its terminal
// extent expanded by bbFac, clamped to the device.
func (s *State) LoadBBoxes(nl net.Netlist, bbFac int) {
	full := s.FullDeviceBB()
	for _, id := range nl.Nets() {
		s.BBs[id] = s.TerminalExtent(nl, id).Expand(bbFac, full)
	}
}

// Tree returns the net's route tree, creating an empty one rooted at the
// net's source on first use.
func (s *State) Tree(nl net.Netlist, id net.ID) *net.RouteTree {
	if s.Trees[id] == nil {
		s.Trees[id] = net.NewRouteTree(nl.RRTerminals(id)[0], nl.NumSinks(id))
	}
	return s.Trees[id]
}

// CommitSinkPath records a routed path in the net's tree and charges the
// newly used nodes to the occupancy arrays.
func (s *State) CommitSinkPath(id net.ID, isink int, path []rr.NodeID) {
	added := s.Trees[id].AddSinkPath(isink, path)
	s.Costs.AddNodes(added, 1)
}

// RipupSink removes one connection and releases its occupancy.
func (s *State) RipupSink(id net.ID, isink int) {
	if s.Trees[id] == nil {
		return
	}
	removed := s.Trees[id].RemoveSink(isink)
	s.Costs.AddNodes(removed, -1)
}

// RipupNet removes the net's whole routing and releases its occupancy.
func (s *State) RipupNet(id net.ID) {
	tree := s.Trees[id]
	if tree == nil {
		return
	}
	for _, isink := range tree.ReachedSinks() {
		s.Costs.AddNodes(tree.RemoveSink(isink), -1)
	}
}

// wireClassifier is implemented by RR graphs that can distinguish routing
// wires from pin access nodes, enabling wirelength accounting.
type wireClassifier interface {
	IsWire(rr.NodeID) bool
}

// UsedWirelength counts distinct wire nodes across all route trees.
func (s *State) UsedWirelength() int {
	wc, _ := s.Graph.(wireClassifier)
	total := 0
	for _, tree := range s.Trees {
		if tree == nil {
			continue
		}
		for _, n := range tree.Nodes() {
			if wc == nil || wc.IsWire(n) {
				total++
			}
		}
	}
	return total
}

// AvailableWirelength counts the wire nodes of the graph.
func (s *State) AvailableWirelength() int {
	wc, _ := s.Graph.(wireClassifier)
	if wc == nil {
		return s.Graph.NumNodes()
	}
	total := 0
	for i := 0; i < s.Graph.NumNodes(); i++ {
		if wc.IsWire(rr.NodeID(i)) {
			total++
		}
	}
	return total
}
