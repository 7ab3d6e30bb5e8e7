// Package problem defines the on-disk routing problem format: device grid
// dimensions plus nets described by pin coordinates. The CLI reads a
// problem file, synthesizes the RR graph and netlist, and hands both to the
// router core.
package problem

import (
	"github.com/gridroute/gridroute/pkg/errors"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/rr"
)

// Pin is a grid location of a net terminal.
type Pin struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Net describes one net: a source pin and one or more sink pins.
type Net struct {
	Name    string `json:"name"`
	Source  Pin    `json:"source"`
	Sinks   []Pin  `json:"sinks"`
	Global  bool   `json:"global,omitempty"`
	Ignored bool   `json:"ignored,omitempty"`
}

// Grid describes the synthetic device.
type Grid struct {
	Width        int `json:"width"`
	Height       int `json:"height"`
	ChannelWidth int `json:"channel_width"`
}

// Problem is a complete routing problem.
type Problem struct {
	Grid Grid  `json:"grid"`
	Nets []Net `json:"nets"`
}

// Validate checks grid sanity and pin bounds.
func (p *Problem) Validate() error {
	if p.Grid.Width < 1 || p.Grid.Height < 1 {
		return errors.New(errors.ErrCodeInvalidProblem, "grid must be at least 1x1, got %dx%d", p.Grid.Width, p.Grid.Height)
	}
	if p.Grid.ChannelWidth < 1 {
		return errors.New(errors.ErrCodeInvalidProblem, "channel width must be >= 1, got %d", p.Grid.ChannelWidth)
	}
	inGrid := func(pin Pin) bool {
		return pin.X >= 0 && pin.X < p.Grid.Width && pin.Y >= 0 && pin.Y < p.Grid.Height
	}
	for i, n := range p.Nets {
		if n.Name == "" {
			return errors.New(errors.ErrCodeInvalidProblem, "net %d has no name", i)
		}
		if len(n.Sinks) == 0 {
			return errors.New(errors.ErrCodeInvalidProblem, "net %q has no sinks", n.Name)
		}
		if !inGrid(n.Source) {
			return errors.New(errors.ErrCodeInvalidProblem, "net %q source (%d,%d) outside grid", n.Name, n.Source.X, n.Source.Y)
		}
		for _, s := range n.Sinks {
			if !inGrid(s) {
				return errors.New(errors.ErrCodeInvalidProblem, "net %q sink (%d,%d) outside grid", n.Name, s.X, s.Y)
			}
		}
	}
	return nil
}

// Build synthesizes the RR graph and netlist for the problem. Validate
// first; Build assumes a valid problem.
func (p *Problem) Build() (*rr.GridGraph, *net.List) {
	graph := rr.NewGridGraph(p.Grid.Width, p.Grid.Height, p.Grid.ChannelWidth)
	infos := make([]net.Info, len(p.Nets))
	for i, n := range p.Nets {
		terms := make([]rr.NodeID, 0, len(n.Sinks)+1)
		terms = append(terms, graph.SourceAt(n.Source.X, n.Source.Y))
		for _, s := range n.Sinks {
			terms = append(terms, graph.SinkAt(s.X, s.Y))
		}
		infos[i] = net.Info{
			Name:      n.Name,
			Terminals: terms,
			Ignored:   n.Ignored,
			Global:    n.Global,
		}
	}
	return graph, net.NewList(infos)
}
