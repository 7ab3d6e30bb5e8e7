package rr

// GridGraph is a synthetic RR graph over a W x H mesh. Every grid location
// carries one source node, one sink node and ChannelWidth wire tracks.
// Wires connect to the wire tracks of the four neighboring locations and to
// the local sink; the local source feeds the local tracks. Sources and sinks
// have effectively unlimited capacity, tracks have capacity one, so all
// congestion negotiation happens on the wires.
//
// The layout is dense: node IDs for location (x, y) start at
// (y*W + x) * (ChannelWidth + 2), with the source first, then the sink,
// then the tracks.
type GridGraph struct {
	grid         Grid
	channelWidth int
	edges        [][]NodeID
	baseCost     []float64
}

const (
	sourceSlot = 0
	sinkSlot   = 1
	trackSlot0 = 2
)

// NewGridGraph builds a mesh RR graph with the given dimensions and channel
// width. Width and height must be positive; channelWidth must be at least 1.
func NewGridGraph(width, height, channelWidth int) *GridGraph {
	g := &GridGraph{
		grid:         Grid{Width: width, Height: height},
		channelWidth: channelWidth,
	}
	stride := g.stride()
	n := width * height * stride
	g.edges = make([][]NodeID, n)
	g.baseCost = make([]float64, n)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := NodeID((y*width + x) * stride)
			src := base + sourceSlot
			snk := base + sinkSlot

			g.baseCost[src] = 0
			g.baseCost[snk] = 0

			for t := 0; t < channelWidth; t++ {
				track := base + trackSlot0 + NodeID(t)
				g.baseCost[track] = 1

				// Local access: source drives every track, every track
				// reaches the local sink.
				g.edges[src] = append(g.edges[src], track)
				g.edges[track] = append(g.edges[track], snk)

				// Same-track edges to the four neighbors.
				for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := x+d[0], y+d[1]
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					nbase := NodeID((ny*width + nx) * stride)
					g.edges[track] = append(g.edges[track], nbase+trackSlot0+NodeID(t))
				}

				// Switch to the adjacent track in the same location, so a
				// path can change tracks to dodge congestion.
				if channelWidth > 1 {
					next := base + trackSlot0 + NodeID((t+1)%channelWidth)
					g.edges[track] = append(g.edges[track], next)
				}
			}
		}
	}
	return g
}

func (g *GridGraph) stride() int { return g.channelWidth + 2 }

// SourceAt returns the source node at grid location (x, y).
func (g *GridGraph) SourceAt(x, y int) NodeID {
	return NodeID((y*g.grid.Width+x)*g.stride() + sourceSlot)
}

// SinkAt returns the sink node at grid location (x, y).
func (g *GridGraph) SinkAt(x, y int) NodeID {
	return NodeID((y*g.grid.Width+x)*g.stride() + sinkSlot)
}

// ChannelWidth returns the number of wire tracks per location.
func (g *GridGraph) ChannelWidth() int { return g.channelWidth }

// IsWire reports whether the node is a routing track (as opposed to a
// source or sink access node).
func (g *GridGraph) IsWire(n NodeID) bool {
	return int(n)%g.stride() >= trackSlot0
}

func (g *GridGraph) NumNodes() int { return len(g.edges) }

func (g *GridGraph) NodeXlow(n NodeID) int {
	return (int(n) / g.stride()) % g.grid.Width
}

func (g *GridGraph) NodeYlow(n NodeID) int {
	return (int(n) / g.stride()) / g.grid.Width
}

func (g *GridGraph) Capacity(n NodeID) int {
	if g.IsWire(n) {
		return 1
	}
	// Access nodes never congest: every net entering or leaving a location
	// does so through its own logical pin.
	return 1 << 20
}

func (g *GridGraph) BaseCost(n NodeID) float64 { return g.baseCost[n] }

func (g *GridGraph) Edges(n NodeID) []NodeID { return g.edges[n] }

func (g *GridGraph) Grid() Grid { return g.grid }
