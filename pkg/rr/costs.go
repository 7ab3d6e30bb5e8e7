package rr

// Costs holds the shared, mutable Pathfinder state for every RR node: the
// current occupancy and the accumulated (historical) congestion cost.
//
// Costs carries no locks. During a routing iteration the partition tree
// guarantees that concurrently running tasks route nets with disjoint
// bounding boxes, so each task touches a disjoint set of nodes. The outer
// iteration loop, which scans the whole array, runs single-threaded.
type Costs struct {
	graph Graph
	occ   []int32
	acc   []float64
}

// NewCosts creates zeroed congestion state for the graph.
func NewCosts(g Graph) *Costs {
	n := g.NumNodes()
	return &Costs{
		graph: g,
		occ:   make([]int32, n),
		acc:   make([]float64, n),
	}
}

// Occ returns the number of nets currently using the node.
func (c *Costs) Occ(n NodeID) int { return int(c.occ[n]) }

// AccCost returns the accumulated historical congestion cost of the node.
func (c *Costs) AccCost(n NodeID) float64 { return c.acc[n] }

// Add adjusts the occupancy of a single node by delta.
func (c *Costs) Add(n NodeID, delta int) { c.occ[n] += int32(delta) }

// AddNodes adjusts the occupancy of every listed node by delta. Used when
// ripping up (-1) or committing (+1) a route tree.
func (c *Costs) AddNodes(nodes []NodeID, delta int) {
	for _, n := range nodes {
		c.occ[n] += int32(delta)
	}
}

// PresCost returns the present-congestion multiplier of the node under the
// given pres factor: 1 when the node has a free slot for one more net,
// otherwise grows linearly with the prospective overuse.
func (c *Costs) PresCost(n NodeID, presFac float64) float64 {
	occ := int(c.occ[n]) + 1 // cost of adding ourselves
	cap := c.graph.Capacity(n)
	if occ <= cap {
		return 1
	}
	return 1 + float64(occ-cap)*presFac
}

// NodeCost returns the full congestion-adjusted cost of using the node.
func (c *Costs) NodeCost(n NodeID, presFac float64) float64 {
	return c.graph.BaseCost(n)*c.PresCost(n, presFac) + c.acc[n]
}

// Overuse summarizes congestion across the graph after an iteration.
type Overuse struct {
	// OverusedNodes counts nodes whose occupancy exceeds capacity.
	OverusedNodes int
	// TotalOveruse sums occupancy beyond capacity over all nodes.
	TotalOveruse int
	// NumNodes is the graph size, for utilization ratios.
	NumNodes int
}

// OverusePercent returns the share of overused nodes, in [0, 1].
func (o Overuse) OverusePercent() float64 {
	if o.NumNodes == 0 {
		return 0
	}
	return float64(o.OverusedNodes) / float64(o.NumNodes)
}

// UpdateAccCost grows the historical cost of every overused node by
// overuse * accFac and returns the overuse summary. Called once per outer
// iteration; accFac is zero on the first iteration so the initial
// congestion-oblivious routing does not poison the history.
func (c *Costs) UpdateAccCost(accFac float64) Overuse {
	out := Overuse{NumNodes: c.graph.NumNodes()}
	for i := range c.occ {
		over := int(c.occ[i]) - c.graph.Capacity(NodeID(i))
		if over > 0 {
			c.acc[i] += float64(over) * accFac
			out.OverusedNodes++
			out.TotalOveruse += over
		}
	}
	return out
}

// Feasible reports whether no node is overused, i.e. the current routing is
// legal.
func (c *Costs) Feasible() bool {
	for i := range c.occ {
		if int(c.occ[i]) > c.graph.Capacity(NodeID(i)) {
			return false
		}
	}
	return true
}
