// Package rr models the routing-resource (RR) graph side of the router: the
// graph of physical wires and pins a net can be assigned to, and the shared
// congestion state (occupancy, historical cost) negotiated by Pathfinder.
//
// The router core only needs a narrow view of the RR graph, captured by the
// [Graph] interface: node coordinates, capacities, base costs and adjacency.
// [GridGraph] provides a synthetic mesh implementation used by the CLI and
// the tests; a real architecture-derived graph can be plugged in behind the
// same interface.
package rr

// NodeID identifies a node in the RR graph.
type NodeID int32

// Invalid is the zero-value-adjacent "no node" marker.
const Invalid NodeID = -1

// Grid holds the device grid dimensions in logic-block coordinates.
type Grid struct {
	Width  int
	Height int
}

// Bounds returns the full-device bounding box for this grid.
func (g Grid) Bounds() (xmin, xmax, ymin, ymax int) {
	return 0, g.Width - 1, 0, g.Height - 1
}

// Graph is the read-only view of the RR graph consumed by the router.
// Implementations must be safe for concurrent reads.
type Graph interface {
	// NumNodes returns the node count. NodeIDs are dense in [0, NumNodes).
	NumNodes() int

	// NodeXlow returns the low X coordinate of the node. For the purposes
	// of bounding-box checks a node is inside a box iff its (xlow, ylow)
	// corner is inside it.
	NodeXlow(n NodeID) int

	// NodeYlow returns the low Y coordinate of the node.
	NodeYlow(n NodeID) int

	// Capacity returns how many nets may legally use the node at once.
	Capacity(n NodeID) int

	// BaseCost returns the intrinsic cost of using the node.
	BaseCost(n NodeID) float64

	// Edges returns the nodes reachable from n. The returned slice must not
	// be modified.
	Edges(n NodeID) []NodeID

	// Grid returns the device dimensions.
	Grid() Grid
}

// InsideBB reports whether the node's (xlow, ylow) corner lies within the
// inclusive rectangle. The connection router refuses to expand to nodes
// outside a net's bounding box, which is what makes the data-separation
// argument of the parallel router hold.
func InsideBB(g Graph, n NodeID, xmin, xmax, ymin, ymax int) bool {
	x, y := g.NodeXlow(n), g.NodeYlow(n)
	return x >= xmin && x <= xmax && y >= ymin && y <= ymax
}
