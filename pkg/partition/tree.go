// Package partition builds the spatial partition tree that drives parallel
// routing.
//
// The device region is recursively divided by axis-aligned cutlines chosen
// to balance routing load (net fanout) between the two halves. Nets whose
// bounding boxes cross a cutline are held at that internal node; all other
// nets descend to the side they lie on. Sibling subtrees always describe
// disjoint device regions, so nets held in different subtrees can be routed
// concurrently without touching the same routing resources.
package partition

import (
	"github.com/gridroute/gridroute/pkg/geom"
	"github.com/gridroute/gridroute/pkg/net"
)

// Node is one region of the partition tree. An internal node carries a
// cutline and both children; a leaf carries neither.
//
// The dispatcher also uses nodes as per-task scratch space: VirtualNets is
// filled by the parent's decomposition step before the node's task starts,
// and IsRoutable / ReroutedNets are written by the one task processing the
// node. A node is only ever touched by one task at a time.
type Node struct {
	// Nets claimed by this node: nets crossing the cutline for an internal
	// node, all nets in the region for a leaf.
	Nets []net.ID

	Left  *Node
	Right *Node

	CutlineAxis geom.Axis
	// CutlinePos is the cutline coordinate, or -1 for a leaf. The cutline
	// sits at CutlineAxis = CutlinePos + 0.5.
	CutlinePos int

	// VirtualNets inherited from the parent's net decomposition.
	VirtualNets []VirtualNet

	// Iteration results, reduced after the traversal.
	IsRoutable   bool
	ReroutedNets []net.ID
}

// IsLeaf reports whether the node has no cutline.
func (n *Node) IsLeaf() bool { return n.CutlinePos < 0 }

// Walk visits the subtree rooted at n in pre-order.
func (n *Node) Walk(visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	n.Left.Walk(visit)
	n.Right.Walk(visit)
}

// VirtualNet is one half of a decomposed net: the net's identity plus a
// bounding box clipped to one side of the cutline. It identifies, purely by
// spatial filtering, the subset of the net's sinks the receiving subtree is
// responsible for. Virtual nets never outlive the iteration that created
// them.
type VirtualNet struct {
	NetID     net.ID
	ClippedBB geom.BBox
}

// Tree is the partition tree for one routing iteration. It is rebuilt from
// scratch every iteration because net bounding boxes may have grown.
type Tree struct {
	root *Node
}

// Root returns the root node. Build always produces a root, even for an
// empty netlist.
func (t *Tree) Root() *Node { return t.root }

// CountNodes returns the number of nodes in the tree.
func (t *Tree) CountNodes() int {
	n := 0
	t.root.Walk(func(*Node) { n++ })
	return n
}
