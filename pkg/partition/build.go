package partition

import (
	"math"

	"github.com/gridroute/gridroute/pkg/geom"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/rr"
)

// Build constructs a partition tree over the device grid for the given
// netlist and per-net bounding boxes (indexed by net ID).
//
// The builder is deterministic: the same netlist, boxes and grid always
// produce the same tree regardless of how many workers later traverse it.
func Build(nl net.Netlist, bbs []geom.BBox, grid rr.Grid) *Tree {
	root := buildHelper(nl, bbs, nl.Nets(), 0, 0, grid.Width, grid.Height)
	if root == nil {
		root = &Node{CutlinePos: -1}
	}
	return &Tree{root: root}
}

// buildHelper partitions the region [x1,x2) x [y1,y2) holding nets. Returns
// nil when nets is empty.
func buildHelper(nl net.Netlist, bbs []geom.BBox, nets []net.ID, x1, y1, x2, y2 int) *Node {
	if len(nets) == 0 {
		return nil
	}

	out := &Node{CutlinePos: -1}

	// Prefix-sum load lookups per coordinate inside the region, rebuilt at
	// every recursion step because each cutline takes some nets out of the
	// game. Each net is weighted by its fanout so that balance approximates
	// routing effort rather than net count. Bounding boxes are inclusive of
	// their borders, so xmax itself counts as occupied.
	w := x2 - x1
	h := y2 - y1
	xBefore := make([]int, w)
	xAfter := make([]int, w)
	yBefore := make([]int, h)
	yAfter := make([]int, h)
	for _, id := range nets {
		bb := bbs[id]
		fanout := nl.NumSinks(id)

		xStart := max(x1, bb.XMin) - x1
		xEnd := min(bb.XMax+1, x2) - x1
		for x := xStart; x < w; x++ {
			xBefore[x] += fanout
		}
		for x := 0; x < xEnd; x++ {
			xAfter[x] += fanout
		}
		yStart := max(y1, bb.YMin) - y1
		yEnd := min(bb.YMax+1, y2) - y1
		for y := yStart; y < h; y++ {
			yBefore[y] += fanout
		}
		for y := 0; y < yEnd; y++ {
			yAfter[y] += fanout
		}
	}

	bestScore := math.MaxInt
	bestPos := -1
	bestAxis := geom.X

	// Scan X before Y; the first strict minimum wins, so ties go to the
	// lowest position on the X axis.
	maxXBefore := xBefore[w-1]
	maxXAfter := xAfter[0]
	for x := 0; x < w; x++ {
		if xBefore[x] == maxXBefore || xAfter[x] == maxXAfter {
			// Cutting here would leave no load on one side.
			continue
		}
		if score := abs(xBefore[x] - xAfter[x]); score < bestScore {
			bestScore = score
			bestPos = x1 + x
			bestAxis = geom.X
		}
	}
	maxYBefore := yBefore[h-1]
	maxYAfter := yAfter[0]
	for y := 0; y < h; y++ {
		if yBefore[y] == maxYBefore || yAfter[y] == maxYAfter {
			continue
		}
		if score := abs(yBefore[y] - yAfter[y]); score < bestScore {
			bestScore = score
			bestPos = y1 + y
			bestAxis = geom.Y
		}
	}

	// No usable cutline: every candidate is a one-way cut.
	if bestPos == -1 {
		out.Nets = nets
		return out
	}

	var leftNets, rightNets, myNets []net.ID
	for _, id := range nets {
		bb := bbs[id]
		switch {
		case bb.Crosses(bestAxis, bestPos):
			myNets = append(myNets, id)
		case bb.SideOfCutline(bestAxis, bestPos) == geom.Left:
			leftNets = append(leftNets, id)
		default:
			rightNets = append(rightNets, id)
		}
	}

	// A cutline that pushes everything to one side gives no parallelism; a
	// node must have both children or none. Fall back to a leaf.
	if len(leftNets) == 0 && len(rightNets) == 0 {
		out.Nets = nets
		return out
	}
	if len(leftNets) == 0 || len(rightNets) == 0 {
		out.Nets = nets
		return out
	}

	if bestAxis == geom.X {
		out.Left = buildHelper(nl, bbs, leftNets, x1, y1, bestPos, y2)
		out.Right = buildHelper(nl, bbs, rightNets, bestPos, y1, x2, y2)
	} else {
		out.Left = buildHelper(nl, bbs, leftNets, x1, y1, x2, bestPos)
		out.Right = buildHelper(nl, bbs, rightNets, x1, bestPos, x2, y2)
	}

	out.Nets = myNets
	out.CutlineAxis = bestAxis
	out.CutlinePos = bestPos
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
