package route

import (
	"slices"
	"time"

	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/partition"
)

// IterResults is the reduced outcome of one parallel routing iteration.
type IterResults struct {
	// IsRoutable is false when some connection is physically impossible.
	IsRoutable bool
	// ReroutedNets lists the nets whose routing actually changed.
	ReroutedNets []net.ID
	// Stats is the merged per-worker work summary.
	Stats Stats
}

// decomposeRouteWithPartitionTree builds a fresh partition tree for this
// iteration and routes every net through it, decomposing cutline-crossing
// nets into virtual halves where that buys parallelism.
func decomposeRouteWithPartitionTree(pool *workPool, ctx *iterCtx) IterResults {
	start := time.Now()
	tree := partition.Build(ctx.netlist, ctx.state.BBs, ctx.state.Graph.Grid())
	ctx.trace.Logf(0, "built partition tree with %d nodes in %s", tree.CountNodes(), time.Since(start).Round(time.Microsecond))

	pool.Go(func(worker int) {
		processNode(pool, tree.Root(), ctx, worker, 0)
	})
	pool.Wait()

	// Any net that exhausted its clipped box gets the whole device next
	// iteration and is never decomposed again; at the tree root it has no
	// sibling to contend with.
	full := ctx.state.FullDeviceBB()
	for _, id := range ctx.retry.Drain() {
		ctx.state.BBs[id] = full
		ctx.decompRetries[id].Store(MaxDecompReroute)
		ctx.statsFor(0).FullBBRetries++
	}

	return reduce(tree, ctx)
}

// processNode is one task of the traversal: handle the node's own nets and
// inherited virtual nets, then fan out the two children as parallel tasks.
// The node is only ever touched by this task; children start strictly after
// the node-local work, which is what lets virtual nets reach them safely.
func processNode(pool *workPool, node *partition.Node, ctx *iterCtx, worker, level int) {
	// Largest nets first: they benefit most from early routing and from
	// decomposition.
	slices.SortStableFunc(node.Nets, func(a, b net.ID) int {
		return ctx.netlist.NumSinks(b) - ctx.netlist.NumSinks(a)
	})

	node.IsRoutable = true
	node.ReroutedNets = node.ReroutedNets[:0]

	start := time.Now()

	for _, id := range node.Nets {
		if shouldDecomposeNet(ctx, id, level, node) {
			if left, right, ok := routeAndDecompose(ctx, worker, id, node); ok {
				node.Left.VirtualNets = append(node.Left.VirtualNets, left)
				node.Right.VirtualNets = append(node.Right.VirtualNets, right)
				node.ReroutedNets = append(node.ReroutedNets, id)
				continue
			}
		}

		flags := routeNet(ctx, worker, id)
		if !flags.Success && !flags.RetryWithFullBB {
			node.IsRoutable = false
		}
		if flags.WasRerouted {
			node.ReroutedNets = append(node.ReroutedNets, id)
		}
		if flags.RetryWithFullBB {
			ctx.retry.Add(id)
		}
	}

	// Inherited virtual nets are halves of high fanout nets; they run at
	// this node, before the children spawn, like everything else here.
	for _, vnet := range node.VirtualNets {
		flags := routeVirtualNet(ctx, worker, vnet)

		switch {
		case !flags.Success && !flags.RetryWithFullBB:
			// The cutline probably left this half without useful routing
			// resources. Decomposition failure is non-fatal: stop splitting
			// this net and let the next iteration route it whole.
			ctx.decompRetries[vnet.NetID].Store(MaxDecompReroute)
		case flags.RetryWithFullBB:
			ctx.retry.Add(vnet.NetID)
		}
	}

	ctx.trace.Logf(worker, "level %d node with %d nets and %d virtual nets routed in %s",
		level, len(node.Nets), len(node.VirtualNets), time.Since(start).Round(time.Microsecond))

	if node.Left != nil && node.Right != nil {
		left, right := node.Left, node.Right
		pool.Go(func(w int) { processNode(pool, left, ctx, w, level+1) })
		pool.Go(func(w int) { processNode(pool, right, ctx, w, level+1) })
	}
}

// reduce walks the routed tree serially, concatenates per-node results and
// folds in the per-worker statistics.
func reduce(tree *partition.Tree, ctx *iterCtx) IterResults {
	out := IterResults{IsRoutable: true}
	tree.Root().Walk(func(n *partition.Node) {
		out.IsRoutable = out.IsRoutable && n.IsRoutable
		out.ReroutedNets = append(out.ReroutedNets, n.ReroutedNets...)
	})
	ctx.stats.ForEach(func(s *Stats) { out.Stats.Merge(s) })
	return out
}
