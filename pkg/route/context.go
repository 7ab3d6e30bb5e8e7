package route

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/trace"
)

// iterCtx bundles the state every routing task needs during one outer
// iteration. Everything here is read-only for the tasks except the pieces
// designed for concurrent access: the per-worker pools, the retry list, the
// decomposition-retry counters and the per-net slices guarded by the
// data-separation invariant.
type iterCtx struct {
	netlist net.Netlist
	state   *State
	opts    *Options

	itry    int
	presFac float64

	routers *perWorker[ConnectionRouter]
	stats   *perWorker[*Stats]

	timing        TimingInfo
	budgets       Budgets
	worstNegSlack float64
	predictor     *Predictor

	// retry collects nets that need a full-device bounding box next
	// iteration.
	retry *retryList

	// decompRetries counts decomposition reroutes per net. The two halves
	// of a decomposed net may bump their shared counter concurrently, so
	// it is atomic.
	decompRetries []atomic.Uint32

	trace *trace.Log

	// maxDecompLevel is the deepest tree level at which decomposing still
	// yields new parallelism.
	maxDecompLevel int
}

func (c *iterCtx) statsFor(worker int) *Stats { return c.stats.Get(worker) }

func (c *iterCtx) routerFor(worker int) ConnectionRouter { return c.routers.Get(worker) }

// maxDecompositionLevel returns ceil(log2(workers)) - 1: past this depth
// there are more concurrent subtrees than workers already.
func maxDecompositionLevel(workers int) int {
	return ceilLog2(workers) - 1
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// retryList is the iteration's concurrent "reroute with full device bbox"
// collection.
type retryList struct {
	mu  sync.Mutex
	ids []net.ID
}

func newRetryList() *retryList { return &retryList{} }

func (r *retryList) Add(id net.ID) {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
}

// Drain returns the collected IDs and empties the list.
func (r *retryList) Drain() []net.ID {
	r.mu.Lock()
	out := r.ids
	r.ids = nil
	r.mu.Unlock()
	return out
}
