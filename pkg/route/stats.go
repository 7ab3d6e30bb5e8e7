package route

// Stats accumulates router work counters. Every worker owns a private Stats
// instance during an iteration; the dispatcher merges them into one summary
// after the traversal joins.
type Stats struct {
	NetsRouted          int
	ConnectionsRouted   int
	SkeletonConnections int
	DecomposedNets      int
	HeapPushes          int
	HeapPops            int
	FullBBRetries       int
}

// Reset zeroes all counters.
func (s *Stats) Reset() { *s = Stats{} }

// Merge adds other's counters into s.
func (s *Stats) Merge(other *Stats) {
	s.NetsRouted += other.NetsRouted
	s.ConnectionsRouted += other.ConnectionsRouted
	s.SkeletonConnections += other.SkeletonConnections
	s.DecomposedNets += other.DecomposedNets
	s.HeapPushes += other.HeapPushes
	s.HeapPops += other.HeapPops
	s.FullBBRetries += other.FullBBRetries
}
