package net

// DelayMatrix stores per-connection routing delays, indexed by net and
// isink. Entry 0 of each net's row is unused (isink 0 is the source).
//
// During an iteration, each row is written only by the task that owns the
// net; decomposed halves of the same net write disjoint isink entries of
// the shared row.
type DelayMatrix struct {
	rows [][]float64
}

// NewDelayMatrix allocates a delay matrix shaped after the netlist.
func NewDelayMatrix(nl Netlist) *DelayMatrix {
	ids := nl.Nets()
	m := &DelayMatrix{rows: make([][]float64, len(ids))}
	for _, id := range ids {
		m.rows[id] = make([]float64, nl.NumSinks(id)+1)
	}
	return m
}

// Get returns the delay of the connection to isink of the net.
func (m *DelayMatrix) Get(id ID, isink int) float64 { return m.rows[id][isink] }

// Set records the delay of the connection to isink of the net.
func (m *DelayMatrix) Set(id ID, isink int, d float64) { m.rows[id][isink] = d }

// ZeroNet clears all sink delays of the net. Used for ignored signals when
// timing analysis is off.
func (m *DelayMatrix) ZeroNet(id ID) {
	row := m.rows[id]
	for i := 1; i < len(row); i++ {
		row[i] = 0
	}
}

// NumSinks returns the sink count the matrix was shaped with for the net.
func (m *DelayMatrix) NumSinks(id ID) int { return len(m.rows[id]) - 1 }
