// Package dump persists per-iteration route artifacts: JSON snapshots of
// every net's route tree, grouped under a unique run ID. Dumps are purely
// diagnostic; the router never reads them back.
package dump

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/observability"
	"github.com/gridroute/gridroute/pkg/route"
)

// Store writes route dumps for one routing run into
// <dir>/<run-id>/iteration_NNN.route.json.
type Store struct {
	dir   string
	runID string
}

// NewStore creates a dump store rooted at dir with a fresh run ID.
func NewStore(dir string) (*Store, error) {
	runID := uuid.NewString()
	full := filepath.Join(dir, runID)
	if err := os.MkdirAll(full, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}
	return &Store{dir: full, runID: runID}, nil
}

// RunID returns the unique identifier of this run.
func (s *Store) RunID() string { return s.runID }

// Dir returns the run's dump directory.
func (s *Store) Dir() string { return s.dir }

// netDump is the serialized routing of one net.
type netDump struct {
	Name         string  `json:"name"`
	Nodes        []int32 `json:"nodes"`
	ReachedSinks []int   `json:"reached_sinks"`
}

// iterationDump is one iteration's route snapshot.
type iterationDump struct {
	RunID     string    `json:"run_id"`
	Iteration int       `json:"iteration"`
	Nets      []netDump `json:"nets"`
}

// WriteIteration snapshots the current route trees of the netlist.
func (s *Store) WriteIteration(itry int, nl net.Netlist, state *route.State) (string, error) {
	out := iterationDump{RunID: s.runID, Iteration: itry}
	for _, id := range nl.Nets() {
		tree := state.Trees[id]
		if tree == nil {
			continue
		}
		nd := netDump{Name: nl.Name(id), ReachedSinks: tree.ReachedSinks()}
		for _, n := range tree.Nodes() {
			nd.Nodes = append(nd.Nodes, int32(n))
		}
		out.Nets = append(out.Nets, nd)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		observability.Dump().OnDumpError("route", err)
		return "", fmt.Errorf("marshal route dump: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("iteration_%03d.route.json", itry))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		observability.Dump().OnDumpError("route", err)
		return "", fmt.Errorf("write route dump: %w", err)
	}
	observability.Dump().OnDumpWritten("route", path, len(data))
	return path, nil
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string. Used to fingerprint dumps when
// comparing runs.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
