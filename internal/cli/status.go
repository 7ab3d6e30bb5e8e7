package cli

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/observability"
	"github.com/gridroute/gridroute/pkg/partition"
	"github.com/gridroute/gridroute/pkg/route"
	"github.com/gridroute/gridroute/pkg/viz"
)

// statusServer exposes live routing progress over HTTP for long runs:
//
//	GET /healthz        liveness probe
//	GET /status         JSON snapshot of the current iteration
//	GET /metrics        Prometheus metrics
//	GET /partition.dot  DOT rendering of this iteration's partition tree
//
// The server never touches routing state directly; everything it serves is
// snapshotted on iteration boundaries through the observability hooks, so
// it cannot race with the parallel traversal.
type statusServer struct {
	observability.NoopRouterHooks

	netlist net.Netlist
	state   *route.State

	mu   sync.Mutex
	snap statusSnapshot
	dot  string
}

type statusSnapshot struct {
	Iteration     int     `json:"iteration"`
	PresFac       float64 `json:"pres_fac"`
	OverusedNodes int     `json:"overused_nodes"`
	Wirelength    int     `json:"wirelength"`
	Feasible      bool    `json:"feasible"`
	Converged     bool    `json:"converged"`
	UpdatedAt     string  `json:"updated_at"`
}

func newStatusServer(nl net.Netlist, state *route.State) *statusServer {
	return &statusServer{netlist: nl, state: state}
}

// OnIterationStart snapshots the partition tree of the coming iteration.
// This runs on the controller goroutine before the traversal starts, so
// reading the bounding boxes is safe.
func (s *statusServer) OnIterationStart(itry int, presFac float64) {
	tree := partition.Build(s.netlist, s.state.BBs, s.state.Graph.Grid())
	dot := viz.ToDOT(tree, s.netlist, viz.Options{})

	s.mu.Lock()
	s.snap.Iteration = itry
	s.snap.PresFac = presFac
	s.snap.UpdatedAt = time.Now().Format(time.RFC3339)
	s.dot = dot
	s.mu.Unlock()
}

func (s *statusServer) OnIterationComplete(itry, overusedNodes, wirelength int, feasible bool, _ time.Duration) {
	s.mu.Lock()
	s.snap.OverusedNodes = overusedNodes
	s.snap.Wirelength = wirelength
	s.snap.Feasible = feasible
	s.mu.Unlock()
}

func (s *statusServer) OnConvergence(itry, wirelength int, criticalPathDelay float64) {
	s.mu.Lock()
	s.snap.Converged = true
	s.mu.Unlock()
}

// handler builds the chi router for the status endpoints.
func (s *statusServer) handler(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		snap := s.snap
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	})
	r.Get("/partition.dot", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		dot := s.dot
		s.mu.Unlock()
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		w.Write([]byte(dot))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r
}

// serve starts the status server in the background. It returns immediately
// with the server, which the caller closes when it is done.
func (s *statusServer) serve(addr string, reg *prometheus.Registry) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go srv.ListenAndServe()
	return srv
}
