package cli

import (
	"context"
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gridroute/gridroute/pkg/dump"
	"github.com/gridroute/gridroute/pkg/errors"
	"github.com/gridroute/gridroute/pkg/metrics"
	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/observability"
	"github.com/gridroute/gridroute/pkg/problem"
	"github.com/gridroute/gridroute/pkg/route"
	"github.com/gridroute/gridroute/pkg/trace"
)

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var (
		configPath string
		workers    int
		heap       string
		maxIters   int
		noTiming   bool
		quiet      bool
		dumpDir    string
		tracePath  string
		listenAddr string
	)

	cmd := &cobra.Command{
		Use:   "route <problem.json>",
		Short: "Route a problem file with the parallel Pathfinder core",
		Long: `Route reads a problem file (device grid plus nets), builds the routing
resource graph, and runs the parallel timing-driven router until the
routing is legal or the iteration budget runs out.`,
		Example: `  # Route with defaults
  gridroute route design.json

  # Eight workers, bucket heap, options from a config file
  gridroute route design.json --workers 8 --heap bucket --config router.toml

  # Keep per-iteration route dumps and the partition trace
  gridroute route design.json --dump-dir dumps/ --trace partition_tree.log

  # Spinner instead of per-iteration logs
  gridroute route design.json --quiet

  # Watch a long run live
  gridroute route design.json --listen :6110`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd.Context(), args[0], routeFlags{
				configPath: configPath,
				workers:    workers,
				heap:       heap,
				maxIters:   maxIters,
				noTiming:   noTiming,
				quiet:      quiet,
				dumpDir:    dumpDir,
				tracePath:  tracePath,
				listenAddr: listenAddr,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "TOML file with router options")
	cmd.Flags().IntVar(&workers, "workers", 0, "routing worker count (default: CPU count)")
	cmd.Flags().StringVar(&heap, "heap", "", "connection router heap: binary or bucket")
	cmd.Flags().IntVar(&maxIters, "max-iters", 0, "maximum routing iterations")
	cmd.Flags().BoolVar(&noTiming, "no-timing", false, "disable timing-driven routing")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "replace per-iteration logs with a progress spinner")
	cmd.Flags().StringVar(&dumpDir, "dump-dir", "", "write per-iteration route dumps under this directory")
	cmd.Flags().StringVar(&tracePath, "trace", "", "write the partition-tree trace log to this file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "serve live status and metrics on this address")

	return cmd
}

type routeFlags struct {
	configPath string
	workers    int
	heap       string
	maxIters   int
	noTiming   bool
	quiet      bool
	dumpDir    string
	tracePath  string
	listenAddr string
}

func (c *CLI) runRoute(ctx context.Context, problemPath string, flags routeFlags) error {
	logger := loggerFromContext(ctx)

	opts, err := loadOptions(flags.configPath)
	if err != nil {
		return err
	}
	if flags.workers != 0 {
		opts.NumWorkers = flags.workers
	}
	if flags.heap != "" {
		opts.RouterHeap = route.HeapKind(flags.heap)
	}
	if flags.maxIters != 0 {
		opts.MaxRouterIterations = flags.maxIters
	}
	if flags.dumpDir != "" {
		opts.SaveRoutingPerIteration = true
	}

	prob, err := problem.LoadFile(problemPath)
	if err != nil {
		return err
	}
	graph, netlist := prob.Build()
	state := route.NewState(graph, netlist)

	logger.Info("loaded problem",
		"grid", fmt.Sprintf("%dx%d", prob.Grid.Width, prob.Grid.Height),
		"channel_width", prob.Grid.ChannelWidth,
		"nets", len(prob.Nets))

	router := &route.Router{
		Netlist: netlist,
		State:   state,
		Logger:  logger,
		Trace:   trace.New(),
	}
	if !flags.noTiming {
		router.Timing = route.NewDelayTiming(netlist, state.Delays, opts.MaxCriticality, opts.CriticalityExp)
	}
	if opts.RoutingBudgetsAlgorithm == route.BudgetsYoyo {
		router.Budgets = route.NewYoyoBudgets(netlist)
	}

	hooks, cleanup, err := setupObservability(logger, netlist, state, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	// Quiet runs trade the per-iteration status lines for a live spinner
	// fed by the same hooks.
	var spin *Spinner
	if flags.quiet {
		c.SetLogLevel(LogWarn)
		spin = newSpinnerWithContext(ctx, "Routing...")
		hooks = append(hooks, &spinnerHooks{spin: spin})
	}

	if len(hooks) == 0 {
		observability.SetRouterHooks(observability.NoopRouterHooks{})
	} else {
		observability.SetRouterHooks(hooks)
	}
	defer observability.Reset()

	if spin != nil {
		spin.Start()
	}
	start := time.Now()
	result, routeErr := router.TryParallelRoute(opts)
	if spin != nil {
		spin.Stop()
	}

	if flags.tracePath != "" {
		if err := router.Trace.WriteFile(flags.tracePath); err != nil {
			printWarning("could not write trace log: %v", err)
		} else {
			printFile(flags.tracePath)
		}
	}

	if routeErr != nil {
		return routeErr
	}
	if !result.Success {
		printError("routing failed after %d iterations (%s)", result.Iterations, time.Since(start).Round(time.Millisecond))
		printDetail("overused RR nodes: %d", result.OverusedNodes)
		return errors.New(errors.ErrCodeConvergenceAborted, "no legal routing within %d iterations", result.Iterations)
	}

	printSuccess("routed %d nets in %d iterations (%s)", len(prob.Nets), result.Iterations, time.Since(start).Round(time.Millisecond))
	printKeyValue("Wirelength", fmt.Sprintf("%d", result.UsedWirelength))
	if !flags.noTiming {
		printKeyValue("Crit path", fmt.Sprintf("%.1f", result.CriticalPathDelay))
	}
	printKeyValue("Connections", fmt.Sprintf("%d", result.Stats.ConnectionsRouted))
	return nil
}

// setupObservability wires the metrics collector, the status server and the
// per-iteration dump writer into one hook fan-out.
func setupObservability(logger *charmlog.Logger, netlist net.Netlist, state *route.State, flags routeFlags) (teeRouterHooks, func(), error) {
	var hooks teeRouterHooks
	cleanup := func() {}

	if flags.listenAddr != "" {
		reg := prometheus.NewRegistry()
		col := metrics.NewCollector(reg)
		observability.SetDumpHooks(col)
		hooks = append(hooks, col)

		status := newStatusServer(netlist, state)
		hooks = append(hooks, status)
		srv := status.serve(flags.listenAddr, reg)
		cleanup = func() { srv.Close() }
		logger.Info("status server listening", "addr", flags.listenAddr)
	}

	if flags.dumpDir != "" {
		store, err := dump.NewStore(flags.dumpDir)
		if err != nil {
			return nil, cleanup, err
		}
		logger.Info("saving per-iteration route dumps", "dir", store.Dir())
		hooks = append(hooks, &iterationDumper{store: store, netlist: netlist, state: state, logger: logger})
	}

	return hooks, cleanup, nil
}

// spinnerHooks mirrors routing progress onto the quiet-mode spinner.
type spinnerHooks struct {
	observability.NoopRouterHooks
	spin *Spinner
}

func (h *spinnerHooks) OnIterationStart(itry int, presFac float64) {
	h.spin.SetMessage(fmt.Sprintf("Routing... iteration %d", itry))
}

func (h *spinnerHooks) OnIterationComplete(itry, overusedNodes, _ int, feasible bool, _ time.Duration) {
	if feasible {
		h.spin.SetMessage(fmt.Sprintf("Routing... iteration %d legal", itry))
		return
	}
	h.spin.SetMessage(fmt.Sprintf("Routing... iteration %d, %d overused", itry, overusedNodes))
}

// iterationDumper writes a route snapshot at the end of every iteration.
// It runs on the controller goroutine, after the traversal joined, so the
// route trees are stable.
type iterationDumper struct {
	observability.NoopRouterHooks
	store   *dump.Store
	netlist net.Netlist
	state   *route.State
	logger  *charmlog.Logger
}

func (d *iterationDumper) OnIterationComplete(itry, _, _ int, _ bool, _ time.Duration) {
	if _, err := d.store.WriteIteration(itry, d.netlist, d.state); err != nil {
		d.logger.Warn("route dump failed", "iteration", itry, "err", err)
	}
}

// teeRouterHooks fans hook events out to several sinks.
type teeRouterHooks []observability.RouterHooks

func (t teeRouterHooks) OnIterationStart(itry int, presFac float64) {
	for _, h := range t {
		h.OnIterationStart(itry, presFac)
	}
}

func (t teeRouterHooks) OnIterationComplete(itry, overusedNodes, wirelength int, feasible bool, d time.Duration) {
	for _, h := range t {
		h.OnIterationComplete(itry, overusedNodes, wirelength, feasible, d)
	}
}

func (t teeRouterHooks) OnConvergence(itry, wirelength int, criticalPathDelay float64) {
	for _, h := range t {
		h.OnConvergence(itry, wirelength, criticalPathDelay)
	}
}

func (t teeRouterHooks) OnAbort(itry int, reason string) {
	for _, h := range t {
		h.OnAbort(itry, reason)
	}
}
