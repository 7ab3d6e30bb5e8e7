// Package metrics exports router progress as Prometheus metrics. The
// Collector implements the observability hook interfaces, so wiring it up
// is one registration call at startup:
//
//	col := metrics.NewCollector(prometheus.DefaultRegisterer)
//	observability.SetRouterHooks(col)
//	observability.SetDumpHooks(col)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the router's Prometheus instruments.
type Collector struct {
	iteration     prometheus.Gauge
	presFac       prometheus.Gauge
	overusedNodes prometheus.Gauge
	wirelength    prometheus.Gauge
	feasible      prometheus.Gauge

	iterationSeconds prometheus.Histogram
	convergences     prometheus.Counter
	aborts           *prometheus.CounterVec

	dumpsWritten prometheus.Counter
	dumpBytes    prometheus.Counter
	dumpErrors   prometheus.Counter
}

// NewCollector creates and registers the router metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		iteration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridroute",
			Name:      "iteration",
			Help:      "Current routing iteration number.",
		}),
		presFac: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridroute",
			Name:      "pres_fac",
			Help:      "Present-congestion penalty factor of the current iteration.",
		}),
		overusedNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridroute",
			Name:      "overused_rr_nodes",
			Help:      "RR nodes used beyond capacity after the last iteration.",
		}),
		wirelength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridroute",
			Name:      "used_wirelength",
			Help:      "Wire nodes used by the current routing.",
		}),
		feasible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridroute",
			Name:      "routing_feasible",
			Help:      "1 when the last iteration produced a legal routing.",
		}),
		iterationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gridroute",
			Name:      "iteration_seconds",
			Help:      "Wall time per routing iteration.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		convergences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridroute",
			Name:      "convergences_total",
			Help:      "Legal routings found across the run.",
		}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridroute",
			Name:      "aborts_total",
			Help:      "Early aborts by reason.",
		}, []string{"reason"}),
		dumpsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridroute",
			Name:      "dumps_written_total",
			Help:      "Route dump files written.",
		}),
		dumpBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridroute",
			Name:      "dump_bytes_total",
			Help:      "Bytes of route dumps written.",
		}),
		dumpErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridroute",
			Name:      "dump_errors_total",
			Help:      "Failed route dump writes.",
		}),
	}

	reg.MustRegister(
		c.iteration, c.presFac, c.overusedNodes, c.wirelength, c.feasible,
		c.iterationSeconds, c.convergences, c.aborts,
		c.dumpsWritten, c.dumpBytes, c.dumpErrors,
	)
	return c
}

// OnIterationStart implements observability.RouterHooks.
func (c *Collector) OnIterationStart(itry int, presFac float64) {
	c.iteration.Set(float64(itry))
	c.presFac.Set(presFac)
}

// OnIterationComplete implements observability.RouterHooks.
func (c *Collector) OnIterationComplete(itry, overusedNodes, wirelength int, feasible bool, duration time.Duration) {
	c.overusedNodes.Set(float64(overusedNodes))
	c.wirelength.Set(float64(wirelength))
	if feasible {
		c.feasible.Set(1)
	} else {
		c.feasible.Set(0)
	}
	c.iterationSeconds.Observe(duration.Seconds())
}

// OnConvergence implements observability.RouterHooks.
func (c *Collector) OnConvergence(itry, wirelength int, criticalPathDelay float64) {
	c.convergences.Inc()
}

// OnAbort implements observability.RouterHooks.
func (c *Collector) OnAbort(itry int, reason string) {
	c.aborts.WithLabelValues(reason).Inc()
}

// OnDumpWritten implements observability.DumpHooks.
func (c *Collector) OnDumpWritten(kind, path string, size int) {
	c.dumpsWritten.Inc()
	c.dumpBytes.Add(float64(size))
}

// OnDumpError implements observability.DumpHooks.
func (c *Collector) OnDumpError(kind string, err error) {
	c.dumpErrors.Inc()
}
