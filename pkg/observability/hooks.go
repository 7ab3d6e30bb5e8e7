// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about routing iterations, convergence, and
// route-dump writes.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the router core dependency-free from observability frameworks
//   - Allows different backends (Prometheus, OpenTelemetry, plain logs)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRouterHooks(&myRouterHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Router().OnIterationComplete(itry, overused, wirelength, feasible, elapsed)
package observability

import (
	"sync"
	"time"
)

// RouterHooks receives events from the routing iteration loop.
type RouterHooks interface {
	// OnIterationStart fires before an iteration's parallel traversal.
	OnIterationStart(itry int, presFac float64)

	// OnIterationComplete fires after congestion accounting for the
	// iteration is done.
	OnIterationComplete(itry int, overusedNodes, wirelength int, feasible bool, duration time.Duration)

	// OnConvergence fires when a legal routing is found (possibly not the
	// last one, when the router re-enters to improve quality).
	OnConvergence(itry int, wirelength int, criticalPathDelay float64)

	// OnAbort fires when the router gives up before the iteration budget.
	OnAbort(itry int, reason string)
}

// DumpHooks receives events from route-dump writes.
type DumpHooks interface {
	// OnDumpWritten records a persisted route artifact.
	OnDumpWritten(kind string, path string, size int)

	// OnDumpError records a failed dump write.
	OnDumpError(kind string, err error)
}

// NoopRouterHooks is a no-op implementation of RouterHooks.
type NoopRouterHooks struct{}

func (NoopRouterHooks) OnIterationStart(int, float64)                          {}
func (NoopRouterHooks) OnIterationComplete(int, int, int, bool, time.Duration) {}
func (NoopRouterHooks) OnConvergence(int, int, float64)                        {}
func (NoopRouterHooks) OnAbort(int, string)                                    {}

// NoopDumpHooks is a no-op implementation of DumpHooks.
type NoopDumpHooks struct{}

func (NoopDumpHooks) OnDumpWritten(string, string, int) {}
func (NoopDumpHooks) OnDumpError(string, error)         {}

var (
	routerHooks RouterHooks = NoopRouterHooks{}
	dumpHooks   DumpHooks   = NoopDumpHooks{}
	hooksMu     sync.RWMutex
)

// SetRouterHooks registers custom router hooks.
// This should be called once at application startup before routing begins.
func SetRouterHooks(h RouterHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		routerHooks = h
	}
}

// SetDumpHooks registers custom dump hooks.
// This should be called once at application startup before routing begins.
func SetDumpHooks(h DumpHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		dumpHooks = h
	}
}

// Router returns the registered router hooks.
func Router() RouterHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return routerHooks
}

// Dump returns the registered dump hooks.
func Dump() DumpHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return dumpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	routerHooks = NoopRouterHooks{}
	dumpHooks = NoopDumpHooks{}
}
