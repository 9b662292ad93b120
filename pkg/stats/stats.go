// Package stats implements the engine's run-time counters (spec §5
// "statistics counter... periodic merge into a global... aggregator"),
// grounded on original_source/src/stats.h/.cpp's AVMSTAT/STAT enums:
// per-worker-thread counters merged periodically into process-wide
// totals, here additionally exposed as Prometheus metrics per the
// DOMAIN STACK (github.com/prometheus/client_golang).
package stats

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter names, mirroring a representative subset of the original
// engine's STAT enum relevant to the Go port's components.
const (
	DownsetsEnumerated  = "downsets_enumerated"
	OverflowRecovered   = "linext_overflow_recovered"
	HashmapRehashes     = "hashmap_rehashes"
	IsoTestsRun         = "iso_tests_run"
	IsoTestsPositive    = "iso_tests_positive"
	ChildMapBWFindYes   = "child_map_bw_find_yes"
	ChildMapBWFindNo    = "child_map_bw_find_no"
	ChildMapBWFindUnf   = "child_map_bw_find_unfinished"
	ChildMapOldGenFind  = "child_map_oldgen_find"
	ParentUnsortableBW  = "parent_unsortable_bw_limit"
)

var allCounters = []string{
	DownsetsEnumerated,
	OverflowRecovered,
	HashmapRehashes,
	IsoTestsRun,
	IsoTestsPositive,
	ChildMapBWFindYes,
	ChildMapBWFindNo,
	ChildMapBWFindUnf,
	ChildMapOldGenFind,
	ParentUnsortableBW,
}

// Local is a per-worker-thread counter set, incremented without
// synchronization during a batch and merged into a Global at batch
// boundaries (spec §5 "stats thread-local+periodic-merge").
type Local struct {
	values map[string]uint64
}

// NewLocal returns an empty per-thread counter set.
func NewLocal() *Local {
	return &Local{values: make(map[string]uint64, len(allCounters))}
}

// Inc increments counter name by delta.
func (l *Local) Inc(name string, delta uint64) { l.values[name] += delta }

// Global is the process-wide merged counter set, safe for concurrent
// Merge calls, and exposed as Prometheus counters.
type Global struct {
	values   map[string]*uint64
	registry *prometheus.Registry
	gauges   map[string]prometheus.Counter
}

// NewGlobal returns a Global with every known counter registered against
// a fresh Prometheus registry.
func NewGlobal() *Global {
	g := &Global{
		values:   make(map[string]*uint64, len(allCounters)),
		registry: prometheus.NewRegistry(),
		gauges:   make(map[string]prometheus.Counter, len(allCounters)),
	}
	for _, name := range allCounters {
		var v uint64
		g.values[name] = &v
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sortbound",
			Name:      name,
			Help:      "sortbound engine counter: " + name,
		})
		g.gauges[name] = c
		g.registry.MustRegister(c)
	}
	return g
}

// Registry returns the Prometheus registry backing this Global, for a
// caller that wants to serve /metrics.
func (g *Global) Registry() *prometheus.Registry { return g.registry }

// Merge atomically adds every counter in l into g and resets l to zero,
// also advancing the matching Prometheus counter.
func (g *Global) Merge(l *Local) {
	for name, delta := range l.values {
		if delta == 0 {
			continue
		}
		if ptr, ok := g.values[name]; ok {
			atomic.AddUint64(ptr, delta)
		}
		if c, ok := g.gauges[name]; ok {
			c.Add(float64(delta))
		}
		l.values[name] = 0
	}
}

// Value returns the current merged value of counter name.
func (g *Global) Value(name string) uint64 {
	ptr, ok := g.values[name]
	if !ok {
		return 0
	}
	return atomic.LoadUint64(ptr)
}

// Snapshot returns every counter's current value, for the end-of-run
// summary the CLI prints alongside the verdict line.
func (g *Global) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, len(g.values))
	for name, ptr := range g.values {
		out[name] = atomic.LoadUint64(ptr)
	}
	return out
}
