// Package search implements the forward BFS/AND-OR search, the backward
// BFS search, and the bidirectional driver that combines them (spec
// §4.8-§4.10): the engine's core exploration of the poset space reachable
// from the N-element antichain under comparison queries, modulo
// isomorphism, bounded by a comparison budget C.
package search

import (
	"sync"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
)

// Meta is a layer's persisted header (spec §3 "Layer... persisted
// Meta{N,C,c,completeAbove,maxLinExt[0..C],numYes,numUnf}"; spec §6's
// binary layer-file header).
type Meta struct {
	N             uint32
	C             uint32
	Level         uint32
	CompleteAbove uint32
	MaxLinExt     []uint64 // length C+1
	NumYes        uint64
	NumUnf        uint64
}

// item is one poset tracked at a layer: its record, its reduced graph,
// and the closure needed for linear-extension/comparison enumeration.
type item struct {
	rec     *poset.Record
	reduced *bitgraph.Graph
	closure *bitgraph.Graph
	info    poset.Info
}

// EdgeEntry is one entry in a layer's AND-OR edge list: childA and
// childB are indices into the child layer's items; the entry's meaning
// is "this parent poset is sortable if (childA AND childB) comparison
// resolves it" — the list as a whole is a disjunction over entries
// (spec §3 "Edge-list entry = (childA,childB) index pairs meaning
// OR-of-(AND-pairs)").
type EdgeEntry struct {
	ParentIdx      int
	ChildA, ChildB int
}

// Layer is one level c of the search: a multiset of poset records plus
// the edge list connecting them to level c+1 while they remain
// UNFINISHED (spec §3 Layer).
type Layer struct {
	Meta  Meta
	items []item
	Edges []EdgeEntry

	mu sync.Mutex
}

// NewLayer returns an empty layer at level c.
func NewLayer(n, totalC, level int) *Layer {
	return &Layer{Meta: Meta{
		N:         uint32(n),
		C:         uint32(totalC),
		Level:     uint32(level),
		MaxLinExt: make([]uint64, totalC+1),
	}}
}

// Len returns the number of posets tracked at this layer. Safe for
// concurrent use with Add, since phase-1 workers query a growing child
// layer's length while other workers are still appending to it.
func (l *Layer) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Add appends a poset to the layer, returning its index. Guarded by a
// mutex because RunForwardStep's workers call Add on a shared child layer
// concurrently.
func (l *Layer) Add(rec *poset.Record, reduced, closure *bitgraph.Graph, info poset.Info) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, item{rec: rec, reduced: reduced, closure: closure, info: info})
	return len(l.items) - 1
}

// Record returns the record at index i.
func (l *Layer) Record(i int) *poset.Record { return l.items[i].rec }

// Reduced returns the reduced graph at index i.
func (l *Layer) Reduced(i int) *bitgraph.Graph { return l.items[i].reduced }

// Closure returns the transitive closure at index i.
func (l *Layer) Closure(i int) *bitgraph.Graph { return l.items[i].closure }

// Info returns the singleton/pair accounting at index i.
func (l *Layer) Info(i int) poset.Info { return l.items[i].info }

// CountByStatus tallies this layer's records by status, refreshing the
// Meta's NumYes/NumUnf counters, which the driver persists at teardown.
func (l *Layer) CountByStatus() (yes, no, unfinished int) {
	for _, it := range l.items {
		switch it.rec.Status() {
		case poset.StatusYes:
			yes++
		case poset.StatusNo:
			no++
		default:
			unfinished++
		}
	}
	l.Meta.NumYes = uint64(yes)
	l.Meta.NumUnf = uint64(unfinished)
	return
}
