package search

import (
	"context"
	"math/bits"
	"sort"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
	"github.com/sortbound/sortbound/pkg/shardmap"
)

// edge is an ordered pair naming one relation in a reduced graph.
type edge struct{ a, b int }

// totalOrderGraph returns the Hasse diagram of the total order
// 0<1<...<n-1: the one poset that needs zero further comparisons, used to
// seed backward search at level C (spec §4.9: "start from the
// fully-sorted total order... peel one reduction edge per step down to
// the antichain at level 0").
func totalOrderGraph(n int) *bitgraph.Graph {
	g := bitgraph.New(n)
	for i := 0; i+1 < n; i++ {
		g.SetEdge(i, i+1)
	}
	return g
}

// reductionEdges lists every direct edge of a reduced graph.
func reductionEdges(reduced *bitgraph.Graph) []edge {
	n := reduced.N()
	var out []edge
	for i := 0; i < n; i++ {
		row := reduced.Row(i)
		for row != 0 {
			j := bits.TrailingZeros32(row)
			row &= row - 1
			out = append(out, edge{a: i, b: j})
		}
	}
	return out
}

// transEdges computes the relations present in the closure of reduced
// that stop being implied once edge (k1,k2) is removed -- the edges
// spec §4.9 calls the "trans-edges" a deletion exposes, which the
// predecessor must reinstate explicitly to preserve every other order
// relation the child carried.
func transEdges(reduced, closure *bitgraph.Graph, k1, k2 int) []edge {
	without := reduced.Clone()
	without.ClearEdge(k1, k2)
	withoutClosure := without.TransitiveClosure()

	n := reduced.N()
	var out []edge
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if i == k1 && j == k2 {
				continue
			}
			if closure.HasEdge(i, j) && !withoutClosure.HasEdge(i, j) {
				out = append(out, edge{a: i, b: j})
			}
		}
	}
	return out
}

// buildPredecessor returns the reduced graph formed by deleting edge
// (k1,k2) from reduced and reinstating the given subset of trans-edges
// as direct edges, then fully transitively reducing the result.
func buildPredecessor(reduced *bitgraph.Graph, k1, k2 int, kept []edge) *bitgraph.Graph {
	g := reduced.Clone()
	g.ClearEdge(k1, k2)
	for _, e := range kept {
		g.SetEdge(e.a, e.b)
	}
	closure := g.TransitiveClosure()
	return g.FullTransitiveReduction(closure)
}

// subsets enumerates every subset of es as a slice of kept elements
// (spec §4.9: "recursively choose subsets of the trans-edges to also
// delete"). Bounded to small edge counts by construction -- a reduced
// DAG on N<=32 vertices has at most N-1 trans-edges exposed by a single
// deletion in practice far fewer.
func subsets(es []edge) [][]edge {
	if len(es) == 0 {
		return [][]edge{nil}
	}
	rest := subsets(es[1:])
	out := make([][]edge, 0, len(rest)*2)
	out = append(out, rest...)
	for _, r := range rest {
		withFirst := append([]edge{es[0]}, r...)
		out = append(out, withFirst)
	}
	return out
}

// BackwardLevel holds the state one backward-search pass over a child
// layer produces: the new parent layer plus the shared map it inserted
// into.
type BackwardLevel struct {
	Parent    *Layer
	ParentMap *shardmap.Map
}

// childSortableLookup reports whether the given candidate is already
// known sortable at the child level -- the reverse-edge validation spec
// §4.9 requires before accepting a predecessor. Backed by the child
// layer's own map, since backward search proceeds from level C down to
// 0 and only ever has the already-built child level (c+1) to check
// against.
type childSortableLookup interface {
	Find(c shardmap.Candidate) *poset.Record
}

// ExpandChild runs the predecessor-expansion step of spec §4.9 for one
// child poset: for every reduction edge, compute the base predecessor
// and every trans-edge-subset variant, validate each via the
// reverse-edge check, and insert survivors into parentMap.
func ExpandChild(reduced, closure *bitgraph.Graph, childMap childSortableLookup, parentMap *shardmap.Map) []*poset.Record {
	var inserted []*poset.Record
	for _, e := range reductionEdges(reduced) {
		trans := transEdges(reduced, closure, e.a, e.b)
		for _, kept := range subsets(trans) {
			candidate := buildPredecessor(reduced, e.a, e.b, kept)
			if !validReverseEdge(candidate, e.a, e.b, childMap) {
				continue
			}
			canon := poset.Canonicalize(candidate)
			cand := candidateFromCanon(canon)
			rec, _ := parentMap.FindOrInsert(cand)
			rec.SetStatus(poset.StatusYes)
			inserted = append(inserted, rec)
		}
	}
	return inserted
}

// validReverseEdge reinstates (k2,k1) -- the comparison outcome opposite
// the one the child resolved -- onto the candidate predecessor and
// checks the result is already known sortable at the child level (spec
// §4.9's reverse-edge poset check).
func validReverseEdge(candidate *bitgraph.Graph, k1, k2 int, childMap childSortableLookup) bool {
	reversed := candidate.Clone()
	reversed.SetEdge(k2, k1)
	reversedClosure := reversed.TransitiveClosure()
	reversedReduced := reversed.FullTransitiveReduction(reversedClosure)

	canon := poset.Canonicalize(reversedReduced)
	cand := candidateFromCanon(canon)
	rec := childMap.Find(cand)
	return rec != nil && rec.Status() == poset.StatusYes
}

// RunBackwardLevel partitions the child layer across workerCount workers
// via an atomic batch cursor (spec §4.9 "Parallelism"), expanding every
// child poset into candidate predecessors and inserting survivors into a
// shared parent map.
func RunBackwardLevel(ctx context.Context, childLayer *Layer, childBWMap childSortableLookup, parentMap *shardmap.Map, workerCount int) error {
	dist := NewBatchDistributor(childLayer.Len(), 0)
	return dist.Run(ctx, workerCount, func(_ context.Context, start, end int) error {
		for i := start; i < end; i++ {
			if childLayer.Record(i).Status() != poset.StatusYes {
				continue
			}
			ExpandChild(childLayer.Reduced(i), childLayer.Closure(i), childBWMap, parentMap)
		}
		return nil
	})
}

// CompleteAboveSchedule computes the completeness threshold per level
// (spec §4.9 "Completeness threshold"): the bandwidth halves each level
// from the root, a second bandwidth takes over from switchLevel on, and
// the fullLayers nearest the root are exhaustive (completeAbove=1).
func CompleteAboveSchedule(totalC, fullLayers, switchLevel int, bandwidthLow, bandwidthHigh uint64) []uint64 {
	schedule := make([]uint64, totalC+1)
	for c := 0; c <= totalC; c++ {
		if c < fullLayers {
			schedule[c] = 1
			continue
		}
		bw := bandwidthLow
		if c >= switchLevel {
			bw = bandwidthHigh
		}
		shift := uint(c - fullLayers)
		v := bw >> shift
		if v == 0 {
			v = 1
		}
		schedule[c] = v
	}
	return schedule
}

// SortByLinExtAscending orders layer indices by their record's stored
// linExt value at column c ascending (spec §4.8 phase 0: "sort them by
// linExt ascending"), used identically by both directions when staging
// work.
func SortByLinExtAscending(layer *Layer, c int) []int {
	idx := make([]int, layer.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return layer.Record(idx[a]).LinExt(c) < layer.Record(idx[b]).LinExt(c)
	})
	return idx
}
