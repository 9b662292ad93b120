package search

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/linext"
	"github.com/sortbound/sortbound/pkg/poset"
	"github.com/sortbound/sortbound/pkg/shardmap"
)

// Lookup is the forward search's window into the rest of the bidirectional
// meet: the completed backward layers (gated by completeness) and the
// old-gen cache of posets resolved below the active frontier (spec §4.8
// phase 1 "consult the backward map and old-gen", §4.9 "Completeness
// threshold").
type Lookup interface {
	// Backward reports the status the backward layer at level has for c,
	// if known. A miss is only authoritative (NO) once that layer's
	// completeness threshold guarantees it was searched exhaustively.
	Backward(level int, c shardmap.Candidate) (poset.Status, bool)
	// OldGen probes the generational cache.
	OldGen(c shardmap.Candidate) (poset.Status, bool)
	// PutOldGen stores a freshly resolved verdict in the generational
	// cache.
	PutOldGen(c shardmap.Candidate, status poset.Status)
}

// comparison is one candidate pairwise query (i,j) the search considers
// resolving next.
type comparison struct {
	i, j     int
	tij, tji *big.Int
}

// enumerateComparisons lists the candidate pairwise comparisons for a
// parent poset, restricted by its singleton/pair structure (spec §4.8:
// "2 pairs→6 pairs-of-pairs, 1 pair→pair×singletons/body, 0 pairs→all
// body pairs+lead singleton pair").
func enumerateComparisons(info poset.Info, tbl linext.Table) []comparison {
	n := info.N
	var pairs [][2]int
	switch info.P {
	case 2:
		// the 2 pair-blocks occupy the last 4 slots before singletons;
		// spec calls for the 6 pairs-of-pairs among those 4 vertices.
		start := info.PairStart()
		for a := start; a < start+4; a++ {
			for b := a + 1; b < start+4; b++ {
				pairs = append(pairs, [2]int{a, b})
			}
		}
	case 1:
		start := info.PairStart()
		pA, pB := start, start+1
		for v := 0; v < n; v++ {
			if v == pA || v == pB {
				continue
			}
			pairs = append(pairs, [2]int{pA, v})
		}
	default:
		bodyEnd := info.PairStart()
		for a := 0; a < bodyEnd; a++ {
			for b := a + 1; b < bodyEnd; b++ {
				pairs = append(pairs, [2]int{a, b})
			}
		}
		if info.K > 0 {
			pairs = append(pairs, [2]int{0, info.SingletonStart()})
		}
	}

	out := make([]comparison, 0, len(pairs))
	for _, p := range pairs {
		i, j := p[0], p[1]
		if i >= n || j >= n || i == j {
			continue
		}
		out = append(out, comparison{i: i, j: j, tij: tbl.T[i][j], tji: tbl.T[j][i]})
	}
	return out
}

// feasible reports whether comparison c can possibly resolve its poset
// within the remaining comparison budget (spec §4.8: "feasible iff
// t[i][j]>0 ∧ t[j][i]>0 ∧ both ≤2^(C−c−1)").
func feasible(c comparison, remaining int) bool {
	if c.tij.Sign() <= 0 || c.tji.Sign() <= 0 {
		return false
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(remaining-1))
	return c.tij.Cmp(limit) <= 0 && c.tji.Cmp(limit) <= 0
}

// orderedChildren returns the two child graphs a comparison produces,
// ordered so the more likely branch (t[i][j] >= t[j][i]) comes first
// (spec §4.8 "children ordered t[i][j]>=t[j][i]").
func orderedChildren(reduced *bitgraph.Graph, closure *bitgraph.Graph, c comparison) (first, second *bitgraph.Graph) {
	withIJ := applyComparison(reduced, closure, c.i, c.j)
	withJI := applyComparison(reduced, closure, c.j, c.i)
	if c.tij.Cmp(c.tji) >= 0 {
		return withIJ, withJI
	}
	return withJI, withIJ
}

// applyComparison returns a new reduced graph with edge i->j added and
// transitively reduced (spec §4.1's seeded reduction), representing the
// poset resulting from learning "i precedes j".
func applyComparison(reduced, closure *bitgraph.Graph, i, j int) *bitgraph.Graph {
	full := reduced.Clone()
	full.SetEdge(i, j)
	newClosure := closure.Clone()
	newClosure.SetEdge(i, j)
	newClosure = newClosure.TransitiveClosure()
	full.TransitiveReduction(newClosure, i, j)
	return full
}

// Outcome is what phase 1 decides about one candidate comparison.
type Outcome int

const (
	OutcomeIndeterminate Outcome = iota
	OutcomeSortable
	OutcomeUnsortable
)

// smallSortable is early-exit heuristic (a): a poset with at most 7
// linear extensions that also fits the remaining budget's exponential
// ceiling is trivially sortable in one comparison per halving, without
// needing to touch the backward map or old-gen (spec §4.8 "a parent whose
// own extension count is this small is sortable outright").
func smallSortable(extensions *big.Int, remaining int) bool {
	if remaining <= 0 {
		return extensions.Cmp(bigOne) <= 0
	}
	if extensions.Cmp(big.NewInt(7)) > 0 {
		return false
	}
	limit := new(big.Int).Lsh(bigOne, uint(remaining))
	return extensions.Cmp(limit) <= 0
}

// incomparablePairCount returns the number of pairs (i,j) the closure
// leaves unordered -- the count early-exit heuristic (b) compares against
// the remaining budget, since resolving one incomparable pair per
// comparison always suffices to finish sorting (spec §4.8 "a parent with
// at most `remaining` incomparable pairs left is sortable outright").
func incomparablePairCount(closure *bitgraph.Graph) int {
	n := closure.N()
	count := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !closure.HasEdge(i, j) && !closure.HasEdge(j, i) {
				count++
			}
		}
	}
	return count
}

// resolveCandidate finds or inserts cand in childMap, then -- while still
// UNFINISHED -- tries to settle it via heuristic (a), the backward map at
// its own level, and the old-gen cache, in that order (spec §4.8 phase 1,
// §4.9 step 3).
func resolveCandidate(childMap *shardmap.Map, aux Lookup, level, totalC int, cand shardmap.Candidate, extensions *big.Int) *poset.Record {
	rec, _ := childMap.FindOrInsert(cand)
	if rec.Status() != poset.StatusUnfinished {
		return rec
	}
	if smallSortable(extensions, totalC-level) {
		rec.SetStatus(poset.StatusYes)
		if aux != nil {
			aux.PutOldGen(cand, poset.StatusYes)
		}
		return rec
	}
	if aux == nil {
		return rec
	}
	if status, ok := aux.Backward(level, cand); ok {
		rec.SetStatus(status)
		return rec
	}
	if status, ok := aux.OldGen(cand); ok {
		rec.SetStatus(status)
	}
	return rec
}

// ResolveComparison classifies a single candidate comparison by resolving
// each child through resolveCandidate, per spec §4.8 phase 1:
//
//	SORTABLE   both children already known YES
//	UNSORTABLE one child already known NO
//	INDETERMINATE otherwise -- register the pair in the child map
func ResolveComparison(childMap *shardmap.Map, aux Lookup, childLevel, totalC int, first, second shardmap.Candidate, firstE, secondE *big.Int) (Outcome, *poset.Record, *poset.Record) {
	recA := resolveCandidate(childMap, aux, childLevel, totalC, first, firstE)
	recB := resolveCandidate(childMap, aux, childLevel, totalC, second, secondE)

	sa, sb := recA.Status(), recB.Status()
	switch {
	case sa == poset.StatusYes && sb == poset.StatusYes:
		return OutcomeSortable, recA, recB
	case sa == poset.StatusNo || sb == poset.StatusNo:
		return OutcomeUnsortable, recA, recB
	default:
		return OutcomeIndeterminate, recA, recB
	}
}

// ProcessParent runs phase 1 for a single UNFINISHED parent: first try to
// settle the parent itself via the backward map, old-gen, and heuristics
// (b)/(c), then enumerate feasible comparisons, classify each via
// ResolveComparison, and either resolve the parent immediately (a
// SORTABLE comparison, or all comparisons unsortable => NO) or stage
// surviving comparisons into the layer's edge list for phase 2/3 (spec
// §4.8).
func ProcessParent(parentIdx int, layer *Layer, childLayer *Layer, childMap *shardmap.Map, aux Lookup, totalC int) []EdgeEntry {
	rec := layer.Record(parentIdx)
	if rec.Status() != poset.StatusUnfinished {
		return nil
	}
	closure := layer.Closure(parentIdx)
	reduced := layer.Reduced(parentIdx)
	info := layer.Info(parentIdx)
	level := int(layer.Meta.Level)
	remaining := totalC - level

	selfCand := candidateFromGraph(reduced)
	if aux != nil {
		if status, ok := aux.Backward(level, selfCand); ok {
			rec.SetStatus(status)
			return nil
		}
		if status, ok := aux.OldGen(selfCand); ok {
			rec.SetStatus(status)
			return nil
		}
	}

	// Early-exit heuristic (b): one comparison per incomparable pair
	// always suffices.
	if incomparablePairCount(closure) <= remaining {
		rec.SetStatus(poset.StatusYes)
		if aux != nil {
			aux.PutOldGen(selfCand, poset.StatusYes)
		}
		return nil
	}

	tbl := poset.CountLinearExtensions(closure)

	// Early-exit heuristic (c): more linear extensions than the
	// remaining budget can ever distinguish makes the parent unsortable.
	if tbl.E.Cmp(new(big.Int).Lsh(bigOne, uint(remaining))) > 0 {
		rec.SetStatus(poset.StatusNo)
		if aux != nil {
			aux.PutOldGen(selfCand, poset.StatusNo)
		}
		return nil
	}

	comparisons := enumerateComparisons(info, tbl)

	var entries []EdgeEntry
	anySurvived := false
	for _, c := range comparisons {
		if !feasible(c, remaining) {
			continue
		}
		firstG, secondG := orderedChildren(reduced, closure, c)
		firstCanon := poset.Canonicalize(firstG)
		secondCanon := poset.Canonicalize(secondG)

		firstCand := candidateFromCanon(firstCanon)
		secondCand := candidateFromCanon(secondCanon)

		firstE, secondE := c.tij, c.tji
		if c.tij.Cmp(c.tji) < 0 {
			firstE, secondE = c.tji, c.tij
		}

		outcome, recA, recB := ResolveComparison(childMap, aux, level+1, totalC, firstCand, secondCand, firstE, secondE)
		switch outcome {
		case OutcomeSortable:
			rec.SetStatus(poset.StatusYes)
			if aux != nil {
				aux.PutOldGen(selfCand, poset.StatusYes)
			}
			return nil
		case OutcomeUnsortable:
			continue
		default:
			anySurvived = true
			idxA := childLayer.Add(recA, firstCanon.Reduced, firstCanon.ReducedClose, poset.Info{N: firstCanon.Reduced.N()})
			idxB := childLayer.Add(recB, secondCanon.Reduced, secondCanon.ReducedClose, poset.Info{N: secondCanon.Reduced.N()})
			entries = append(entries, EdgeEntry{ParentIdx: parentIdx, ChildA: idxA, ChildB: idxB})
		}
	}

	if !anySurvived {
		rec.SetStatus(poset.StatusNo)
		if aux != nil {
			aux.PutOldGen(selfCand, poset.StatusNo)
		}
		return nil
	}
	return entries
}

func candidateFromCanon(c poset.Canon) shardmap.Candidate {
	return shardmap.Candidate{
		Fingerprint: c.Fingerprint,
		Reduced:     c.Reduced,
		Closure:     c.ReducedClose,
		UniqueGraph: c.UniqueGraph,
		SelfDual:    c.SelfDual,
	}
}

// candidateFromGraph canonicalizes g on the spot and builds the resulting
// shardmap candidate -- used where a layer only retains the reduced graph
// itself, not the Canon that produced it.
func candidateFromGraph(g *bitgraph.Graph) shardmap.Candidate {
	return candidateFromCanon(poset.Canonicalize(g))
}

// ResolveEdges runs phase 2/3: walk the edge list repeatedly, resolving
// each parent whose children have both settled, until no entry changes
// status (spec §4.8 phase 2/3: "all-collapse→NO, any-YES-comparison→YES,
// else advance... re-run... until no UNFINISHED entries").
func ResolveEdges(layer *Layer, entries []EdgeEntry, aux Lookup) {
	changed := true
	for changed {
		changed = false
		remainingByParent := map[int]bool{}
		yesByParent := map[int]bool{}
		for _, e := range entries {
			parent := layer.Record(e.ParentIdx)
			if parent.Status() != poset.StatusUnfinished {
				continue
			}
			a := layer.Record(e.ChildA)
			b := layer.Record(e.ChildB)
			switch {
			case a.Status() == poset.StatusYes && b.Status() == poset.StatusYes:
				yesByParent[e.ParentIdx] = true
			case a.Status() == poset.StatusNo || b.Status() == poset.StatusNo:
				// this comparison collapses; parent stays undecided
				// unless every comparison collapses.
			default:
				remainingByParent[e.ParentIdx] = true
			}
		}
		for idx := 0; idx < layer.Len(); idx++ {
			rec := layer.Record(idx)
			if rec.Status() != poset.StatusUnfinished {
				continue
			}
			if yesByParent[idx] {
				rec.SetStatus(poset.StatusYes)
				if aux != nil {
					aux.PutOldGen(candidateFromGraph(layer.Reduced(idx)), poset.StatusYes)
				}
				changed = true
				continue
			}
			if !remainingByParent[idx] {
				rec.SetStatus(poset.StatusNo)
				if aux != nil {
					aux.PutOldGen(candidateFromGraph(layer.Reduced(idx)), poset.StatusNo)
				}
				changed = true
			}
		}
	}
}

// RunForwardStep drives one full phase-0..3 pass over layer, producing
// childLayer's contents and fully resolving every parent that can be
// resolved from this pass alone (spec §4.8). Each worker processes its
// batch of parents independently; entries collected from all workers are
// merged under entriesMu before phase 2/3 runs, since childLayer.Add is
// the only other point of concurrent shared-state mutation and it guards
// itself. childLimit and edgeLimit, once either is reached, stop workers
// from starting new parents -- the unstarted parents stay UNFINISHED for
// a later pass to pick up (spec §6 "--child-limit/--edge-limit... partial
// advance").
func RunForwardStep(ctx context.Context, layer, childLayer *Layer, childMap *shardmap.Map, aux Lookup, totalC, workerCount, childLimit, edgeLimit int) error {
	dist := NewBatchDistributor(layer.Len(), 0)
	var entriesMu sync.Mutex
	var allEntries []EdgeEntry
	var childCount, edgeCount int64

	err := dist.Run(ctx, workerCount, func(_ context.Context, start, end int) error {
		for i := start; i < end; i++ {
			if layer.Record(i).Status() != poset.StatusUnfinished {
				continue
			}
			if childLimit > 0 && atomic.LoadInt64(&childCount) >= int64(childLimit) {
				return nil
			}
			if edgeLimit > 0 && atomic.LoadInt64(&edgeCount) >= int64(edgeLimit) {
				return nil
			}

			before := childLayer.Len()
			entries := ProcessParent(i, layer, childLayer, childMap, aux, totalC)
			if added := childLayer.Len() - before; added > 0 {
				atomic.AddInt64(&childCount, int64(added))
			}
			if len(entries) == 0 {
				continue
			}
			atomic.AddInt64(&edgeCount, int64(len(entries)))
			entriesMu.Lock()
			allEntries = append(allEntries, entries...)
			entriesMu.Unlock()
		}
		return nil
	})
	if err != nil {
		return err
	}
	layer.Edges = append(layer.Edges, allEntries...)
	ResolveEdges(layer, layer.Edges, aux)
	return nil
}
