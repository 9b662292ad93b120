package poset

import (
	"sort"

	"github.com/sortbound/sortbound/pkg/bitgraph"
)

// Canon is the result of canonicalizing a reduced poset graph (spec
// §4.2): the winning permutation, whether it was proven unique (no
// surviving automorphism ambiguity), whether the forward and reverse
// orderings tied (self-dual), and a fingerprint suitable for hash-map
// bucketing.
type Canon struct {
	Perm         []int
	UniqueGraph  bool
	SelfDual     bool
	Fingerprint  uint64
	Reduced      *bitgraph.Graph
	ReducedClose *bitgraph.Graph
}

// Canonicalize computes the canonical form of g (assumed already
// transitively reduced) following spec §4.2:
//  1. in/out-degrees from the transitive closure.
//  2. per-vertex id refinement, run in parallel over forward and reverse
//     closure streams for floor(N/3) rounds.
//  3. layer-decompose each closure direction, stable-sort each layer by
//     refined id, concatenate into a candidate permutation; flag the
//     form as ambiguous when any two vertices share a refined id.
//  4. an ambiguous form is reported with UniqueGraph=false; no
//     automorphism is tested here, so equality of ambiguous forms is
//     left to the full isomorphism test at comparison time.
//  5. pick the lexicographically smaller of the forward/reverse id
//     sequences; detect self-duality.
//  6. the caller serializes the winning permutation's reduced graph into
//     a Record's graphBits.
func Canonicalize(g *bitgraph.Graph) Canon {
	n := g.N()
	tc := g.TransitiveClosure()
	rtc := tc.Reverse()

	fwdIDs, fwdAmbiguous := refine(tc, n)
	revIDs, revAmbiguous := refine(rtc, n)

	fwdPerm := orderByLayers(tc, fwdIDs)
	revPerm := orderByLayers(rtc, revIDs)

	fwdSeq := idsInPermOrder(fwdIDs, fwdPerm)
	revSeq := idsInPermOrder(revIDs, revPerm)

	unique := !fwdAmbiguous && !revAmbiguous

	var perm []int
	selfDual := false
	cmp := lexCompare(fwdSeq, revSeq)
	switch {
	case cmp <= 0:
		perm = fwdPerm
	default:
		perm = revPerm
	}
	if cmp == 0 {
		fwdReordered := g.Reorder(fwdPerm)
		revReordered := g.Reorder(revPerm)
		selfDual = graphsEqual(fwdReordered, revReordered, n)
	}

	reduced := g.Reorder(perm)
	reducedClose := tc.Reorder(perm)

	fp := fingerprint(reduced, fwdIDs, perm, unique, n)

	return Canon{
		Perm:         perm,
		UniqueGraph:  unique,
		SelfDual:     selfDual,
		Fingerprint:  fp,
		Reduced:      reduced,
		ReducedClose: reducedClose,
	}
}

// refine computes a per-vertex id by degree-seeded iterative mixing over
// the closure cl, running floor(n/3) rounds (spec §4.2 step 2). It
// reports whether any two vertices ended with the same id (an ambiguity
// candidate needing automorphism verification).
func refine(cl *bitgraph.Graph, n int) ([]uint64, bool) {
	id := make([]uint64, n)
	for v := 0; v < n; v++ {
		id[v] = mix(uint64(cl.OutDegree(v))<<32 | uint64(cl.InDegree(v)))
	}
	rounds := n / 3
	next := make([]uint64, n)
	for round := 0; round < rounds; round++ {
		for v := 0; v < n; v++ {
			acc := id[v] * 1099511628211
			row := cl.Row(v)
			for row != 0 {
				u := trailingZero(row)
				row &= row - 1
				acc += id[u]
			}
			next[v] = mix(acc)
		}
		copy(id, next)
	}
	ambiguous := false
	seen := map[uint64]bool{}
	for _, v := range id {
		if seen[v] {
			ambiguous = true
		}
		seen[v] = true
	}
	return id, ambiguous
}

// orderByLayers layer-decomposes cl, stable-sorts each layer by refined
// id ascending, and concatenates the layers into a full permutation
// (spec §4.2 step 3). The returned slice maps original vertex -> new
// position.
func orderByLayers(cl *bitgraph.Graph, id []uint64) []int {
	layers := cl.LayerDecompose()
	order := make([]int, 0, cl.N())
	for _, layer := range layers {
		l := append([]int(nil), layer...)
		sort.SliceStable(l, func(a, b int) bool { return id[l[a]] < id[l[b]] })
		order = append(order, l...)
	}
	perm := make([]int, cl.N())
	for pos, v := range order {
		perm[v] = pos
	}
	return perm
}

// idsInPermOrder returns the refined ids in the order the permutation
// places vertices, i.e. the sequence compared lexicographically to break
// ties between the forward and reverse canonicalization streams.
func idsInPermOrder(id []uint64, perm []int) []uint64 {
	out := make([]uint64, len(id))
	for v, pos := range perm {
		out[pos] = id[v]
	}
	return out
}

func lexCompare(a, b []uint64) int {
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

func graphsEqual(a, b *bitgraph.Graph, n int) bool {
	for i := 0; i < n; i++ {
		if a.Row(i) != b.Row(i) {
			return false
		}
	}
	return true
}

// fingerprint returns the record's dedup hash: a mixed hash of the
// canonical reduced graph's rows when the canonical form is unique, or
// a symmetry-invariant sketch over the
// sorted multiset of refined ids otherwise (spec §4.2 step 6) — the
// sketch is deliberately weaker since the shard map's equality cascade,
// not the fingerprint, carries the correctness burden for ambiguous
// graphs.
func fingerprint(reduced *bitgraph.Graph, ids []uint64, perm []int, unique bool, n int) uint64 {
	if unique {
		h := uint64(14695981039346656037)
		for i := 0; i < n; i++ {
			h = mix(h ^ uint64(reduced.Row(i)))
		}
		return h
	}
	sorted := append([]uint64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	h := uint64(14695981039346656037)
	for _, v := range sorted {
		h = mix(h ^ v)
	}
	return h
}

func mix(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

func trailingZero(row uint32) int {
	for i := 0; i < 32; i++ {
		if row&(1<<uint(i)) != 0 {
			return i
		}
	}
	return 32
}
