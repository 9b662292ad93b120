package poset

import "github.com/sortbound/sortbound/pkg/bitgraph"

// Isomorphic reports whether a and b (both already transitively reduced,
// same N) describe the same poset up to vertex relabeling, via a VF2-style
// backtracking search over candidate vertex mappings. This is the
// fallback path the equality cascade (spec §4.5 step 6) falls back to
// whenever either record has UniqueGraph=false, since the canonicalizer
// could not rule out an automorphism collapsing two distinct labelings to
// the same fingerprint (spec §4.2 step 4, spec §9 "canonicalization is
// probabilistic").
func Isomorphic(a, b *bitgraph.Graph) bool {
	n := a.N()
	if n != b.N() || a.EdgeCount() != b.EdgeCount() {
		return false
	}
	mapAB := make([]int, n)
	mapBA := make([]int, n)
	for i := range mapAB {
		mapAB[i] = -1
		mapBA[i] = -1
	}
	return vf2Step(a, b, 0, mapAB, mapBA)
}

func vf2Step(a, b *bitgraph.Graph, v int, mapAB, mapBA []int) bool {
	n := a.N()
	if v == n {
		return true
	}
	if mapAB[v] != -1 {
		return vf2Step(a, b, v+1, mapAB, mapBA)
	}
	aOut, aIn := a.OutDegree(v), a.InDegree(v)
	for cand := 0; cand < n; cand++ {
		if mapBA[cand] != -1 {
			continue
		}
		if b.OutDegree(cand) != aOut || b.InDegree(cand) != aIn {
			continue
		}
		if !consistent(a, b, v, cand, mapAB) {
			continue
		}
		mapAB[v] = cand
		mapBA[cand] = v
		if vf2Step(a, b, v+1, mapAB, mapBA) {
			return true
		}
		mapAB[v] = -1
		mapBA[cand] = -1
	}
	return false
}

// consistent checks that mapping v->cand agrees with every edge already
// placed between v and an already-mapped vertex u<v.
func consistent(a, b *bitgraph.Graph, v, cand int, mapAB []int) bool {
	for u := 0; u < v; u++ {
		mu := mapAB[u]
		if mu == -1 {
			continue
		}
		if a.HasEdge(u, v) != b.HasEdge(mu, cand) {
			return false
		}
		if a.HasEdge(v, u) != b.HasEdge(cand, mu) {
			return false
		}
	}
	return true
}
