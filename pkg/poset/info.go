// Package poset implements the canonical-form poset record used to
// deduplicate the search space: singleton/pair bookkeeping, a bit-packed
// on-disk record layout, and a degree-refinement canonicalizer with a
// full-isomorphism fallback.
package poset

import "fmt"

// Info tracks the singleton and pair counts of a reduced poset (spec §3,
// §4.4). K is the number of isolated vertices (no edges at all); P is the
// number of "pairs" — at most 2, each a vertex pair touching only each
// other.
// Singletons and pairs always occupy the tail of the vertex ordering:
// indices [N-K-2P, N-K-2P+2P) hold the P pairs (pair i at 2i, 2i+1) and
// indices [N-K, N) hold the K singletons.
type Info struct {
	N int
	K int // singleton count
	P int // pair count, 0..2
}

// ReducedWidth returns the number of vertices in the non-trivial "body"
// of the poset, i.e. N - K - 2P.
func (pi Info) ReducedWidth() int { return pi.N - pi.K - 2*pi.P }

// Validate checks the invariants of spec §3: 2P+K<=N, P<=2.
func (pi Info) Validate() error {
	if pi.P < 0 || pi.P > 2 {
		return fmt.Errorf("poset: P=%d out of [0,2]", pi.P)
	}
	if pi.K < 0 || 2*pi.P+pi.K > pi.N {
		return fmt.Errorf("poset: 2P+K=%d exceeds N=%d", 2*pi.P+pi.K, pi.N)
	}
	return nil
}

// SingletonStart returns the first index occupied by singletons.
func (pi Info) SingletonStart() int { return pi.N - pi.K }

// PairStart returns the first index occupied by pair vertices.
func (pi Info) PairStart() int { return pi.N - pi.K - 2*pi.P }

// IsSingleton reports whether vertex v falls in the singleton tail.
func (pi Info) IsSingleton(v int) bool { return v >= pi.SingletonStart() }

// IsPair reports whether vertex v falls in the pair block.
func (pi Info) IsPair(v int) bool { return v >= pi.PairStart() && v < pi.SingletonStart() }
