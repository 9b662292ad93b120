// Package linext counts linear extensions of a poset — the number of
// distinct total orders consistent with the partial order — and the
// pairwise dominance table used by the forward search to decide whether
// a candidate comparison can possibly resolve a poset within budget
// (spec §4.3).
//
// The algorithm enumerates order ideals ("downsets": prefixes of a
// linear extension, closed under taking predecessors) via a breadth-first
// walk seeded at the empty set, memoized by bitmask — the Go equivalent
// of the original engine's downset-enumeration DP
// (original_source/src/linExtCalculator.cpp), without that file's AVX2
// SIMD widening; this package dispatches on arithmetic width instead via
// an explicit overflow check (spec §9 "dynamic dispatch... via a common
// algorithm trait").
package linext

import "math/big"

// Table holds the linear-extension count of a poset and, for every
// incomparable pair (i,j), the number of its extensions placing i before
// j (spec §3 "pairwise dominance table t[i][j]").
type Table struct {
	E *big.Int
	T [][]*big.Int
}

// Order describes the precedence relation the counter walks: Before(i,j)
// must report whether i must precede j (a transitive-closure edge), for
// i,j in [0,N). Order is satisfied by *bitgraph.Graph's TransitiveClosure
// result via a thin adapter in the caller to avoid an import cycle
// between linext and bitgraph's test helpers.
type Order interface {
	N() int
	Before(i, j int) bool
}

// Count computes the full dominance table for order o using arbitrary-
// precision arithmetic — the "wide path" always correct regardless of
// how large the extension count grows (spec §4.3).
func Count(o Order) Table {
	n := o.N()
	dp := downsetDP(o, n, fullMask(n))
	e := new(big.Int).Set(dp[fullMask(n)])

	t := make([][]*big.Int, n)
	for i := range t {
		t[i] = make([]*big.Int, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			switch {
			case o.Before(i, j):
				t[i][j] = new(big.Int).Set(e)
				t[j][i] = big.NewInt(0)
			case o.Before(j, i):
				t[j][i] = new(big.Int).Set(e)
				t[i][j] = big.NewInt(0)
			default:
				tij := countWithExtraEdge(o, n, i, j)
				t[i][j] = tij
				t[j][i] = new(big.Int).Sub(e, tij)
			}
		}
	}
	return Table{E: e, T: t}
}

// CountFast attempts the extension count using uint64 arithmetic with
// explicit overflow detection (spec §4.3). On overflow it returns
// overflowed=true without a usable value and does not fall back itself;
// the arbitrary-precision count is Count. The fast path here is
// uint64-width rather than the original's 32-bit, since Go's uint64 is
// the natural machine word; callers that need the full dominance table
// on overflow should call Count instead.
func CountFast(o Order) (value uint64, overflowed bool) {
	n := o.N()
	dp := make(map[uint32]uint64)
	dp[0] = 1
	full := fullMask(n)
	frontier := []uint32{0}
	visited := map[uint32]bool{0: true}
	for len(frontier) > 0 {
		s := frontier[0]
		frontier = frontier[1:]
		base := dp[s]
		for v := 0; v < n; v++ {
			bit := uint32(1) << uint(v)
			if s&bit != 0 {
				continue
			}
			if !predecessorsIncluded(o, n, v, s) {
				continue
			}
			next := s | bit
			sum := dp[next] + base
			if sum < dp[next] || sum < base {
				return 0, true
			}
			dp[next] = sum
			if !visited[next] {
				visited[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	return dp[full], false
}

// downsetDP runs the full breadth-first downset walk, returning the dp
// table keyed by bitmask, using big.Int accumulation throughout.
func downsetDP(o Order, n int, full uint32) map[uint32]*big.Int {
	dp := make(map[uint32]*big.Int)
	dp[0] = big.NewInt(1)
	visited := map[uint32]bool{0: true}
	frontier := []uint32{0}
	for len(frontier) > 0 {
		s := frontier[0]
		frontier = frontier[1:]
		base := dp[s]
		for v := 0; v < n; v++ {
			bit := uint32(1) << uint(v)
			if s&bit != 0 {
				continue
			}
			if !predecessorsIncluded(o, n, v, s) {
				continue
			}
			next := s | bit
			if dp[next] == nil {
				dp[next] = big.NewInt(0)
			}
			dp[next].Add(dp[next], base)
			if !visited[next] {
				visited[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	if dp[full] == nil {
		dp[full] = big.NewInt(0)
	}
	return dp
}

// predecessorsIncluded reports whether every predecessor of v (every u
// with o.Before(u,v)) already belongs to the downset s, i.e. whether
// s|{v} remains a valid downset.
func predecessorsIncluded(o Order, n int, v int, s uint32) bool {
	for u := 0; u < n; u++ {
		if u == v {
			continue
		}
		if o.Before(u, v) && s&(1<<uint(u)) == 0 {
			return false
		}
	}
	return true
}

// extraEdgeOrder wraps o, additionally forcing i before j — used to
// compute t[i][j] as e(P + i<j), the standard identity for counting
// extensions that place an incomparable pair in a given order.
type extraEdgeOrder struct {
	o    Order
	i, j int
}

func (e extraEdgeOrder) N() int { return e.o.N() }
func (e extraEdgeOrder) Before(a, b int) bool {
	if a == e.i && b == e.j {
		return true
	}
	return e.o.Before(a, b)
}

func countWithExtraEdge(o Order, n, i, j int) *big.Int {
	dp := downsetDP(extraEdgeOrder{o, i, j}, n, fullMask(n))
	return new(big.Int).Set(dp[fullMask(n)])
}

func fullMask(n int) uint32 {
	if n == 0 {
		return 0
	}
	return (uint32(1) << uint(n)) - 1
}

// FallingFactorial returns n·(n-1)·…·(n-k+1), the multiplier the
// singleton-reduction step applies to e(P) and every t[i][j] entry when
// K isolated vertices are reintroduced into a reduced body of size m
// (spec §4.3 "singleton reduction multiplies e(P) and t[i][j] by falling
// factorial"; original_source/src/linExtCalculator.cpp `fallingfactorial`).
func FallingFactorial(n, k int) *big.Int {
	result := big.NewInt(1)
	for i := 0; i < k; i++ {
		result.Mul(result, big.NewInt(int64(n-i)))
	}
	return result
}

// ApplySingletons scales a reduced-body extension count by the falling
// factorial accounting for K singleton vertices inserted into a total
// order of size n = bodySize+K: each singleton can occupy any of the
// remaining slots once the body's relative order is fixed, giving
// n!/(bodySize)! = FallingFactorial(n, K) total arrangements per body
// extension.
func ApplySingletons(e *big.Int, bodySize, k int) *big.Int {
	if k == 0 {
		return new(big.Int).Set(e)
	}
	ff := FallingFactorial(bodySize+k, k)
	return new(big.Int).Mul(e, ff)
}
