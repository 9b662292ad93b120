// Package config holds the compile-time-ish constants of the sorting-bound
// engine: the maximum element count, the information-theoretic and
// Ford-Johnson comparison tables, and the derived per-run limits.
//
// Unlike the C++ original (config.h), N is not a compile-time constant here
// — MaxN bounds the bit width the engine's packed types can address, and
// individual runs carry their own N ≤ MaxN.
package config

import "fmt"

const (
	// MaxN is the largest element count the engine supports. PosetRecord's
	// graphBits and bitgraph.Graph's rows are sized for this bound; an N
	// fitting in fewer bits still uses the full uint32 row width.
	MaxN = 32

	// MaxThreads bounds the configurable worker count (spec §5).
	MaxThreads = 64
)

// itLowerBound is the information-theoretic lower bound ⌈log2(N!)⌉ for
// N = 0..47, i.e. NCT::cTableITLB from the original engine.
var itLowerBound = [...]uint32{
	0, 0, 1, 3, 5, 7, 10, 13, 16, 19,
	22, 26, 29, 33, 37, 41, 45, 49, 53, 57,
	62, 66, 70, 75, 80, 84, 89, 94, 98, 103,
	108, 113, 118, 123, 128, 133, 139, 144, 149, 154,
	160, 165, 170, 176, 181, 187, 192, 198,
}

// fordJohnsonBound is the number of comparisons used by the Ford-Johnson
// merge-insertion algorithm for N = 0..47, i.e. NCT::cTableFJA.
var fordJohnsonBound = [...]uint32{
	0, 0, 1, 3, 5, 7, 10, 13, 16, 19,
	22, 26, 30, 34, 38, 42, 46, 50, 54, 58,
	62, 66, 71, 76, 81, 86, 91, 96, 101, 106,
	111, 116, 121, 126, 131, 136, 141, 146, 151, 156,
	161, 166, 171, 177, 183, 189, 195, 201,
}

// InfoTheoreticLowerBound returns ⌈log2(N!)⌉, the minimum number of
// comparisons any sorting algorithm could possibly need for N elements.
// The CLI defaults C to this value when the user does not supply one.
func InfoTheoreticLowerBound(n int) (uint32, error) {
	if n < 0 || n >= len(itLowerBound) {
		return 0, fmt.Errorf("config: N=%d out of range [0,%d]", n, len(itLowerBound)-1)
	}
	return itLowerBound[n], nil
}

// FordJohnsonBound returns the comparison count used by the Ford-Johnson
// (merge-insertion) sorting algorithm for N elements — a known-achievable
// upper bound, handy as a default sweep ceiling for CLI tooling.
func FordJohnsonBound(n int) (uint32, error) {
	if n < 0 || n >= len(fordJohnsonBound) {
		return 0, fmt.Errorf("config: N=%d out of range [0,%d]", n, len(fordJohnsonBound)-1)
	}
	return fordJohnsonBound[n], nil
}

// ValidateNC checks N and C against the engine's compile-time bounds.
// Returns a descriptive error if either is out of range.
func ValidateNC(n, c int) error {
	if n < 2 || n > MaxN {
		return fmt.Errorf("config: N=%d must be in [2,%d]", n, MaxN)
	}
	maxC, err := FordJohnsonBound(n)
	if err != nil {
		return err
	}
	if c < 0 || uint32(c) > maxC {
		return fmt.Errorf("config: C=%d must be in [0,%d] for N=%d", c, maxC, n)
	}
	return nil
}
