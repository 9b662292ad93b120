package linext

import (
	"math/big"
	"testing"
)

// chainOrder is a total order 0<1<...<n-1.
type chainOrder struct{ n int }

func (c chainOrder) N() int { return c.n }
func (c chainOrder) Before(i, j int) bool { return i < j }

// antichainOrder has no relations at all.
type antichainOrder struct{ n int }

func (a antichainOrder) N() int               { return a.n }
func (a antichainOrder) Before(i, j int) bool { return false }

func TestCountChainHasOneExtension(t *testing.T) {
	tbl := Count(chainOrder{5})
	if tbl.E.Int64() != 1 {
		t.Fatalf("chain e(P)=%s want 1", tbl.E.String())
	}
}

func TestCountAntichainFactorial(t *testing.T) {
	tbl := Count(antichainOrder{4})
	if tbl.E.Int64() != 24 {
		t.Fatalf("antichain(4) e(P)=%s want 24", tbl.E.String())
	}
}

func TestDominanceTableSymmetry(t *testing.T) {
	o := antichainOrder{3}
	tbl := Count(o)
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			sum := new(big.Int).Add(tbl.T[i][j], tbl.T[j][i])
			if sum.Cmp(tbl.E) != 0 {
				t.Fatalf("t[%d][%d]+t[%d][%d] = %s, want %s", i, j, j, i, sum.String(), tbl.E.String())
			}
		}
	}
}

func TestCountFastMatchesWideOnSmallCase(t *testing.T) {
	o := antichainOrder{5}
	fast, overflowed := CountFast(o)
	if overflowed {
		t.Fatalf("unexpected overflow for antichain(5)")
	}
	wide := Count(o)
	if int64(fast) != wide.E.Int64() {
		t.Fatalf("CountFast=%d, Count=%s", fast, wide.E.String())
	}
}

func TestFallingFactorial(t *testing.T) {
	if got := FallingFactorial(5, 2).Int64(); got != 20 {
		t.Fatalf("FallingFactorial(5,2)=%d want 20", got)
	}
	if got := FallingFactorial(5, 0).Int64(); got != 1 {
		t.Fatalf("FallingFactorial(5,0)=%d want 1", got)
	}
}

func TestApplySingletons(t *testing.T) {
	e := Count(chainOrder{3}).E
	scaled := ApplySingletons(e, 3, 2)
	// inserting 2 singletons into a body of 3 totally-ordered elements:
	// FallingFactorial(5,2) = 20 arrangements per body extension.
	if scaled.Int64() != 20 {
		t.Fatalf("ApplySingletons=%s want 20", scaled.String())
	}
}
