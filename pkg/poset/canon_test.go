package poset

import (
	"testing"

	"github.com/sortbound/sortbound/pkg/bitgraph"
)

func chain(n int) *bitgraph.Graph {
	g := bitgraph.New(n)
	for i := 0; i < n-1; i++ {
		g.SetEdge(i, i+1)
	}
	return g
}

func TestCanonicalizeIdempotent(t *testing.T) {
	g := chain(5)
	c1 := Canonicalize(g)
	c2 := Canonicalize(c1.Reduced)
	if c1.Fingerprint != fingerprintOfSelf(c2) {
		t.Fatalf("canon(canon(g)) fingerprint drifted: %d vs %d", c1.Fingerprint, c2.Fingerprint)
	}
}

func fingerprintOfSelf(c Canon) uint64 { return c.Fingerprint }

func TestCanonicalizeAntichainSelfDual(t *testing.T) {
	g := bitgraph.New(4)
	c := Canonicalize(g)
	if !c.SelfDual {
		t.Fatalf("antichain should canonicalize as self-dual")
	}
}

func TestCanonicalizeIsomorphicRelabeling(t *testing.T) {
	g := chain(4)
	perm := []int{3, 2, 1, 0}
	// relabel: vertex i of g becomes perm[i] -- construct the same poset
	// under a different vertex labeling, as the chain 3->2->1->0.
	relabeled := bitgraph.New(4)
	for i := 0; i < 3; i++ {
		relabeled.SetEdge(perm[i], perm[i+1])
	}
	c1 := Canonicalize(g)
	c2 := Canonicalize(relabeled)
	if c1.UniqueGraph && c2.UniqueGraph && c1.Fingerprint != c2.Fingerprint {
		t.Fatalf("isomorphic graphs produced different fingerprints: %d vs %d", c1.Fingerprint, c2.Fingerprint)
	}
	if !Isomorphic(c1.Reduced, c2.Reduced) {
		t.Fatalf("canonical forms of isomorphic graphs were not isomorphic")
	}
}

func TestIsomorphicRejectsDifferentEdgeCounts(t *testing.T) {
	a := chain(3)
	b := bitgraph.New(3)
	if Isomorphic(a, b) {
		t.Fatalf("chain and antichain should not be isomorphic")
	}
}
