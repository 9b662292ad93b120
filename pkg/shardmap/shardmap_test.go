package shardmap

import (
	"testing"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
)

func chainCandidate(n int) Candidate {
	g := bitgraph.New(n)
	for i := 0; i < n-1; i++ {
		g.SetEdge(i, i+1)
	}
	c := poset.Canonicalize(g)
	return Candidate{
		Fingerprint: c.Fingerprint,
		Reduced:     c.Reduced,
		Closure:     c.ReducedClose,
		UniqueGraph: c.UniqueGraph,
		SelfDual:    c.SelfDual,
	}
}

func TestFindOrInsertDedup(t *testing.T) {
	m := New(4)
	cand := chainCandidate(5)

	rec1, inserted1 := m.FindOrInsert(cand)
	if !inserted1 {
		t.Fatalf("first insert should report inserted=true")
	}
	rec2, inserted2 := m.FindOrInsert(cand)
	if inserted2 {
		t.Fatalf("second insert of identical candidate should be a dedup hit")
	}
	if rec1 != rec2 {
		t.Fatalf("dedup did not return the same record pointer")
	}
	if m.Count() != 1 {
		t.Fatalf("Count()=%d want 1", m.Count())
	}
}

func TestFindMissing(t *testing.T) {
	m := New(2)
	cand := chainCandidate(4)
	if got := m.Find(cand); got != nil {
		t.Fatalf("Find on empty map returned non-nil")
	}
}

func TestClearResetsCount(t *testing.T) {
	m := New(1)
	m.FindOrInsert(chainCandidate(3))
	m.FindOrInsert(chainCandidate(4))
	if m.Count() == 0 {
		t.Fatalf("expected entries before Clear")
	}
	m.Clear()
	if m.Count() != 0 {
		t.Fatalf("Count()=%d after Clear, want 0", m.Count())
	}
	// reinsert after clear should work normally
	_, inserted := m.FindOrInsert(chainCandidate(3))
	if !inserted {
		t.Fatalf("insert after clear should not dedup against cleared generation")
	}
}

func TestRehashPreservesEntries(t *testing.T) {
	m := New(1)
	const want = 30
	for n := 2; n <= want+1; n++ {
		m.FindOrInsert(chainCandidate(n))
	}
	if got := m.Count(); got != want {
		t.Fatalf("Count()=%d want %d after forcing several rehashes", got, want)
	}
}
