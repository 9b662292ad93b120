package spillvec

import (
	"path/filepath"
	"testing"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
)

func newTestVector(t *testing.T, window uint64) *Vector {
	v, err := Open(filepath.Join(t.TempDir(), "spill.db"), window)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { v.Close() })
	return v
}

func TestInsertAndAt(t *testing.T) {
	v := newTestVector(t, 4)
	for i := 0; i < 3; i++ {
		rec := &poset.Record{}
		rec.SetHash64(uint64(i))
		if err := v.Insert(rec, bitgraph.New(2)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	rec, _, err := v.At(1)
	if err != nil {
		t.Fatalf("At(1): %v", err)
	}
	if rec.Hash64() != 1 {
		t.Fatalf("At(1).Hash64()=%d want 1", rec.Hash64())
	}
}

func TestEnsureOnlineAvailableSpillsAndRestores(t *testing.T) {
	v := newTestVector(t, 3)
	for i := 0; i < 2; i++ {
		rec := &poset.Record{}
		rec.SetHash64(uint64(i))
		if err := v.Insert(rec, bitgraph.New(2)); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}
	if err := v.EnsureOnlineAvailable(2); err != nil {
		t.Fatalf("EnsureOnlineAvailable: %v", err)
	}
	if v.Offline() != 1 {
		t.Fatalf("Offline()=%d want 1 after spilling one record", v.Offline())
	}
	rec := &poset.Record{}
	rec.SetHash64(99)
	if err := v.Insert(rec, bitgraph.New(2)); err != nil {
		t.Fatalf("Insert after spill: %v", err)
	}

	if err := v.EnsureOnlineFrom(0); err != nil {
		t.Fatalf("EnsureOnlineFrom: %v", err)
	}
	if v.Offline() != 0 {
		t.Fatalf("Offline()=%d want 0 after restoring", v.Offline())
	}
	first, _, err := v.At(0)
	if err != nil {
		t.Fatalf("At(0): %v", err)
	}
	if first.Hash64() != 0 {
		t.Fatalf("restored record hash=%d want 0", first.Hash64())
	}
}

func TestResizeShrinkBelowOffline(t *testing.T) {
	v := newTestVector(t, 2)
	for i := 0; i < 2; i++ {
		rec := &poset.Record{}
		rec.SetHash64(uint64(i))
		v.Insert(rec, bitgraph.New(2))
	}
	v.EnsureOnlineAvailable(1)
	if err := v.Resize(0); err != nil {
		t.Fatalf("Resize(0): %v", err)
	}
	if v.Len() != 0 || v.Offline() != 0 {
		t.Fatalf("after Resize(0): Len=%d Offline=%d, want 0,0", v.Len(), v.Offline())
	}
}
