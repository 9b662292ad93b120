// Package spillvec implements the append-only poset vector with an
// in-RAM window and an mmap-backed tail (spec §4.7): the window holds the
// most recently appended W records; anything older is paged out to the
// tail store and paged back in on demand.
//
// As with pkg/oldgen, the mmap tail is backed by
// github.com/akrylysov/pogreb rather than a hand-rolled segment manager,
// per spec §9's explicit allowance — keyed here by global vector index
// so ensureOnlineAvailable/ensureOnlineFrom's page-in/page-out pattern
// maps directly onto Get/Put/Delete.
package spillvec

import (
	"encoding/binary"
	"fmt"

	"github.com/akrylysov/pogreb"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
)

// Vector is the spill vector. Not safe for concurrent use without an
// external lock — the bidirectional driver serializes access to it
// during migration, per spec §5 "spill vector lock-free-insert/
// lock-guarded-migration".
type Vector struct {
	tail        *pogreb.DB
	window      []*poset.Record
	graphs      []*bitgraph.Graph
	sizeOffline uint64 // global index of window[0]
	sizeTotal   uint64 // number of records ever appended
	w           uint64 // window capacity
}

// Open creates or reopens the mmap tail store at path and returns an
// empty vector with the given in-RAM window capacity.
func Open(path string, windowCapacity uint64) (*Vector, error) {
	db, err := pogreb.Open(path, nil)
	if err != nil {
		return nil, err
	}
	return &Vector{tail: db, w: windowCapacity}, nil
}

// Close releases the mmap tail store.
func (v *Vector) Close() error { return v.tail.Close() }

// Len returns the total number of records ever appended.
func (v *Vector) Len() uint64 { return v.sizeTotal }

// Offline returns the first index not evicted to the tail — the start
// of the valid in-RAM window.
func (v *Vector) Offline() uint64 { return v.sizeOffline }

// Insert appends rec/g, requiring the window not be full relative to the
// current offline boundary (spec §4.7: "requiring (sizeTotal-sizeOffline)
// < W"). Callers must call EnsureOnlineAvailable first if the window may
// be full.
func (v *Vector) Insert(rec *poset.Record, g *bitgraph.Graph) error {
	if v.sizeTotal-v.sizeOffline >= v.w {
		return fmt.Errorf("spillvec: window full, call EnsureOnlineAvailable first")
	}
	v.window = append(v.window, rec)
	v.graphs = append(v.graphs, g)
	v.sizeTotal++
	return nil
}

// At returns the record at global index i, which must lie in
// [sizeOffline, sizeOffline+W) — the resident window (spec §4.7
// "operator[i] valid only in [sizeOffline,sizeOffline+W)").
func (v *Vector) At(i uint64) (*poset.Record, *bitgraph.Graph, error) {
	if i < v.sizeOffline || i >= v.sizeOffline+uint64(len(v.window)) {
		return nil, nil, fmt.Errorf("spillvec: index %d outside resident window [%d,%d)", i, v.sizeOffline, v.sizeOffline+uint64(len(v.window)))
	}
	pos := i - v.sizeOffline
	return v.window[pos], v.graphs[pos], nil
}

// EnsureOnlineAvailable spills the ring head to the mmap tail until at
// least k additional online slots are free (spec §4.7).
func (v *Vector) EnsureOnlineAvailable(k uint64) error {
	for v.w-(v.sizeTotal-v.sizeOffline) < k {
		if len(v.window) == 0 {
			return fmt.Errorf("spillvec: window empty, cannot free %d slots", k)
		}
		if err := v.spillOne(); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vector) spillOne() error {
	rec := v.window[0]
	g := v.graphs[0]
	buf := encodeRecord(rec, g)
	if err := v.tail.Put(indexKey(v.sizeOffline), buf); err != nil {
		return err
	}
	v.window = v.window[1:]
	v.graphs = v.graphs[1:]
	v.sizeOffline++
	return nil
}

// EnsureOnlineFrom re-pages [b, sizeOffline) back into the ring,
// requiring sizeTotal-b <= W (spec §4.7).
func (v *Vector) EnsureOnlineFrom(b uint64) error {
	if v.sizeTotal-b > v.w {
		return fmt.Errorf("spillvec: range [%d,%d) exceeds window capacity %d", b, v.sizeTotal, v.w)
	}
	var prependRecs []*poset.Record
	var prependGraphs []*bitgraph.Graph
	for i := b; i < v.sizeOffline; i++ {
		buf, err := v.tail.Get(indexKey(i))
		if err != nil || buf == nil {
			return fmt.Errorf("spillvec: missing tail entry at index %d", i)
		}
		rec, g, err := decodeRecord(buf)
		if err != nil {
			return err
		}
		prependRecs = append(prependRecs, rec)
		prependGraphs = append(prependGraphs, g)
		_ = v.tail.Delete(indexKey(i))
	}
	v.window = append(prependRecs, v.window...)
	v.graphs = append(prependGraphs, v.graphs...)
	v.sizeOffline = b
	return nil
}

// Resize truncates the vector to n total records. If n falls below
// sizeOffline, the entire tail store is dropped along with it (spec
// §4.7 "resize(n) may shrink below sizeOffline dropping tail").
func (v *Vector) Resize(n uint64) error {
	if n >= v.sizeOffline {
		keep := n - v.sizeOffline
		if keep > uint64(len(v.window)) {
			keep = uint64(len(v.window))
		}
		v.window = v.window[:keep]
		v.graphs = v.graphs[:keep]
		v.sizeTotal = n
		return nil
	}
	// n < sizeOffline: drop everything, including tail entries below n.
	it := v.tail.Items()
	for {
		key, _, err := it.Next()
		if err != nil {
			break
		}
		idx := binary.LittleEndian.Uint64(key)
		if idx >= n {
			_ = v.tail.Delete(key)
		}
	}
	v.window = v.window[:0]
	v.graphs = v.graphs[:0]
	v.sizeOffline = n
	v.sizeTotal = n
	return nil
}

func indexKey(i uint64) []byte {
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, i)
	return key
}

func encodeRecord(rec *poset.Record, g *bitgraph.Graph) []byte {
	n := g.N()
	buf := make([]byte, 9+4*n)
	h := rec.Hash64()
	binary.LittleEndian.PutUint64(buf[0:8], h)
	buf[8] = uint8(n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[9+4*i:13+4*i], g.Row(i))
	}
	return buf
}

func decodeRecord(buf []byte) (*poset.Record, *bitgraph.Graph, error) {
	if len(buf) < 9 {
		return nil, nil, fmt.Errorf("spillvec: corrupt tail entry")
	}
	h := binary.LittleEndian.Uint64(buf[0:8])
	n := int(buf[8])
	if len(buf) < 9+4*n {
		return nil, nil, fmt.Errorf("spillvec: corrupt tail entry body")
	}
	g := bitgraph.New(n)
	for i := 0; i < n; i++ {
		g.SetRow(i, binary.LittleEndian.Uint32(buf[9+4*i:13+4*i]))
	}
	rec := &poset.Record{}
	rec.SetHash64(h)
	return rec, g, nil
}
