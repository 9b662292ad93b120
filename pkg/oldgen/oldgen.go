// Package oldgen implements the fixed-size, mmap-backed cache of
// resolved posets evicted from the active shard map (spec §4.6): a
// direct-mapped array keyed by hash, one slot per bucket, overwritten on
// collision only when the incoming record is YES (status takes priority
// over whatever is currently cached).
//
// The original engine backs this with a hand-rolled mmap array
// (spec §9 allows substituting "an on-disk file with explicit page-in/
// page-out... provided the access patterns... are preserved"); this
// package substitutes github.com/akrylysov/pogreb, an embedded,
// page-managed, mmap-backed KV store discovered vendored inside the
// operator-lifecycle-manager pack entry's registry cache
// (vendor/.../pogrebv1.go) — a real ecosystem dependency rather than a
// hand-rolled allocator, with the single-slot-per-key access pattern
// spec §9 requires preserved via the slot-index keying scheme below.
package oldgen

import (
	"encoding/binary"
	"sync"

	"github.com/akrylysov/pogreb"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
)

// multiplier is M1 from spec §4.6's key derivation hash64*M1 mod size.
const multiplier = 0x9E3779B97F4A7C15

// Map is the old-gen cache. Slot i holds at most one record; a new
// record overwrites slot i only if the slot is empty or the new record's
// status is YES (spec §4.6 "insert overwrites if empty or new record is
// YES").
type Map struct {
	db   *pogreb.DB
	size uint64
	mu   sync.Mutex
}

// Open creates or reopens an old-gen cache at path with `size` direct-
// mapped slots.
func Open(path string, size uint64) (*Map, error) {
	db, err := pogreb.Open(path, nil)
	if err != nil {
		return nil, err
	}
	return &Map{db: db, size: size}, nil
}

// Close releases the underlying mmap-backed store.
func (m *Map) Close() error { return m.db.Close() }

func (m *Map) slot(hash uint64) uint64 {
	return (hash * multiplier) % m.size
}

func slotKey(slot uint64) []byte {
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, slot)
	return key
}

// entry is the serialized form stored in one slot: a 16-bit hash prefix
// for cheap rejection, the record's flags/status, and its packed graph
// bits for the equality cascade.
type entry struct {
	hash16  uint16
	flags   uint8
	n       uint8
	reduced *bitgraph.Graph
}

func encodeEntry(e entry) []byte {
	n := int(e.n)
	buf := make([]byte, 4+4*n)
	binary.LittleEndian.PutUint16(buf[0:2], e.hash16)
	buf[2] = e.flags
	buf[3] = e.n
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[4+4*i:8+4*i], e.reduced.Row(i))
	}
	return buf
}

func decodeEntry(buf []byte) (entry, bool) {
	if len(buf) < 4 {
		return entry{}, false
	}
	n := int(buf[3])
	if len(buf) < 4+4*n {
		return entry{}, false
	}
	g := bitgraph.New(n)
	for i := 0; i < n; i++ {
		g.SetRow(i, binary.LittleEndian.Uint32(buf[4+4*i:8+4*i]))
	}
	return entry{
		hash16:  binary.LittleEndian.Uint16(buf[0:2]),
		flags:   buf[2],
		n:       buf[3],
		reduced: g,
	}, true
}

// Candidate mirrors shardmap.Candidate's fields needed for the equality
// cascade, kept independent to avoid an oldgen<->shardmap import cycle.
type Candidate struct {
	Hash64      uint64
	Reduced     *bitgraph.Graph
	UniqueGraph bool
	SelfDual    bool
	Status      poset.Status
}

// Lookup probes the single slot owned by candidate's hash and runs the
// equality cascade (spec §4.6 "probes single slot then runs same
// equality cascade"). Returns ok=false on a miss.
func (m *Map) Lookup(c Candidate) (status poset.Status, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, err := m.db.Get(slotKey(m.slot(c.Hash64)))
	if err != nil || buf == nil {
		return poset.StatusUnfinished, false
	}
	e, valid := decodeEntry(buf)
	if !valid {
		return poset.StatusUnfinished, false
	}
	if e.hash16 != uint16(c.Hash64) {
		return poset.StatusUnfinished, false
	}
	storedUnique := e.flags&1 != 0
	storedSelfDual := e.flags&2 != 0
	if storedUnique != c.UniqueGraph || storedSelfDual != c.SelfDual {
		return poset.StatusUnfinished, false
	}
	if !graphBitsEqual(c.Reduced, e.reduced) {
		if c.UniqueGraph && !c.SelfDual {
			return poset.StatusUnfinished, false
		}
		if !poset.Isomorphic(c.Reduced, e.reduced) {
			if !c.SelfDual || !poset.Isomorphic(c.Reduced.Reverse(), e.reduced) {
				return poset.StatusUnfinished, false
			}
		}
	}
	return poset.Status((e.flags >> 2) & 0x3), true
}

// Put stores candidate into its slot, overwriting the existing occupant
// only if the slot is empty or the incoming record is YES (spec §4.6).
func (m *Map) Put(c Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slotKey(m.slot(c.Hash64))
	if existing, err := m.db.Get(key); err == nil && existing != nil {
		if _, valid := decodeEntry(existing); valid && c.Status != poset.StatusYes {
			return nil
		}
	}

	flags := uint8(0)
	if c.UniqueGraph {
		flags |= 1
	}
	if c.SelfDual {
		flags |= 2
	}
	flags |= uint8(c.Status) << 2

	e := entry{
		hash16:  uint16(c.Hash64),
		flags:   flags,
		n:       uint8(c.Reduced.N()),
		reduced: c.Reduced,
	}
	return m.db.Put(key, encodeEntry(e))
}

func graphBitsEqual(a, b *bitgraph.Graph) bool {
	n := a.N()
	if n != b.N() {
		return false
	}
	for i := 0; i < n; i++ {
		if a.Row(i) != b.Row(i) {
			return false
		}
	}
	return true
}
