// Package shardmap implements the sharded, lock-striped, open-addressing
// hash map that deduplicates posets across the search space (spec §4.5),
// grounded on the original engine's template hash map
// (original_source/src/myHashmap.h): triangular probing, tiered
// rehashing forced to an odd, non-multiple-of-three capacity, a
// generation counter for O(1) semantic clear, and a multi-step equality
// cascade that only falls back to full isomorphism testing when the
// canonical form could not be proven unique.
package shardmap

import (
	"sync"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/poset"
)

// Entry is what a shard stores per occupied slot: a fingerprint prefix
// for cheap rejection, the index of the owned record in the shard's
// record store, and the generation it was inserted under.
type entry struct {
	fingerprint uint64
	recordIdx   int32
	gen         uint64
	used        bool
}

func (e entry) valid(gen uint64) bool { return e.used && e.gen == gen }

// Map is the sharded hash map. Shard count is fixed at construction and
// never changes; each shard grows independently.
type Map struct {
	shards []*shard
}

// shard owns one lock, one open-addressing table, and the record storage
// backing it — records and table grow together under rehash.
type shard struct {
	mu         sync.Mutex
	table      []entry
	records    []*poset.Record
	graphs     []*bitgraph.Graph // reduced graph per record, parallel to records
	closures   []*bitgraph.Graph
	numEntries int
	loadFactor float64
	gen        uint64
}

// New returns a Map with shardCount shards, each starting at the
// original engine's default initial capacity (973).
func New(shardCount int) *Map {
	if shardCount < 1 {
		shardCount = 1
	}
	m := &Map{shards: make([]*shard, shardCount)}
	for i := range m.shards {
		m.shards[i] = newShard(973)
	}
	return m
}

func newShard(initialCapacity int) *shard {
	s := &shard{
		table:      make([]entry, initialCapacity),
		loadFactor: computeLoadFactor(initialCapacity),
	}
	return s
}

// ShardFor returns the shard index owning a given fingerprint.
func (m *Map) ShardFor(fingerprint uint64) int {
	return int(fingerprint % uint64(len(m.shards)))
}

// Candidate is what a caller presents to FindOrInsert: the canonical
// reduced graph, its closure, and the canonicalizer's verdict on
// whether the fingerprint can be trusted bit-for-bit.
type Candidate struct {
	Fingerprint uint64
	Reduced     *bitgraph.Graph
	Closure     *bitgraph.Graph
	UniqueGraph bool
	SelfDual    bool
	Info        poset.Info
}

// FindOrInsert looks up candidate by the equality cascade of spec §4.5
// step 6; if absent, inserts a fresh *poset.Record and returns it along
// with inserted=true. The returned record is owned by the shard and must
// only have its Status/flags mutated under the shard's internal lock,
// which the caller does not hold after this call returns — higher layers
// (forward/backward search) serialize status transitions per record via
// a single-writer discipline (spec §5).
func (m *Map) FindOrInsert(c Candidate) (rec *poset.Record, inserted bool) {
	s := m.shards[m.ShardFor(c.Fingerprint)]
	s.mu.Lock()
	defer s.mu.Unlock()

	if found := s.find(c); found != nil {
		return found, false
	}
	if float64(s.numEntries) >= s.loadFactor*float64(len(s.table)) {
		s.rehash()
	}
	return s.insert(c), true
}

// Find looks up candidate without inserting, returning nil if absent.
func (m *Map) Find(c Candidate) *poset.Record {
	s := m.shards[m.ShardFor(c.Fingerprint)]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(c)
}

// Clear resets every shard to empty in O(1) amortized time via the
// generation-counter trick (spec §4.5 "clear() bumps generation").
func (m *Map) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.clear()
		s.mu.Unlock()
	}
}

// Count returns the total number of live entries across all shards.
func (m *Map) Count() int {
	total := 0
	for _, s := range m.shards {
		s.mu.Lock()
		total += s.numEntries
		s.mu.Unlock()
	}
	return total
}

// ForEach visits every live record in the map along with its reduced
// graph and closure. fn must not mutate the map; it is called with each
// shard's lock released, so concurrent inserts are possible mid-walk and
// newly inserted records may or may not be observed.
func (m *Map) ForEach(fn func(rec *poset.Record, reduced, closure *bitgraph.Graph)) {
	for _, s := range m.shards {
		s.mu.Lock()
		records := make([]*poset.Record, len(s.records))
		copy(records, s.records)
		graphs := make([]*bitgraph.Graph, len(s.graphs))
		copy(graphs, s.graphs)
		closures := make([]*bitgraph.Graph, len(s.closures))
		copy(closures, s.closures)
		s.mu.Unlock()

		for i, rec := range records {
			fn(rec, graphs[i], closures[i])
		}
	}
}

// CountByStatus returns the number of live entries in each status.
func (m *Map) CountByStatus() (yes, no, unfinished int) {
	for _, s := range m.shards {
		s.mu.Lock()
		for i, e := range s.table {
			if !e.valid(s.gen) {
				continue
			}
			_ = i
			switch s.records[e.recordIdx].Status() {
			case poset.StatusYes:
				yes++
			case poset.StatusNo:
				no++
			default:
				unfinished++
			}
		}
		s.mu.Unlock()
	}
	return
}

func (s *shard) clear() {
	s.gen++
	if s.gen == 0 {
		for i := range s.table {
			s.table[i] = entry{}
		}
	}
	s.numEntries = 0
	s.records = s.records[:0]
	s.graphs = s.graphs[:0]
	s.closures = s.closures[:0]
}

func (s *shard) find(c Candidate) *poset.Record {
	capacity := len(s.table)
	if capacity == 0 {
		return nil
	}
	index := int(c.Fingerprint % uint64(capacity))
	i := 0
	for s.table[index].valid(s.gen) {
		e := s.table[index]
		if e.fingerprint == c.Fingerprint && s.testEquality(c, int(e.recordIdx)) {
			return s.records[e.recordIdx]
		}
		i++
		if i >= capacity {
			return nil
		}
		index += i
		if index >= capacity {
			index -= capacity
		}
	}
	return nil
}

// insert assumes the caller already verified the candidate is absent and
// that there is room (post-rehash) for a fresh slot.
func (s *shard) insert(c Candidate) *poset.Record {
	capacity := len(s.table)
	index := int(c.Fingerprint % uint64(capacity))
	i := 0
	for s.table[index].valid(s.gen) {
		i++
		if i >= capacity {
			s.rehash()
			return s.insert(c)
		}
		index += i
		if index >= capacity {
			index -= capacity
		}
	}

	rec := &poset.Record{}
	rec.SetHash64(c.Fingerprint)
	rec.SetUniqueGraph(c.UniqueGraph)
	rec.SetSelfDual(c.SelfDual)
	n := c.Reduced.N()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			rec.SetGraphBit(n, i, j, c.Reduced.HasEdge(i, j))
		}
	}

	recIdx := int32(len(s.records))
	s.records = append(s.records, rec)
	s.graphs = append(s.graphs, c.Reduced)
	s.closures = append(s.closures, c.Closure)

	s.table[index] = entry{fingerprint: c.Fingerprint, recordIdx: recIdx, gen: s.gen, used: true}
	s.numEntries++
	return rec
}

// rehash grows the shard per the original engine's tiered schedule (spec
// §4.5), forcing the new capacity odd and not a multiple of three so the
// triangular probe sequence visits every slot before repeating.
func (s *shard) rehash() {
	capacity := len(s.table)
	switch {
	case capacity < (1 << 5):
		capacity *= 5
	case capacity < (3 << 9):
		capacity *= 2
	case capacity < (3 << 12):
		capacity = int(float64(capacity) * 1.7)
	case capacity < (3 << 15):
		capacity = int(float64(capacity) * 1.5)
	default:
		capacity = int(float64(capacity) * 1.3)
	}
	if capacity%2 == 0 {
		capacity++
	}
	if capacity%3 == 0 {
		capacity += 2
	}

	s.loadFactor = computeLoadFactor(capacity)
	newTable := make([]entry, capacity)
	for _, e := range s.table {
		if !e.valid(s.gen) {
			continue
		}
		index := int(e.fingerprint % uint64(capacity))
		i := 0
		for newTable[index].valid(s.gen) {
			i++
			index += i
			if index >= capacity {
				index -= capacity
			}
		}
		newTable[index] = e
	}
	s.table = newTable
}

// testEquality runs the cascade of spec §4.5 step 6 against the record
// stored at recordIdx.
func (s *shard) testEquality(c Candidate, recordIdx int) bool {
	rec := s.records[recordIdx]
	reduced := s.graphs[recordIdx]

	if c.UniqueGraph != rec.UniqueGraph() || c.SelfDual != rec.SelfDual() {
		return false
	}

	if graphBitsEqual(c.Reduced, reduced) {
		return true
	}

	if c.UniqueGraph && !c.SelfDual {
		return false
	}

	if poset.Isomorphic(c.Reduced, reduced) {
		return true
	}
	if c.SelfDual {
		return poset.Isomorphic(c.Reduced.Reverse(), reduced)
	}
	return false
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

func computeLoadFactor(capacity int) float64 {
	switch {
	case capacity < (1 << 8):
		return 0.45
	case capacity < (1 << 12):
		return 0.52
	case capacity < (1 << 16):
		return 0.6
	case capacity < (3 << 17):
		return 0.68
	default:
		return 0.75
	}
}
