package search

import (
	"context"
	"fmt"
	"math/big"

	"github.com/sortbound/sortbound/pkg/bitgraph"
	"github.com/sortbound/sortbound/pkg/oldgen"
	"github.com/sortbound/sortbound/pkg/poset"
	"github.com/sortbound/sortbound/pkg/profiler"
	"github.com/sortbound/sortbound/pkg/shardmap"
	"github.com/sortbound/sortbound/pkg/spillvec"
	"github.com/sortbound/sortbound/pkg/stats"
)

var bigOne = big.NewInt(1)

// Mode selects which half of the bidirectional search the driver runs
// (spec §6 "Selectable mode: forward-only, backward-only, or
// bidirectional").
type Mode int

const (
	ModeBidirectional Mode = iota
	ModeForwardOnly
	ModeBackwardOnly
)

// Verdict is the driver's final answer (spec §4.10).
type Verdict string

const (
	VerdictSortable     Verdict = "SORTABLE"
	VerdictNotSortable  Verdict = "NOT SORTABLE"
	VerdictInconclusive Verdict = "inconclusive"
)

// Bandwidth configures the backward search's completeness schedule
// (spec §4.9 "Completeness threshold").
type Bandwidth struct {
	Low, High   uint64
	FullLayers  int
	SwitchLevel int
}

// Driver orchestrates backward levels C..0 and forward steps 0..C,
// combining them per spec §4.10.
type Driver struct {
	N, C       int
	Mode       Mode
	Bandwidth  Bandwidth
	Workers    int
	Stats      *stats.Global
	Profiler   profiler.Profiler
	ChildLimit int
	EdgeLimit  int

	// OldGen, if non-nil, is the generational cache consulted and
	// populated as posets resolve (spec §4.6). Spill, if non-nil, is
	// seeded with the level-0 antichain at the start of forward search
	// (spec §4.10 step 4). Both are nil-safe: the driver functions
	// correctly, just without their benefit, when the caller leaves them
	// unset (e.g. in-process tests that never open the mmap files).
	OldGen *oldgen.Map
	Spill  *spillvec.Vector

	backwardLevels []*Layer
	backwardMaps   []*shardmap.Map
	forwardLevels  []*Layer
	forwardMaps    []*shardmap.Map

	completeAbove []uint64
	progress      float64
}

// NewDriver returns a driver ready to Run, with a no-op profiler unless
// the caller overrides it.
func NewDriver(n, c int, mode Mode, bw Bandwidth, workers int, g *stats.Global) *Driver {
	return &Driver{
		N: n, C: c, Mode: mode, Bandwidth: bw, Workers: workers,
		Stats: g, Profiler: profiler.Noop(),
		ChildLimit: 1 << 20, EdgeLimit: 1 << 20,
	}
}

// Progress returns the driver's completion estimate in [0,1] (spec §5
// "progress scalar... observable but not preemptible").
func (d *Driver) Progress() float64 { return d.progress }

// Run executes step 1-5 of spec §4.10 end to end and returns the final
// verdict.
func (d *Driver) Run(ctx context.Context) (Verdict, error) {
	d.completeAbove = CompleteAboveSchedule(d.C, d.Bandwidth.FullLayers, d.Bandwidth.SwitchLevel, d.Bandwidth.Low, d.Bandwidth.High)

	if d.Mode != ModeForwardOnly {
		if err := d.runBackward(ctx); err != nil {
			return "", err
		}
		if d.Mode == ModeBackwardOnly {
			return d.verdictFromLevel0(), nil
		}
	}

	if err := d.runForward(ctx); err != nil {
		return "", err
	}
	return d.verdictFromLevel0(), nil
}

// runBackward runs step 2: backward from level C down to 0, each level
// partitioned across workers and inserting into a fresh shared map (spec
// §4.9 "Parallelism"). Level C is seeded with the fully-sorted total
// order -- the one poset needing zero further comparisons -- since the
// antichain itself has no reduction edges to peel and would otherwise
// leave every lower level empty (spec §4.9).
func (d *Driver) runBackward(ctx context.Context) error {
	d.Profiler.Start(profiler.SectionBackwardWork)
	defer d.Profiler.Stop(profiler.SectionBackwardWork)

	top := NewLayer(d.N, d.C, d.C)
	chain := totalOrderGraph(d.N)
	canon := poset.Canonicalize(chain)
	rec := &poset.Record{}
	rec.SetStatus(poset.StatusYes)
	top.Add(rec, canon.Reduced, canon.ReducedClose, poset.Info{N: d.N})

	d.backwardLevels = make([]*Layer, d.C+1)
	d.backwardMaps = make([]*shardmap.Map, d.C+1)
	d.backwardLevels[d.C] = top
	topMap := shardmap.New(d.Workers + 1)
	topRec, _ := topMap.FindOrInsert(candidateFromCanon(canon))
	topRec.SetStatus(poset.StatusYes)
	d.backwardMaps[d.C] = topMap

	for c := d.C - 1; c >= 0; c-- {
		child := d.backwardLevels[c+1]
		childMap := d.backwardMaps[c+1]
		parent := NewLayer(d.N, d.C, c)
		parentMap := shardmap.New(d.Workers + 1)

		if err := RunBackwardLevel(ctx, child, childMap, parentMap, d.Workers); err != nil {
			return fmt.Errorf("backward level %d: %w", c, err)
		}

		// Sortable-in-k implies sortable-in-k+1: carry every YES
		// survivor from the child level forward unchanged, so a branch
		// that exhausts its reduction edges (the antichain has none)
		// before reaching level 0 persists instead of vanishing.
		for i := 0; i < child.Len(); i++ {
			if child.Record(i).Status() != poset.StatusYes {
				continue
			}
			carried := candidateFromGraph(child.Reduced(i))
			carriedRec, _ := parentMap.FindOrInsert(carried)
			carriedRec.SetStatus(poset.StatusYes)
		}

		parentMap.ForEach(func(rec *poset.Record, reduced, closure *bitgraph.Graph) {
			parent.Add(rec, reduced, closure, poset.Info{N: reduced.N()})
		})
		d.backwardLevels[c] = parent
		d.backwardMaps[c] = parentMap
		d.progress = float64(d.C-c) / float64(2*d.C+1)
	}
	return nil
}

// runForward runs step 3-4: seed the spill vector with the level-0
// antichain and repeatedly run forward steps, each retried within its own
// level until a pass makes no further progress (spec §6 "--child-limit/
// --edge-limit" partial-advance), until level 0 resolves.
func (d *Driver) runForward(ctx context.Context) error {
	d.Profiler.Start(profiler.SectionForwardPhase1)
	defer d.Profiler.Stop(profiler.SectionForwardPhase1)

	d.forwardLevels = make([]*Layer, d.C+1)
	d.forwardMaps = make([]*shardmap.Map, d.C+1)

	level0 := NewLayer(d.N, d.C, 0)
	antichain := bitgraph.New(d.N)
	closure := antichain.TransitiveClosure()
	canon := poset.Canonicalize(antichain)
	rec := &poset.Record{}
	rec.SetStatus(poset.StatusUnfinished)
	level0.Add(rec, canon.Reduced, closure, poset.Info{N: d.N})
	d.forwardLevels[0] = level0
	d.forwardMaps[0] = shardmap.New(d.Workers + 1)
	d.forwardMaps[0].FindOrInsert(candidateFromCanon(canon))

	if d.Spill != nil {
		if err := d.Spill.Insert(rec, canon.Reduced); err != nil {
			return fmt.Errorf("seeding spill vector: %w", err)
		}
	}

	aux := auxLookup{d}
	if d.C == 0 {
		ProcessParent(0, level0, NewLayer(d.N, d.C, 0), shardmap.New(1), aux, d.C)
	}
	for c := 0; c < d.C; c++ {
		parent := d.forwardLevels[c]
		child := NewLayer(d.N, d.C, c+1)
		childMap := shardmap.New(d.Workers + 1)
		d.forwardLevels[c+1] = child
		d.forwardMaps[c+1] = childMap

		for {
			_, _, before := parent.CountByStatus()
			if err := RunForwardStep(ctx, parent, child, childMap, aux, d.C, d.Workers, d.ChildLimit, d.EdgeLimit); err != nil {
				return fmt.Errorf("forward level %d: %w", c, err)
			}
			_, _, after := parent.CountByStatus()
			if after == 0 || after == before {
				break
			}
		}

		d.progress = float64(d.C+c+1) / float64(2*d.C+1)
		if level0.Record(0).Status() != poset.StatusUnfinished {
			break
		}
	}
	d.progress = 1
	return nil
}

// auxLookup adapts the driver's completed backward layers, completeness
// schedule, and old-gen cache to the forward search's Lookup interface
// (spec §4.8 phase 1, §4.9 step 3, §4.10 step 3).
type auxLookup struct{ d *Driver }

// Backward reports the status the backward layer at level has for c, if
// any: a hit is always an authoritative YES (every record a backward
// layer holds is YES by construction); a miss is authoritative NO only
// once that layer's completeness threshold says it was searched
// exhaustively rather than bandwidth-throttled.
func (a auxLookup) Backward(level int, c shardmap.Candidate) (poset.Status, bool) {
	if level < 0 || level >= len(a.d.backwardMaps) || a.d.backwardMaps[level] == nil {
		return poset.StatusUnfinished, false
	}
	if rec := a.d.backwardMaps[level].Find(c); rec != nil {
		return rec.Status(), true
	}
	if level < len(a.d.completeAbove) && a.d.completeAbove[level] <= 1 {
		return poset.StatusNo, true
	}
	return poset.StatusUnfinished, false
}

// OldGen probes the generational cache of posets resolved below the
// active forward frontier (spec §4.6). A nil OldGen is a pure no-op, so
// callers that never open the mmap file still get correct (just less
// cached) behavior.
func (a auxLookup) OldGen(c shardmap.Candidate) (poset.Status, bool) {
	if a.d.OldGen == nil {
		return poset.StatusUnfinished, false
	}
	return a.d.OldGen.Lookup(oldgen.Candidate{
		Hash64:      c.Fingerprint,
		Reduced:     c.Reduced,
		UniqueGraph: c.UniqueGraph,
		SelfDual:    c.SelfDual,
	})
}

// PutOldGen stores a freshly resolved verdict in the old-gen cache (spec
// §4.6); the map itself only overwrites an occupied slot when the
// incoming status is YES.
func (a auxLookup) PutOldGen(c shardmap.Candidate, status poset.Status) {
	if a.d.OldGen == nil {
		return
	}
	_ = a.d.OldGen.Put(oldgen.Candidate{
		Hash64:      c.Fingerprint,
		Reduced:     c.Reduced,
		UniqueGraph: c.UniqueGraph,
		SelfDual:    c.SelfDual,
		Status:      status,
	})
}

// verdictFromLevel0 maps level 0's sole poset's status to a verdict,
// reporting "inconclusive" per spec §4.10 if more than one survivor
// remains where exactly one is expected.
func (d *Driver) verdictFromLevel0() Verdict {
	var level0 *Layer
	if len(d.forwardLevels) > 0 && d.forwardLevels[0] != nil {
		level0 = d.forwardLevels[0]
	} else if len(d.backwardLevels) > 0 {
		level0 = d.backwardLevels[0]
	}
	if level0 == nil || level0.Len() == 0 {
		return VerdictInconclusive
	}
	if level0.Len() > 1 {
		return VerdictInconclusive
	}
	switch level0.Record(0).Status() {
	case poset.StatusYes:
		return VerdictSortable
	case poset.StatusNo:
		return VerdictNotSortable
	default:
		return VerdictInconclusive
	}
}
