// Package engine is the top-level orchestrator: it validates a run's
// configuration, drives the bidirectional search, persists layer files,
// and reports the final verdict (spec §6, §4.10).
package engine

import (
	"runtime"

	"github.com/sortbound/sortbound/pkg/config"
	"github.com/sortbound/sortbound/pkg/errors"
	"github.com/sortbound/sortbound/pkg/search"
)

// StorageProfile splits the active-poset and old-gen memory budgets
// between the two mmap-backed containers, driven by the CLI's
// gigabyte-budget flags (spec §6; original_source/src/storageProfile.h).
type StorageProfile struct {
	OldGenBudgetBytes   uint64
	SpillVecBudgetBytes uint64
	OldGenPath          string
	SpillVecPath        string
}

// OldGenSlotCount returns how many direct-mapped slots the old-gen map
// can hold within its byte budget, given the per-slot encoding size
// (spec §4.6).
func (p StorageProfile) OldGenSlotCount(bytesPerSlot uint64) uint64 {
	if bytesPerSlot == 0 {
		return 0
	}
	return p.OldGenBudgetBytes / bytesPerSlot
}

// SpillVecWindowCapacity returns how many in-RAM records the spill
// vector's online window can hold within its byte budget.
func (p StorageProfile) SpillVecWindowCapacity(bytesPerRecord uint64) uint64 {
	if bytesPerRecord == 0 {
		return 0
	}
	return p.SpillVecBudgetBytes / bytesPerRecord
}

// Config is a full run's configuration (spec §6 "CLI... Flags").
type Config struct {
	N, C           int
	Mode           search.Mode
	Workers        int
	Bandwidth      search.Bandwidth
	Storage        StorageProfile
	ReuseBW        bool
	OutputDir      string
	EventLogPath   string
	GeneralLogPath string

	// Progress, if non-nil, receives the driver's progress scalar
	// (spec §5 "the driver exposes a progress scalar in [0,1]") every
	// time Run polls it. It is an external collaborator hook: the
	// engine never imports a TUI package, it only writes to this
	// channel if the caller supplied one.
	Progress chan<- float64
}

// DefaultConfig returns a Config with spec §6's defaults applied: C at
// the information-theoretic lower bound, worker count at NumCPU.
func DefaultConfig(n int) (Config, error) {
	c, err := config.InfoTheoreticLowerBound(n)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "computing default C for N=%d", n)
	}
	return Config{
		N:       n,
		C:       int(c),
		Mode:    search.ModeBidirectional,
		Workers: runtime.NumCPU(),
		Bandwidth: search.Bandwidth{
			Low:         1 << 20,
			High:        1 << 10,
			FullLayers:  2,
			SwitchLevel: int(c) / 2,
		},
	}, nil
}

// Validate checks the configuration against the engine's compile-time
// bounds and required paths (spec §7 "Configuration" error kind).
func (cfg Config) Validate() error {
	if err := config.ValidateNC(cfg.N, cfg.C); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validating N/C")
	}
	if cfg.Workers < 1 || cfg.Workers > config.MaxThreads {
		return errors.New(errors.ErrCodeInvalidConfig, "workers=%d must be in [1,%d]", cfg.Workers, config.MaxThreads)
	}
	if cfg.Mode != search.ModeForwardOnly && cfg.Storage.OldGenPath == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "old-gen mmap path required unless mode is forward-only")
	}
	if cfg.Mode != search.ModeBackwardOnly && cfg.Storage.SpillVecPath == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "spill-vector mmap path required unless mode is backward-only")
	}
	return nil
}
