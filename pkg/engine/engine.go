package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sortbound/sortbound/pkg/config"
	"github.com/sortbound/sortbound/pkg/errors"
	"github.com/sortbound/sortbound/pkg/eventlog"
	"github.com/sortbound/sortbound/pkg/oldgen"
	"github.com/sortbound/sortbound/pkg/profiler"
	"github.com/sortbound/sortbound/pkg/search"
	"github.com/sortbound/sortbound/pkg/spillvec"
	"github.com/sortbound/sortbound/pkg/stats"
)

// oldGenBytesPerSlot and spillVecBytesPerRecord are the per-entry byte
// costs StorageProfile's budgets are divided by -- sized for the widest
// case the compile-time N bound allows (spec §4.6, §4.7).
const (
	oldGenBytesPerSlot     = 8 + 4*config.MaxN
	spillVecBytesPerRecord = 16 + 4*config.MaxN
)

// Result is what Run returns: the verdict plus the counters and timing
// a caller (CLI or test) might want to report.
type Result struct {
	Verdict  search.Verdict
	RunID    string
	Elapsed  time.Duration
	Stats    map[string]uint64
	Profile  string
}

// Run validates cfg, wires the search driver to the ambient stack
// (logging, stats, profiling, event log), executes it, and persists
// results (spec §4.10 steps 1-5).
func Run(ctx context.Context, cfg Config, logger *log.Logger) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if logger == nil {
		logger = log.Default()
	}

	runID := uuid.New().String()
	start := time.Now()
	logger.Info("starting run", "run_id", runID, "n", cfg.N, "c", cfg.C, "mode", cfg.Mode)

	eventFile := openLogFile(cfg.EventLogPath)
	generalFile := openLogFile(cfg.GeneralLogPath)
	if eventFile != nil {
		defer eventFile.Close()
	}
	if generalFile != nil {
		defer generalFile.Close()
	}
	var eventWriter, generalWriter io.Writer
	if eventFile != nil {
		eventWriter = eventFile
	}
	if generalFile != nil {
		generalWriter = generalFile
	}
	events := eventlog.New(eventWriter, generalWriter)
	events.Note("run %s starting: N=%d C=%d mode=%v", runID, cfg.N, cfg.C, cfg.Mode)

	global := stats.NewGlobal()
	timer := profiler.NewTimer()

	driver := search.NewDriver(cfg.N, cfg.C, cfg.Mode, cfg.Bandwidth, cfg.Workers, global)
	driver.Profiler = timer

	if cfg.Storage.OldGenPath != "" {
		slots := cfg.Storage.OldGenSlotCount(oldGenBytesPerSlot)
		if slots == 0 {
			slots = 1
		}
		og, err := oldgen.Open(cfg.Storage.OldGenPath, slots)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "opening old-gen map")
		}
		defer og.Close()
		driver.OldGen = og
	}
	if cfg.Storage.SpillVecPath != "" {
		window := cfg.Storage.SpillVecWindowCapacity(spillVecBytesPerRecord)
		if window == 0 {
			window = 1
		}
		sv, err := spillvec.Open(cfg.Storage.SpillVecPath, window)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "opening spill vector")
		}
		defer sv.Close()
		driver.Spill = sv
	}

	if cfg.Progress != nil {
		stop := make(chan struct{})
		defer close(stop)
		go pollProgress(driver, cfg.Progress, stop)
	}

	verdict, err := driver.Run(ctx)
	if err != nil {
		events.Event("run %s failed: %v", runID, err)
		return Result{}, errors.Wrap(errors.ErrCodeInternal, err, "driver run failed")
	}

	elapsed := time.Since(start)
	logger.Info("run complete", "run_id", runID, "verdict", verdict, "elapsed", elapsed)
	events.Note("run %s complete: verdict=%s elapsed=%s", runID, verdict, elapsed)

	return Result{
		Verdict: verdict,
		RunID:   runID,
		Elapsed: elapsed,
		Stats:   global.Snapshot(),
		Profile: timer.Summary(),
	}, nil
}

// pollProgress forwards driver's progress scalar to out at a fixed
// cadence until stop is closed. Sends are non-blocking: a slow reader
// misses intermediate ticks rather than stalling the search.
func pollProgress(driver *search.Driver, out chan<- float64, stop <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case out <- driver.Progress():
			default:
			}
		}
	}
}

// openLogFile opens path for appending, returning a nil *os.File if path
// is empty or the file cannot be opened; Run only assigns a non-nil file
// to the io.Writer it hands to eventlog, so eventlog's nil checks behave
// correctly.
func openLogFile(path string) *os.File {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}
	return f
}

// VerdictLine formats the spec §6 "Verdict" single-line report.
func VerdictLine(n, c int, v search.Verdict) string {
	switch v {
	case search.VerdictSortable:
		return fmt.Sprintf("%d elements SORTABLE in %d comparisons", n, c)
	case search.VerdictNotSortable:
		return fmt.Sprintf("%d elements NOT SORTABLE in %d comparisons", n, c)
	default:
		return "inconclusive"
	}
}
