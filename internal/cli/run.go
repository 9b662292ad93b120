package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sortbound/sortbound/pkg/engine"
	"github.com/sortbound/sortbound/pkg/search"
)

const bytesPerGB = 1 << 30

// searchOpts holds the flags shared by run/forward/backward/bidir (spec
// §6 "CLI... Flags").
type searchOpts struct {
	n, c             int
	workers          int
	bandwidthLow     uint64
	bandwidthHigh    uint64
	fullLayers       int
	switchLevel      int
	oldGenBudgetGB   int
	spillVecBudgetGB int
	oldGenPath       string
	spillVecPath     string
	outputDir        string
	reuseBW          bool
	configFile       string
	noProgress       bool
}

// newSearchCmd builds one of the run/forward/backward/bidir subcommands.
// They share every flag; only the fixed mode differs.
func newSearchCmd(use, short string, mode search.Mode) *cobra.Command {
	opts := searchOpts{c: -1, workers: 0}

	cmd := &cobra.Command{
		Use:   use + " --n N [--c C]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, &opts, mode)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.n, "n", 0, "number of elements to sort (required)")
	flags.IntVar(&opts.c, "c", -1, "comparison budget (defaults to the information-theoretic lower bound)")
	flags.IntVar(&opts.workers, "workers", 0, "worker count (defaults to NumCPU)")
	flags.Uint64Var(&opts.bandwidthLow, "bandwidth-low", 1<<20, "backward completeness bandwidth for levels below the switch level (near the root)")
	flags.Uint64Var(&opts.bandwidthHigh, "bandwidth-high", 1<<10, "backward completeness bandwidth for levels from the switch level on (near the leaves)")
	flags.IntVar(&opts.fullLayers, "full-layers", 2, "number of root-adjacent layers searched exhaustively")
	flags.IntVar(&opts.switchLevel, "switch-level", -1, "level at which bandwidth switches from low to high (defaults to c/2)")
	flags.IntVar(&opts.oldGenBudgetGB, "old-gen-budget-gb", 1, "old-gen mmap memory budget in gigabytes")
	flags.IntVar(&opts.spillVecBudgetGB, "spill-vec-budget-gb", 1, "spill-vector mmap memory budget in gigabytes")
	flags.StringVar(&opts.oldGenPath, "old-gen-path", "", "old-gen mmap file path")
	flags.StringVar(&opts.spillVecPath, "spill-vec-path", "", "spill-vector mmap file path")
	flags.StringVar(&opts.outputDir, "output-dir", ".", "directory for layer files and logs")
	flags.BoolVar(&opts.reuseBW, "reuse-bw", false, "reuse a prior run's backward layers if present")
	flags.StringVar(&opts.configFile, "config", "", "optional TOML config file supplying flag defaults")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "disable the live progress bar")

	return cmd
}

// runSearch validates flags, merges in any TOML config-file defaults,
// runs the engine, and prints spec §6's verdict line.
func runSearch(cmd *cobra.Command, opts *searchOpts, mode search.Mode) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if opts.n <= 0 {
		return fmt.Errorf("--n is required and must be positive")
	}

	var fc fileConfig
	if opts.configFile != "" {
		spin := newSpinner(fmt.Sprintf("loading %s", opts.configFile))
		spin.Start()
		loaded, err := loadFileConfig(opts.configFile)
		if err != nil {
			spin.StopWithError(err.Error())
			return fmt.Errorf("reading config file: %w", err)
		}
		spin.StopWithSuccess(fmt.Sprintf("loaded %s", opts.configFile))
		fc = loaded
	}
	applyFileDefaults(opts, fc, cmd.Flags().Changed)

	cfg, err := engine.DefaultConfig(opts.n)
	if err != nil {
		return err
	}
	cfg.Mode = mode
	if opts.c >= 0 {
		cfg.C = opts.c
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}

	switchLevel := opts.switchLevel
	if switchLevel < 0 {
		switchLevel = cfg.C / 2
	}
	cfg.Bandwidth = search.Bandwidth{
		Low:         opts.bandwidthLow,
		High:        opts.bandwidthHigh,
		FullLayers:  opts.fullLayers,
		SwitchLevel: switchLevel,
	}
	cfg.Storage = engine.StorageProfile{
		OldGenBudgetBytes:   uint64(opts.oldGenBudgetGB) * bytesPerGB,
		SpillVecBudgetBytes: uint64(opts.spillVecBudgetGB) * bytesPerGB,
		OldGenPath:          opts.oldGenPath,
		SpillVecPath:        opts.spillVecPath,
	}
	cfg.ReuseBW = opts.reuseBW
	cfg.OutputDir = opts.outputDir
	cfg.EventLogPath = fmt.Sprintf("%s/output_%d_events.txt", opts.outputDir, opts.n)
	cfg.GeneralLogPath = fmt.Sprintf("%s/output_%d.txt", opts.outputDir, opts.n)

	if err := cfg.Validate(); err != nil {
		printError("%v", err)
		return err
	}

	prog := newProgress(logger)
	var result engine.Result
	runErr := runWithProgress(fmt.Sprintf("N=%d C=%d", cfg.N, cfg.C), opts.noProgress, func(progressCh chan<- float64) error {
		cfg.Progress = progressCh
		var err error
		result, err = engine.Run(ctx, cfg, logger)
		return err
	})
	if runErr != nil {
		printError("%v", runErr)
		return runErr
	}
	prog.done(fmt.Sprintf("search finished (run %s)", result.RunID))

	line := engine.VerdictLine(cfg.N, cfg.C, result.Verdict)
	switch result.Verdict {
	case search.VerdictSortable:
		printSuccess("%s", line)
	case search.VerdictNotSortable:
		printWarning("%s", line)
	default:
		printInfo("%s", line)
	}
	printDetail("elapsed %s", result.Elapsed)
	return nil
}
