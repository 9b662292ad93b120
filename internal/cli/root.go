package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. Called
// by the main package during initialization with ldflags-injected values.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the sortbound CLI and returns an error if any command
// fails.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "sortbound",
		Short:        "sortbound decides comparison-sorting lower bounds by exhaustive poset search",
		Long:         `sortbound computes sorting lower bounds: given N elements and a comparison budget C, it decides whether every N-permutation can be sorted using at most C pairwise comparisons.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmdCtx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(cmdCtx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("sortbound %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newSearchCmd("run", "Run the bidirectional search (default)", modeBidirectional))
	root.AddCommand(newSearchCmd("bidir", "Run the bidirectional search explicitly", modeBidirectional))
	root.AddCommand(newSearchCmd("forward", "Run the forward-only search", modeForwardOnly))
	root.AddCommand(newSearchCmd("backward", "Run the backward-only search", modeBackwardOnly))

	return root.ExecuteContext(ctx)
}
