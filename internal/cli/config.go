package cli

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/sortbound/sortbound/pkg/search"
)

// fileConfig mirrors engine.Config's flag-backed fields for TOML
// config-file defaults (SPEC_FULL.md "Configuration": an optional TOML
// file supplies defaults for flags impractical to type every run;
// explicit CLI flags always override file values).
type fileConfig struct {
	Workers      int    `toml:"workers"`
	BandwidthLow uint64 `toml:"bandwidth_low"`
	BandwidthHi  uint64 `toml:"bandwidth_high"`
	FullLayers   int    `toml:"full_layers"`
	SwitchLevel  int    `toml:"switch_level"`
	OldGenGB     int    `toml:"old_gen_budget_gb"`
	SpillVecGB   int    `toml:"spill_vec_budget_gb"`
	OldGenPath   string `toml:"old_gen_path"`
	SpillVecPath string `toml:"spill_vec_path"`
	OutputDir    string `toml:"output_dir"`
	ReuseBW      bool   `toml:"reuse_bw"`
}

// loadFileConfig reads a TOML config file. A missing path is not an
// error: the zero-value fileConfig leaves every flag's own default in
// place.
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// applyFileDefaults copies fc's fields into opts for any flag the user
// did not explicitly pass on the command line.
func applyFileDefaults(opts *searchOpts, fc fileConfig, changed func(name string) bool) {
	if !changed("workers") && fc.Workers > 0 {
		opts.workers = fc.Workers
	}
	if !changed("bandwidth-low") && fc.BandwidthLow > 0 {
		opts.bandwidthLow = fc.BandwidthLow
	}
	if !changed("bandwidth-high") && fc.BandwidthHi > 0 {
		opts.bandwidthHigh = fc.BandwidthHi
	}
	if !changed("full-layers") && fc.FullLayers > 0 {
		opts.fullLayers = fc.FullLayers
	}
	if !changed("switch-level") && fc.SwitchLevel > 0 {
		opts.switchLevel = fc.SwitchLevel
	}
	if !changed("old-gen-budget-gb") && fc.OldGenGB > 0 {
		opts.oldGenBudgetGB = fc.OldGenGB
	}
	if !changed("spill-vec-budget-gb") && fc.SpillVecGB > 0 {
		opts.spillVecBudgetGB = fc.SpillVecGB
	}
	if !changed("old-gen-path") && fc.OldGenPath != "" {
		opts.oldGenPath = fc.OldGenPath
	}
	if !changed("spill-vec-path") && fc.SpillVecPath != "" {
		opts.spillVecPath = fc.SpillVecPath
	}
	if !changed("output-dir") && fc.OutputDir != "" {
		opts.outputDir = fc.OutputDir
	}
	if !changed("reuse-bw") && fc.ReuseBW {
		opts.reuseBW = fc.ReuseBW
	}
}

const (
	modeBidirectional = search.ModeBidirectional
	modeForwardOnly   = search.ModeForwardOnly
	modeBackwardOnly  = search.ModeBackwardOnly
)
