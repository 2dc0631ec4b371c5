package config

import "github.com/spf13/cobra"

// FlagValues collects the parsed global flag values shared by both
// subcommands. The daemon's --interval flag is not part of it;
// internal/cli/daemon.go binds that flag separately.
type FlagValues struct {
	ConfigPath string
	DryRun     bool
	Format     string
	Verbose    int
	Quiet      bool
}

// BindCommonFlags registers the flags shared by rebalance and daemon:
// -c/--config, -n/--dry-run, --format, -v/--verbose (repeatable), -q/--quiet.
func BindCommonFlags(cmd *cobra.Command) *FlagValues {
	fv := &FlagValues{}
	pf := cmd.Flags()
	pf.StringVarP(&fv.ConfigPath, "config", "c", DefaultConfigPath, "path to tiersync.yaml")
	pf.BoolVarP(&fv.DryRun, "dry-run", "n", false, "compute and print the plan without moving files")
	pf.StringVar(&fv.Format, "format", "text", "summary format: text, json, yaml")
	pf.CountVarP(&fv.Verbose, "verbose", "v", "increase log verbosity (repeatable)")
	pf.BoolVarP(&fv.Quiet, "quiet", "q", false, "suppress all but error-level logs")
	return fv
}
