package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tiersync",
	Short: "Rebalance files across storage tiers.",
	Long: `tiersync scans a set of storage tiers, scores every file against a
configurable set of strategies, and plans (and optionally executes) the
promotions and demotions needed to keep each tier within its usage bounds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newRebalanceCmd())
	rootCmd.AddCommand(newDaemonCmd())
}

// Execute runs the root command and returns the process exit code:
// a *CLIError's Code when present, 1 for any other error, 0 on success.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return extractExitCode(err)
	}
	return 0
}

func extractExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return 1
}

// RootCmd returns the root cobra.Command, for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
