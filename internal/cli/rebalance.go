package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tiersync/tiersync/internal/config"
	"github.com/tiersync/tiersync/internal/lock"
)

func newRebalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rebalance",
		Short:        "Run a single scan/plan/execute pass",
		SilenceUsage: true,
	}
	fv := config.BindCommonFlags(cmd)
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		level := config.ResolveLogLevel(config.VerboseToBool(fv.Verbose), fv.Quiet)
		config.SetupLogging(level, config.ResolveLogFormat())
		return nil
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runRebalance(cmd, fv)
	}
	return cmd
}

func runRebalance(cmd *cobra.Command, fv *config.FlagValues) error {
	ctx := cmd.Context()

	resolved, err := config.LoadAndBuild(ctx, fv.ConfigPath, cmd.Flags())
	if err != nil {
		return NewCLIError("loading configuration", err)
	}

	if err := config.EnsureLockDir(resolved.LockDir); err != nil {
		return NewCLIError("preparing lock directory", err)
	}
	guard, err := lock.TryLock(resolved.LockDir, resolved.Tiers.SortedPaths())
	if err != nil {
		return NewCLIError("acquiring tier lock", err)
	}
	defer func() {
		if err := guard.Release(); err != nil {
			slog.Warn("releasing tier lock", "error", err)
		}
	}()

	balancingPlan, execResult, err := runPass(ctx, resolved, fv.DryRun)
	if err != nil {
		return NewCLIError("running rebalance pass", err)
	}

	if err := renderOutput(cmd, fv.Format, balancingPlan, execResult, fv.DryRun); err != nil {
		return NewCLIError("rendering summary", err)
	}

	if execResult != nil && len(execResult.Errors) > 0 {
		return NewCLIError(fmt.Sprintf("%d file(s) failed to move", len(execResult.Errors)), nil)
	}
	return nil
}
