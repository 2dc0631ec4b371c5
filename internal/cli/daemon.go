package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tiersync/tiersync/internal/config"
	"github.com/tiersync/tiersync/internal/lock"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "daemon",
		Short:        "Run rebalance passes on a fixed interval until stopped",
		SilenceUsage: true,
	}
	fv := config.BindCommonFlags(cmd)
	interval := cmd.Flags().IntP("interval", "i", config.DefaultIntervalSeconds, "seconds between rebalance passes")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		level := config.ResolveLogLevel(config.VerboseToBool(fv.Verbose), fv.Quiet)
		config.SetupLogging(level, config.ResolveLogFormat())
		return nil
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd, fv, time.Duration(*interval)*time.Second)
	}
	return cmd
}

// runDaemon loads configuration once and then ticks indefinitely, running
// one rebalance pass per interval until the process receives SIGINT or
// SIGTERM. Each tick re-acquires the tier lock so a concurrently-run
// rebalance command is refused rather than racing the daemon.
func runDaemon(cmd *cobra.Command, fv *config.FlagValues, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolved, err := config.LoadAndBuild(ctx, fv.ConfigPath, cmd.Flags())
	if err != nil {
		return NewCLIError("loading configuration", err)
	}
	if err := config.EnsureLockDir(resolved.LockDir); err != nil {
		return NewCLIError("preparing lock directory", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-ctx.Done()
		return ctx.Err()
	})

	group.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			tick(ctx, cmd, fv, resolved)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return NewCLIError("daemon loop failed", err)
	}
	return nil
}

func tick(ctx context.Context, cmd *cobra.Command, fv *config.FlagValues, resolved *config.Resolved) {
	guard, err := lock.TryLock(resolved.LockDir, resolved.Tiers.SortedPaths())
	if err != nil {
		slog.Error("skipping tick: lock unavailable", "error", err)
		return
	}
	defer func() {
		if err := guard.Release(); err != nil {
			slog.Warn("releasing tier lock", "error", err)
		}
	}()

	p, execResult, err := runPass(ctx, resolved, fv.DryRun)
	if err != nil {
		slog.Error("rebalance pass failed", "error", err)
		return
	}
	if err := renderOutput(cmd, fv.Format, p, execResult, fv.DryRun); err != nil {
		slog.Error("rendering summary failed", "error", err)
	}
}
