package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tiersync/tiersync/internal/config"
	"github.com/tiersync/tiersync/internal/executor"
	"github.com/tiersync/tiersync/internal/mover"
	"github.com/tiersync/tiersync/internal/plan"
	"github.com/tiersync/tiersync/internal/planner"
	"github.com/tiersync/tiersync/internal/render"
	"github.com/tiersync/tiersync/internal/scan"
	"github.com/tiersync/tiersync/internal/stats"
)

// runPass executes one scan/plan/(execute) cycle against an already
// resolved configuration. execResult is nil when dryRun is true.
func runPass(ctx context.Context, resolved *config.Resolved, dryRun bool) (*plan.BalancingPlan, *executor.Result, error) {
	logger := config.NewLogger("cli")

	filesByTier, err := scan.NewScanner().ScanTiers(ctx, resolved.Tiers)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning tiers: %w", err)
	}

	var activityStats *stats.ActivityStats
	if resolved.ActivityClient != nil {
		if progress := resolved.ActivityClient.FetchProgressOrDegrade(ctx); progress != nil {
			activityStats = stats.MergeActivity(progress, resolved.Raw.Tautulli.BackwardEpisodes, resolved.Raw.Tautulli.ForwardEpisodes)
		}
	}

	result := planner.Run(planner.Input{
		Tiers:         resolved.Tiers,
		Strategies:    resolved.Strategies,
		FilesByTier:   filesByTier,
		Now:           time.Now(),
		ActivityStats: activityStats,
	})

	if dryRun {
		return result, nil, nil
	}

	ex := &executor.Executor{
		Tiers: resolved.Tiers,
		Mover: &mover.Mover{
			Copier: resolved.Copier, ExtraArgs: resolved.Raw.Mover.ExtraArgs, Logger: logger,
			DryRun: strings.EqualFold(resolved.Raw.Mover.Type, "dry_run"),
		},
		Logger: logger,
	}
	r := ex.Execute(ctx, result)
	return result, &r, nil
}

// renderOutput writes p (and, when present, execResult) in the requested
// format. Per §6.2/§7, stdout is reserved for the machine-readable
// --format json|yaml summary; the human-readable text report goes to
// stderr alongside the rest of the run's logs.
func renderOutput(cmd *cobra.Command, format string, p *plan.BalancingPlan, execResult *executor.Result, dryRun bool) error {
	switch strings.ToLower(format) {
	case "json":
		return render.JSON(cmd.OutOrStdout(), render.BuildSummary(p, dryRun, execResult))
	case "yaml":
		return render.YAML(cmd.OutOrStdout(), render.BuildSummary(p, dryRun, execResult))
	default:
		return render.Text(cmd.ErrOrStderr(), p, execResult)
	}
}
