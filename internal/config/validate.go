package config

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/tiersync/tiersync/internal/activity"
	"github.com/tiersync/tiersync/internal/strategy"
	"github.com/tiersync/tiersync/internal/tier"
	"github.com/tiersync/tiersync/internal/tierconf"
)

// Validate performs every load-time check from §6.1. It collects every
// violation instead of returning on the first one, so an operator can fix
// a YAML file in a single pass rather than one error per invocation.
// activityClient may be nil; the oracle health check is skipped (not
// failed) in that case, since not every caller (e.g. BuildStrategies-only
// unit tests) wants a live network dependency.
func Validate(ctx context.Context, cfg *tierconf.Config, tiers tier.Set, strategies []*strategy.Strategy, activityClient *activity.Client) []error {
	var errs []error

	if len(tiers) == 0 {
		errs = append(errs, fmt.Errorf("config: tiers[] must not be empty"))
	}
	if len(strategies) == 0 {
		errs = append(errs, fmt.Errorf("config: strategies[] must not be empty"))
	}

	tierNames := make(map[string]bool, len(tiers))
	for _, t := range tiers {
		if tierNames[t.Name] {
			errs = append(errs, fmt.Errorf("config: duplicate tier name %q", t.Name))
		}
		tierNames[t.Name] = true
	}

	strategyNames := make(map[string]bool, len(strategies))
	for _, s := range strategies {
		if strategyNames[s.Name] {
			errs = append(errs, fmt.Errorf("config: duplicate strategy name %q", s.Name))
		}
		strategyNames[s.Name] = true
		for _, pt := range s.PreferredTiers {
			if !tierNames[pt] {
				errs = append(errs, fmt.Errorf("config: strategy %q references unknown tier %q", s.Name, pt))
			}
		}
	}

	switch cfg.Mover.Type {
	case "", DefaultMoverType:
		if _, err := exec.LookPath("rsync"); err != nil {
			errs = append(errs, fmt.Errorf("config: mover copier \"rsync\" not found on PATH: %w", err))
		}
	case "dry_run":
		// no executable required
	default:
		errs = append(errs, fmt.Errorf("config: mover.type %q not one of rsync, dry_run", cfg.Mover.Type))
	}

	if cfg.UsesActiveWindow() {
		if cfg.Tautulli == nil {
			errs = append(errs, fmt.Errorf("config: an active_window condition is used but no activity oracle block is configured"))
		} else if activityClient != nil {
			if err := activityClient.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("config: activity oracle health check failed: %w", err))
			}
		}
	}

	return errs
}
