package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/tiersync/tiersync/internal/activity"
	"github.com/tiersync/tiersync/internal/copier"
	"github.com/tiersync/tiersync/internal/strategy"
	"github.com/tiersync/tiersync/internal/tier"
	"github.com/tiersync/tiersync/internal/tierconf"
)

// Resolved is everything a run needs, built from a decoded tierconf.Config.
type Resolved struct {
	Raw            *tierconf.Config
	Tiers          tier.Set
	Strategies     []*strategy.Strategy
	Copier         copier.Copier
	ActivityClient *activity.Client
	LockDir        string
}

// LoadAndBuild loads the YAML config at path (layered over defaults and any
// bound flags), builds the live tier/strategy/copier/activity objects, and
// validates the whole thing. Validation errors are joined into a single
// error via errors.Join so every violation reaches the operator at once.
func LoadAndBuild(ctx context.Context, path string, flags *pflag.FlagSet) (*Resolved, error) {
	raw, err := Load(path, flags)
	if err != nil {
		return nil, err
	}

	tiers, err := tierconf.BuildTiers(raw.Tiers)
	if err != nil {
		return nil, fmt.Errorf("building tiers: %w", err)
	}

	strategies, err := tierconf.BuildStrategies(raw.Strategies)
	if err != nil {
		return nil, fmt.Errorf("building strategies: %w", err)
	}

	cp := buildCopier(raw.Mover)

	var activityClient *activity.Client
	if raw.Tautulli != nil {
		activityClient = activity.NewClient(raw.Tautulli.URL, raw.Tautulli.APIKey)
		activityClient.Logger = NewLogger("activity")
	}

	if violations := Validate(ctx, raw, tiers, strategies, activityClient); len(violations) > 0 {
		return nil, errors.Join(violations...)
	}

	lockDir := raw.LockDir
	if lockDir == "" {
		lockDir = defaultLockDir()
	}

	return &Resolved{
		Raw:            raw,
		Tiers:          tiers,
		Strategies:     strategies,
		Copier:         cp,
		ActivityClient: activityClient,
		LockDir:        lockDir,
	}, nil
}

func buildCopier(m tierconf.MoverConfig) copier.Copier {
	if strings.EqualFold(m.Type, "dry_run") {
		return copier.DryRun{Logger: NewLogger("copier")}
	}
	return copier.Rsync{}
}

// VerboseToBool collapses a repeated -v count into the boolean verbose flag
// ResolveLogLevel expects.
func VerboseToBool(count int) bool {
	return count > 0
}

// EnsureLockDir creates the lock directory if it does not exist.
func EnsureLockDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
