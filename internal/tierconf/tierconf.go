// Package tierconf defines the YAML configuration schema (§6.1) as plain
// decode targets, plus the translation from that schema into the live
// objects (tier.Set, []*strategy.Strategy) the rest of the program operates
// on; the copier is built in internal/config. Keeping the schema types free
// of behavior — pure data, decoded by internal/config through koanf using
// these yaml struct tags — mirrors the teacher's config/types.go
// split between "what the file says" and "what the program does with it".
package tierconf

import (
	"fmt"

	"github.com/tiersync/tiersync/internal/condition"
	"github.com/tiersync/tiersync/internal/strategy"
	"github.com/tiersync/tiersync/internal/tier"
)

// Config is the root decode target for the YAML file.
type Config struct {
	Tiers      []TierConfig      `yaml:"tiers"`
	Strategies []StrategyConfig  `yaml:"strategies"`
	Mover      MoverConfig       `yaml:"mover"`
	Tautulli   *ActivityConfig   `yaml:"tautulli"`
	LockDir    string            `yaml:"lock_dir"`
}

// TierConfig decodes one tiers[] entry.
type TierConfig struct {
	Name            string `yaml:"name"`
	Path            string `yaml:"path"`
	Priority        uint   `yaml:"priority"`
	MaxUsagePercent *int   `yaml:"max_usage_percent"`
	MinUsagePercent *int   `yaml:"min_usage_percent"`
}

// StrategyConfig decodes one strategies[] entry.
type StrategyConfig struct {
	Name           string            `yaml:"name"`
	Priority       uint              `yaml:"priority"`
	Conditions     []ConditionConfig `yaml:"conditions"`
	PreferredTiers []string          `yaml:"preferred_tiers"`
	Required       bool              `yaml:"required"`
	Action         string            `yaml:"action"`
}

// ConditionConfig decodes one conditions[] entry. It is a tagged union keyed
// on Type; only the fields relevant to that type are populated by the
// operator and only those are consulted by buildCondition.
type ConditionConfig struct {
	Type string `yaml:"type"`

	MinHours *float64 `yaml:"min_hours"`
	MaxHours *float64 `yaml:"max_hours"`

	MinSizeMB *float64 `yaml:"min_size_mb"`
	MaxSizeMB *float64 `yaml:"max_size_mb"`

	Extensions []string `yaml:"extensions"`
	Mode       string   `yaml:"mode"`

	Prefix string `yaml:"prefix"`

	Patterns      []string `yaml:"patterns"`
	CaseSensitive bool     `yaml:"case_sensitive"`

	Name string `yaml:"name"` // active_window{name} - reserved for future named windows
}

// MoverConfig decodes the mover{} block.
type MoverConfig struct {
	Type      string   `yaml:"type"` // "rsync" or "dry_run"
	ExtraArgs []string `yaml:"extra_args"`
}

// ActivityConfig decodes the tautulli{} (or equivalent) block.
type ActivityConfig struct {
	URL               string `yaml:"url"`
	APIKey            string `yaml:"api_key"`
	HistoryLength     int    `yaml:"history_length"`
	WatchedThreshold  int    `yaml:"watched_threshold"`
	DaysBack          int    `yaml:"days_back"`
	BackwardEpisodes  int    `yaml:"backward_episodes"`
	ForwardEpisodes   int    `yaml:"forward_episodes"`
}

// BuildTiers constructs a tier.Set from the decoded tier configs. Each
// entry goes through tier.New, which checks the root path and usage bounds;
// name uniqueness is not checked here — internal/config.Validate owns
// cross-cutting checks that need the whole Config in view.
func BuildTiers(cfgs []TierConfig) (tier.Set, error) {
	out := make(tier.Set, 0, len(cfgs))
	for _, c := range cfgs {
		t, err := tier.New(c.Name, c.Path, c.Priority, c.MaxUsagePercent, c.MinUsagePercent)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// BuildStrategies translates decoded strategy configs into live strategies,
// resolving each condition against the tagged-union encoding in §6.1.
func BuildStrategies(cfgs []StrategyConfig) ([]*strategy.Strategy, error) {
	out := make([]*strategy.Strategy, 0, len(cfgs))
	for _, c := range cfgs {
		conds := make([]condition.Condition, 0, len(c.Conditions))
		for _, cc := range c.Conditions {
			cond, err := buildCondition(cc)
			if err != nil {
				return nil, fmt.Errorf("strategy %q: %w", c.Name, err)
			}
			conds = append(conds, cond)
		}
		action := strategy.Evaluate
		if c.Action == "stay" {
			action = strategy.StayAction
		}
		out = append(out, &strategy.Strategy{
			Name:           c.Name,
			Priority:       c.Priority,
			Conditions:     conds,
			PreferredTiers: c.PreferredTiers,
			Action:         action,
			Required:       c.Required,
		})
	}
	return out, nil
}

func buildCondition(c ConditionConfig) (condition.Condition, error) {
	switch c.Type {
	case "age":
		return condition.Age{MinHours: c.MinHours, MaxHours: c.MaxHours}, nil
	case "file_size":
		return condition.Size{MinMB: c.MinSizeMB, MaxMB: c.MaxSizeMB}, nil
	case "file_extension":
		mode, err := parseMode(c.Mode)
		if err != nil {
			return nil, err
		}
		return condition.NewExtension(c.Extensions, mode), nil
	case "path_prefix":
		mode, err := parseMode(c.Mode)
		if err != nil {
			return nil, err
		}
		return condition.PathPrefix{Prefix: c.Prefix, Mode: mode}, nil
	case "filename_contains":
		mode, err := parseMode(c.Mode)
		if err != nil {
			return nil, err
		}
		return condition.FilenameContains{Patterns: c.Patterns, Mode: mode, CaseSensitive: c.CaseSensitive}, nil
	case "active_window":
		return condition.ActiveWindow{}, nil
	case "always_true":
		return condition.AlwaysTrue{}, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", c.Type)
	}
}

func parseMode(s string) (condition.Mode, error) {
	switch s {
	case "whitelist", "":
		return condition.Whitelist, nil
	case "blacklist":
		return condition.Blacklist, nil
	default:
		return 0, fmt.Errorf("unknown condition mode %q", s)
	}
}

// UsesActiveWindow reports whether any strategy references active_window,
// the trigger for the activity-oracle health check in §6.1's validation
// rules.
func (c *Config) UsesActiveWindow() bool {
	for _, s := range c.Strategies {
		for _, cond := range s.Conditions {
			if cond.Type == "active_window" {
				return true
			}
		}
	}
	return false
}
