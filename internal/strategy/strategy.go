// Package strategy implements Strategy matching, selection, ideal-tier
// resolution, and decision construction (§4.3). It knows nothing about
// sorting files or running multiple passes — that orchestration belongs to
// internal/planner; this package only answers "what should happen to this
// one file, given this one strategy."
package strategy

import (
	"github.com/tiersync/tiersync/internal/condition"
	"github.com/tiersync/tiersync/internal/plan"
	"github.com/tiersync/tiersync/internal/record"
	"github.com/tiersync/tiersync/internal/tier"
)

// Action selects whether a matched Strategy proceeds to tier selection or
// simply pins the file in place.
type Action int

const (
	Evaluate Action = iota
	StayAction
)

// Strategy is the named, prioritized rule set described in §3: an ordered
// conjunction of conditions, an ordered tier preference list, and the two
// knobs (Action, Required) that shape decision construction.
type Strategy struct {
	Name           string
	Priority       uint
	Conditions     []condition.Condition
	PreferredTiers []string
	Action         Action
	Required       bool
}

// Matches reports whether every one of the strategy's conditions matches.
func (s *Strategy) Matches(file *record.FileRecord, ctx *condition.PlanningContext) bool {
	return condition.All(s.Conditions, file, ctx)
}

// NoMatch is the synthetic fallback strategy emitted when no configured
// strategy matches a file (§4.3: "synthetic strategy name no-match and
// priority 0").
var NoMatch = &Strategy{Name: "no-match", Priority: 0, Action: StayAction}

// Select picks the best matching strategy for (file, ctx): greatest
// priority, ties broken by ascending name. If nothing matches, Select
// returns NoMatch.
func Select(strategies []*Strategy, file *record.FileRecord, ctx *condition.PlanningContext) *Strategy {
	var best *Strategy
	for _, s := range strategies {
		if !s.Matches(file, ctx) {
			continue
		}
		if best == nil || s.Priority > best.Priority || (s.Priority == best.Priority && s.Name < best.Name) {
			best = s
		}
	}
	if best == nil {
		return NoMatch
	}
	return best
}

// IdealTier iterates PreferredTiers in order and returns the first tier that
// can accept the file under the planner's current simulated-free account. A
// preferred-tier name that doesn't resolve in tiers is skipped rather than
// treated as an error — the config loader is responsible for rejecting that
// case at load time (§3 invariant on preferred_tiers).
func IdealTier(s *Strategy, tiers tier.Set, sizeBytes uint64, simulatedFree map[string]uint64) *tier.Tier {
	byName := tiers.ByName()
	for _, name := range s.PreferredTiers {
		t, ok := byName[name]
		if !ok {
			continue
		}
		if t.CanAccept(sizeBytes, simulatedFree[name]) {
			return t
		}
	}
	return nil
}

// Decide implements §4.3's decision-construction table for a single file
// already paired with its selected strategy and current tier. It neither
// mutates simulatedFree nor appends to any plan — the caller (the Planner's
// Pass 2 loop) owns that bookkeeping. It does read live capacity samples
// through Tier.CanAccept and Tier.CanDemote.
func Decide(
	file *record.FileRecord,
	currentTier *tier.Tier,
	s *Strategy,
	tiers tier.Set,
	simulatedFree map[string]uint64,
) (plan.Decision, *plan.BlockedPlacement, *plan.Warning) {
	base := plan.Decision{
		File:             file,
		FromTier:         currentTier.Name,
		StrategyName:     s.Name,
		StrategyPriority: s.Priority,
	}

	if s.Action == StayAction {
		base.Kind = plan.Stay
		return base, nil, nil
	}

	ideal := IdealTier(s, tiers, file.SizeBytes, simulatedFree)
	if ideal == nil {
		base.Kind = plan.Stay

		var blocked *plan.BlockedPlacement
		if len(s.PreferredTiers) > 0 && s.PreferredTiers[0] != currentTier.Name {
			blocked = &plan.BlockedPlacement{
				File:             file,
				CurrentTier:      currentTier.Name,
				DesiredTier:      s.PreferredTiers[0],
				StrategyName:     s.Name,
				StrategyPriority: s.Priority,
			}
		}
		var warn *plan.Warning
		if s.Required {
			warn = &plan.Warning{
				Kind:         plan.RequiredStrategyFailed,
				File:         file,
				StrategyName: s.Name,
				Reason:       "no preferred tier had room",
			}
		}
		return base, blocked, warn
	}

	switch {
	case ideal.Name == currentTier.Name:
		base.Kind = plan.Stay
	case ideal.Priority < currentTier.Priority:
		base.Kind = plan.Promote
		base.ToTier = ideal.Name
	case ideal.Priority > currentTier.Priority && currentTier.CanDemote():
		base.Kind = plan.Demote
		base.ToTier = ideal.Name
	default:
		base.Kind = plan.Stay
	}
	return base, nil, nil
}
