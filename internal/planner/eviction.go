package planner

import (
	"sort"

	"github.com/tiersync/tiersync/internal/plan"
	"github.com/tiersync/tiersync/internal/tier"
)

// EvictionPlanner implements §4.4 Pass 3 / §4.5: the two eviction sweeps
// that run after Pass 2's local placement. Both operations mutate decisions
// and simulatedFree in place and perform no I/O beyond the live capacity
// samples tier.Tier already takes.
type EvictionPlanner struct {
	Tiers tier.Set
}

// FallbackTier picks, among tiers slower than current (strictly greater
// priority number), the one with the smallest priority number that can
// accept size under simulatedFree. Returns nil if none can.
func (ep EvictionPlanner) FallbackTier(current *tier.Tier, size uint64, simulatedFree map[string]uint64) *tier.Tier {
	var best *tier.Tier
	for _, t := range ep.Tiers {
		if t.Priority <= current.Priority {
			continue
		}
		if !t.CanAccept(size, simulatedFree[t.Name]) {
			continue
		}
		if best == nil || t.Priority < best.Priority {
			best = t
		}
	}
	return best
}

// EvictToMakeSpace implements Pass 3a. For every tier named as a
// BlockedPlacement's desired tier, it evicts enough lower-priority Stay
// occupants to make room, then rewrites any blocked placement that now
// fits into a Promote or Demote.
func (ep EvictionPlanner) EvictToMakeSpace(decisions []plan.Decision, blocked []plan.BlockedPlacement, simulatedFree map[string]uint64) {
	if len(blocked) == 0 {
		return
	}
	byName := ep.Tiers.ByName()

	groups := make(map[string][]plan.BlockedPlacement)
	var tierNames []string
	for _, b := range blocked {
		if _, ok := groups[b.DesiredTier]; !ok {
			tierNames = append(tierNames, b.DesiredTier)
		}
		groups[b.DesiredTier] = append(groups[b.DesiredTier], b)
	}
	sort.Strings(tierNames)

	decisionIndex := make(map[string]int, len(decisions))
	for i, d := range decisions {
		decisionIndex[d.File.Path] = i
	}

	for _, desiredName := range tierNames {
		desiredTier, ok := byName[desiredName]
		if !ok {
			continue
		}

		group := append([]plan.BlockedPlacement(nil), groups[desiredName]...)
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].StrategyPriority > group[j].StrategyPriority
		})
		maxPriority := group[0].StrategyPriority

		var neededSize uint64
		for _, b := range group {
			neededSize += b.File.SizeBytes
		}

		var candidates []int
		for i, d := range decisions {
			if d.Kind == plan.Stay && d.FromTier == desiredName && d.StrategyPriority < maxPriority {
				candidates = append(candidates, i)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return decisions[candidates[i]].StrategyPriority < decisions[candidates[j]].StrategyPriority
		})

		var freed uint64
		for _, idx := range candidates {
			if freed >= neededSize {
				break
			}
			d := decisions[idx]
			fallback := ep.FallbackTier(desiredTier, d.File.SizeBytes, simulatedFree)
			if fallback == nil {
				continue
			}
			d.Kind = plan.Demote
			d.ToTier = fallback.Name
			decisions[idx] = d
			applyMove(simulatedFree, desiredName, fallback.Name, d.File.SizeBytes)
			freed += d.File.SizeBytes
		}

		for _, b := range group {
			if !desiredTier.CanAccept(b.File.SizeBytes, simulatedFree[desiredName]) {
				continue
			}
			idx, ok := decisionIndex[b.File.Path]
			if !ok {
				continue
			}
			d := decisions[idx]
			if d.Kind != plan.Stay {
				continue
			}
			curTier, ok := byName[b.CurrentTier]
			if !ok {
				continue
			}
			switch {
			case desiredTier.Priority < curTier.Priority:
				d.Kind = plan.Promote
				d.ToTier = desiredName
			case desiredTier.Priority > curTier.Priority && curTier.CanDemote():
				d.Kind = plan.Demote
				d.ToTier = desiredName
			default:
				continue
			}
			decisions[idx] = d
			applyMove(simulatedFree, b.CurrentTier, desiredName, b.File.SizeBytes)
		}
	}
}

// EvictExcessUsage implements Pass 3b: for every tier with a
// max_usage_percent ceiling still exceeded under simulatedFree, evict Stay
// occupants (strategy priority ascending, then oldest mtime first, then
// largest size first) until usage is at or below the ceiling or no more
// candidates can be relocated.
func (ep EvictionPlanner) EvictExcessUsage(decisions []plan.Decision, simulatedFree map[string]uint64) {
	for _, t := range ep.Tiers {
		if t.MaxUsagePercent == nil {
			continue
		}
		total := t.Capacity().TotalBytes

		candidates := stayCandidatesOnTier(decisions, t.Name)
		sort.SliceStable(candidates, func(i, j int) bool {
			di, dj := decisions[candidates[i]], decisions[candidates[j]]
			if di.StrategyPriority != dj.StrategyPriority {
				return di.StrategyPriority < dj.StrategyPriority
			}
			if !di.File.ModifiedAt.Equal(dj.File.ModifiedAt) {
				return di.File.ModifiedAt.Before(dj.File.ModifiedAt)
			}
			return di.File.SizeBytes > dj.File.SizeBytes
		})

		for _, idx := range candidates {
			used := satSub(total, simulatedFree[t.Name])
			if tier.PercentTruncated(used, total) <= *t.MaxUsagePercent {
				break
			}
			d := decisions[idx]
			fallback := ep.FallbackTier(t, d.File.SizeBytes, simulatedFree)
			if fallback == nil {
				continue
			}
			d.Kind = plan.Demote
			d.ToTier = fallback.Name
			decisions[idx] = d
			applyMove(simulatedFree, t.Name, fallback.Name, d.File.SizeBytes)
		}
	}
}

func stayCandidatesOnTier(decisions []plan.Decision, tierName string) []int {
	var out []int
	for i, d := range decisions {
		if d.Kind == plan.Stay && d.FromTier == tierName {
			out = append(out, i)
		}
	}
	return out
}
