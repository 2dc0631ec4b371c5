// Package planner implements the Planner and EvictionPlanner (§4.4, §4.5):
// the three-pass algorithm that turns a tier list, a strategy list, and a
// scanned file set into a deterministic BalancingPlan.
package planner

import (
	"sort"
	"time"

	"github.com/tiersync/tiersync/internal/condition"
	"github.com/tiersync/tiersync/internal/plan"
	"github.com/tiersync/tiersync/internal/record"
	"github.com/tiersync/tiersync/internal/stats"
	"github.com/tiersync/tiersync/internal/strategy"
	"github.com/tiersync/tiersync/internal/tier"
)

// Input is everything a single planning run needs. FilesByTier maps each
// tier's name to the FileRecords currently living on it, as produced by
// internal/scan's Pass-1 enumeration. ActivityStats is optional (nil means
// the external activity oracle was unreachable or unused this run); the
// ActiveWindow condition then fails closed for every file, per §6.5.
type Input struct {
	Tiers         tier.Set
	Strategies    []*strategy.Strategy
	FilesByTier   map[string][]*record.FileRecord
	Now           time.Time
	ActivityStats *stats.ActivityStats
}

// Run executes Passes 1-3 and the final ordering, returning a complete
// BalancingPlan. Run performs no I/O beyond what Tier.Capacity and
// Tier.CanDemote already do (live filesystem samples); it never mutates its
// Input.
func Run(in Input) *plan.BalancingPlan {
	byName := in.Tiers.ByName()

	// Pass 1 (the remainder of it: dedup + aggregate; the walk itself
	// already happened in internal/scan). Build the unified file list and
	// the file -> current-tier-name index, with first-seen-wins dedup by
	// path across tiers (a duplicate here is an operator misconfiguration,
	// not something the planner repairs; see §4.4 Pass 1).
	tierOrder := sortedTierNames(in.FilesByTier)
	fileTier := make(map[string]string)
	var allFiles []*record.FileRecord
	for _, tname := range tierOrder {
		for _, f := range in.FilesByTier[tname] {
			if _, seen := fileTier[f.Path]; seen {
				continue
			}
			fileTier[f.Path] = tname
			allFiles = append(allFiles, f)
		}
	}

	globalStats := stats.Aggregate(allFiles)
	globalStats.ActivityStats = in.ActivityStats

	simulatedFree := make(map[string]uint64, len(in.Tiers))
	currentUsed := make(map[string]uint64, len(in.Tiers))
	currentFree := make(map[string]uint64, len(in.Tiers))
	currentPercent := make(map[string]int, len(in.Tiers))
	totalBytes := make(map[string]uint64, len(in.Tiers))
	for _, t := range in.Tiers {
		cap := t.Capacity()
		simulatedFree[t.Name] = cap.FreeBytes
		currentUsed[t.Name] = cap.UsedBytes
		currentFree[t.Name] = cap.FreeBytes
		currentPercent[t.Name] = cap.UsagePercent
		totalBytes[t.Name] = cap.TotalBytes
	}

	// Pass 2 - Placement.
	sortForPlacement(allFiles, fileTier)

	var decisions []plan.Decision
	var blocked []plan.BlockedPlacement
	var warnings []plan.Warning

	for _, f := range allFiles {
		curTier := byName[fileTier[f.Path]]
		ctx := &condition.PlanningContext{
			Now:             in.Now,
			CurrentTierRoot: curTier.RootPath,
			GlobalStats:     globalStats,
		}
		sel := strategy.Select(in.Strategies, f, ctx)
		d, b, w := strategy.Decide(f, curTier, sel, in.Tiers, simulatedFree)

		if d.Kind != plan.Stay {
			applyMove(simulatedFree, d.FromTier, d.ToTier, f.SizeBytes)
		}
		decisions = append(decisions, d)
		if b != nil {
			blocked = append(blocked, *b)
		}
		if w != nil {
			warnings = append(warnings, *w)
		}
	}

	// Pass 3a - blocked-placement eviction.
	ep := EvictionPlanner{Tiers: in.Tiers}
	ep.EvictToMakeSpace(decisions, blocked, simulatedFree)

	// Pass 3b - excess-usage eviction.
	ep.EvictExcessUsage(decisions, simulatedFree)

	// Final ordering (§4.4): sort_priority descending, ties by path
	// ascending.
	sort.SliceStable(decisions, func(i, j int) bool {
		pi, pj := decisions[i].SortPriority(), decisions[j].SortPriority()
		if pi != pj {
			return pi > pj
		}
		return decisions[i].File.Path < decisions[j].File.Path
	})

	usage := make([]plan.TierUsage, 0, len(in.Tiers))
	for _, t := range in.Tiers {
		total := totalBytes[t.Name]
		projFree := simulatedFree[t.Name]
		var projUsed uint64
		if total > projFree {
			projUsed = total - projFree
		}
		usage = append(usage, plan.TierUsage{
			TierName:         t.Name,
			CurrentUsed:      currentUsed[t.Name],
			CurrentFree:      currentFree[t.Name],
			ProjectedUsed:    projUsed,
			ProjectedFree:    projFree,
			CurrentPercent:   currentPercent[t.Name],
			ProjectedPercent: tier.PercentTruncated(projUsed, total),
		})
	}

	return &plan.BalancingPlan{Decisions: decisions, ProjectedUsage: usage, Warnings: warnings}
}

// sortForPlacement implements §4.4 Pass 2's required ordering: size
// descending, mtime ascending, path ascending, current-tier-name ascending.
func sortForPlacement(files []*record.FileRecord, fileTier map[string]string) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.SizeBytes != b.SizeBytes {
			return a.SizeBytes > b.SizeBytes
		}
		if !a.ModifiedAt.Equal(b.ModifiedAt) {
			return a.ModifiedAt.Before(b.ModifiedAt)
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return fileTier[a.Path] < fileTier[b.Path]
	})
}

func sortedTierNames(m map[string][]*record.FileRecord) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// applyMove updates the planner's simulated free-byte account for a move
// from one tier to another, saturating at zero/max so a misconfigured size
// can never underflow the unsigned accounting.
func applyMove(simulatedFree map[string]uint64, from, to string, size uint64) {
	simulatedFree[from] = satAdd(simulatedFree[from], size)
	simulatedFree[to] = satSub(simulatedFree[to], size)
}

func satAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
