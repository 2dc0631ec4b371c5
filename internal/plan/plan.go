// Package plan defines the data-transfer objects produced by a planning run:
// Decision, BlockedPlacement, Warning (the PlanWarning sum type), TierUsage,
// and the top-level BalancingPlan. None of these types perform I/O or hold behavior
// beyond simple accessors — the same "DTOs only, zero dependencies" shape as
// the teacher's pipeline/types.go.
package plan

import (
	"fmt"

	"github.com/tiersync/tiersync/internal/record"
)

// Kind discriminates a Decision's variant.
type Kind int

const (
	Stay Kind = iota
	Promote
	Demote
)

func (k Kind) String() string {
	switch k {
	case Stay:
		return "stay"
	case Promote:
		return "promote"
	case Demote:
		return "demote"
	default:
		return "unknown"
	}
}

// Decision is the sum type described in §3: exactly one decision exists per
// planned FileRecord. FromTier is always populated (it is CurrentTier for a
// Stay); ToTier is empty for Stay.
type Decision struct {
	Kind             Kind
	File             *record.FileRecord
	FromTier         string
	ToTier           string // empty for Stay
	StrategyName     string
	StrategyPriority uint
}

// SortPriority implements §4.4's final-ordering scalar: Stay -> 0,
// Promote -> strategy_priority, Demote -> 1000 + strategy_priority. The
// constant keeps every Demote above every Promote since real configurations
// never approach four-digit strategy priorities.
func (d Decision) SortPriority() uint {
	switch d.Kind {
	case Promote:
		return d.StrategyPriority
	case Demote:
		return 1000 + d.StrategyPriority
	default:
		return 0
	}
}

func (d Decision) String() string {
	switch d.Kind {
	case Stay:
		return fmt.Sprintf("stay(%s on %s via %s)", d.File.Path, d.FromTier, d.StrategyName)
	default:
		return fmt.Sprintf("%s(%s %s->%s via %s)", d.Kind, d.File.Path, d.FromTier, d.ToTier, d.StrategyName)
	}
}

// BlockedPlacement records that a Strategy wanted to move File to
// DesiredTier but no preferred tier had room at evaluation time.
type BlockedPlacement struct {
	File             *record.FileRecord
	CurrentTier      string
	DesiredTier      string
	StrategyName     string
	StrategyPriority uint
}

// WarningKind discriminates a PlanWarning's variant.
type WarningKind int

const (
	InsufficientSpace WarningKind = iota
	RequiredStrategyFailed
)

func (k WarningKind) String() string {
	switch k {
	case InsufficientSpace:
		return "insufficient_space"
	case RequiredStrategyFailed:
		return "required_strategy_failed"
	default:
		return "unknown"
	}
}

// Warning is the PlanWarning sum type (§3). Fields not relevant to Kind are
// left zero.
type Warning struct {
	Kind         WarningKind
	File         *record.FileRecord
	StrategyName string
	Needed       uint64 // InsufficientSpace only
	Available    uint64 // InsufficientSpace only
	Reason       string // RequiredStrategyFailed only
}

func (w Warning) String() string {
	switch w.Kind {
	case InsufficientSpace:
		return fmt.Sprintf("insufficient space for %s (strategy %s): needed %d, available %d",
			w.File.Path, w.StrategyName, w.Needed, w.Available)
	case RequiredStrategyFailed:
		return fmt.Sprintf("required strategy %s failed for %s: %s", w.StrategyName, w.File.Path, w.Reason)
	default:
		return "unknown warning"
	}
}

// TierUsage reports the per-tier accounting described in §4.4's "Projected
// usage" paragraph.
type TierUsage struct {
	TierName         string
	CurrentUsed      uint64
	CurrentFree      uint64
	ProjectedUsed    uint64
	ProjectedFree    uint64
	CurrentPercent   int
	ProjectedPercent int
}

// BalancingPlan is the Planner's complete output (§4.4).
type BalancingPlan struct {
	Decisions      []Decision
	ProjectedUsage []TierUsage
	Warnings       []Warning
}

// FilesOf filters Decisions to those of the given Kind, in plan order.
func (p *BalancingPlan) FilesOf(k Kind) []Decision {
	var out []Decision
	for _, d := range p.Decisions {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}
