// Package render turns a BalancingPlan (and, when a run actually executes
// it, an executor.Result) into the two outputs §6.2 and §7 require: a
// human-readable summary to stderr, and a structured json/yaml summary to
// stdout when --format is non-text. The json and yaml outputs are both fed
// by one Summary struct; the text output is rendered from the plan directly
// and includes the per-tier decision-count breakdown noted as a
// supplemented feature in SPEC_FULL.md §4.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/tiersync/tiersync/internal/executor"
	"github.com/tiersync/tiersync/internal/plan"
)

// DecisionSummary is one rendered plan.Decision, flattened for serialization.
type DecisionSummary struct {
	Path             string `json:"path" yaml:"path"`
	Kind             string `json:"kind" yaml:"kind"`
	FromTier         string `json:"from_tier,omitempty" yaml:"from_tier,omitempty"`
	ToTier           string `json:"to_tier,omitempty" yaml:"to_tier,omitempty"`
	StrategyName     string `json:"strategy_name" yaml:"strategy_name"`
	StrategyPriority uint   `json:"strategy_priority" yaml:"strategy_priority"`
}

// TierUsageSummary mirrors plan.TierUsage for serialization.
type TierUsageSummary struct {
	TierName         string `json:"tier_name" yaml:"tier_name"`
	CurrentUsed      uint64 `json:"current_used" yaml:"current_used"`
	CurrentFree      uint64 `json:"current_free" yaml:"current_free"`
	ProjectedUsed    uint64 `json:"projected_used" yaml:"projected_used"`
	ProjectedFree    uint64 `json:"projected_free" yaml:"projected_free"`
	CurrentPercent   int    `json:"current_percent" yaml:"current_percent"`
	ProjectedPercent int    `json:"projected_percent" yaml:"projected_percent"`
}

// WarningSummary mirrors plan.Warning for serialization.
type WarningSummary struct {
	Kind         string `json:"kind" yaml:"kind"`
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
	StrategyName string `json:"strategy_name,omitempty" yaml:"strategy_name,omitempty"`
	Needed       uint64 `json:"needed,omitempty" yaml:"needed,omitempty"`
	Available    uint64 `json:"available,omitempty" yaml:"available,omitempty"`
	Reason       string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ExecutionSummary mirrors executor.Result for serialization.
type ExecutionSummary struct {
	FilesMoved  int      `json:"files_moved" yaml:"files_moved"`
	BytesMoved  uint64   `json:"bytes_moved" yaml:"bytes_moved"`
	FilesStayed int      `json:"files_stayed" yaml:"files_stayed"`
	Errors      []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Summary is the single struct serialized for both --format json and
// --format yaml. The text summary (Text) is rendered from the plan itself,
// not from a Summary.
type Summary struct {
	Decisions      []DecisionSummary  `json:"decisions" yaml:"decisions"`
	ProjectedUsage []TierUsageSummary `json:"projected_usage" yaml:"projected_usage"`
	Warnings       []WarningSummary   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Execution      *ExecutionSummary  `json:"execution,omitempty" yaml:"execution,omitempty"`
	DryRun         bool               `json:"dry_run" yaml:"dry_run"`
}

// BuildSummary flattens a plan (and optional execution result) into a
// Summary. execResult is nil for a dry-run.
func BuildSummary(p *plan.BalancingPlan, dryRun bool, execResult *executor.Result) Summary {
	s := Summary{DryRun: dryRun}
	for _, d := range p.Decisions {
		s.Decisions = append(s.Decisions, DecisionSummary{
			Path: d.File.Path, Kind: d.Kind.String(), FromTier: d.FromTier, ToTier: d.ToTier,
			StrategyName: d.StrategyName, StrategyPriority: d.StrategyPriority,
		})
	}
	for _, u := range p.ProjectedUsage {
		s.ProjectedUsage = append(s.ProjectedUsage, TierUsageSummary{
			TierName: u.TierName, CurrentUsed: u.CurrentUsed, CurrentFree: u.CurrentFree,
			ProjectedUsed: u.ProjectedUsed, ProjectedFree: u.ProjectedFree,
			CurrentPercent: u.CurrentPercent, ProjectedPercent: u.ProjectedPercent,
		})
	}
	for _, w := range p.Warnings {
		s.Warnings = append(s.Warnings, WarningSummary{
			Kind: w.Kind.String(), Path: warningPath(w), StrategyName: w.StrategyName,
			Needed: w.Needed, Available: w.Available, Reason: w.Reason,
		})
	}
	if execResult != nil {
		es := &ExecutionSummary{
			FilesMoved: execResult.FilesMoved, BytesMoved: execResult.BytesMoved, FilesStayed: execResult.FilesStayed,
		}
		for _, e := range execResult.Errors {
			es.Errors = append(es.Errors, e.Error())
		}
		s.Execution = es
	}
	return s
}

func warningPath(w plan.Warning) string {
	if w.File != nil {
		return w.File.Path
	}
	return ""
}

// JSON writes s as indented JSON.
func JSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// YAML writes s as YAML.
func YAML(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}

// Text writes the human-readable plan/execution summary: total counts by
// kind, a per-tier decision table, projected usage, warnings,
// and the execution result when present.
func Text(w io.Writer, p *plan.BalancingPlan, execResult *executor.Result) error {
	stay, promote, demote := len(p.FilesOf(plan.Stay)), len(p.FilesOf(plan.Promote)), len(p.FilesOf(plan.Demote))
	fmt.Fprintf(w, "plan: %d stay, %d promote, %d demote\n", stay, promote, demote)

	if len(p.Decisions) > 0 {
		fmt.Fprintln(w, "\nper-tier breakdown:")
		breakdown := tierBreakdown(p.Decisions)
		tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "TIER\tSTAY\tPROMOTE-IN\tDEMOTE-IN")
		for _, name := range sortedTierKeys(breakdown) {
			c := breakdown[name]
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", name, c.stay, c.promoteIn, c.demoteIn)
		}
		tw.Flush()
	}

	if len(p.ProjectedUsage) > 0 {
		fmt.Fprintln(w, "\nprojected usage:")
		for _, u := range p.ProjectedUsage {
			fmt.Fprintf(w, "  %s: %d%% -> %d%%\n", u.TierName, u.CurrentPercent, u.ProjectedPercent)
		}
	}

	for _, warn := range p.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.String())
	}

	if execResult != nil {
		fmt.Fprintf(w, "\nexecuted: %d moved (%d bytes), %d stayed, %d errors\n",
			execResult.FilesMoved, execResult.BytesMoved, execResult.FilesStayed, len(execResult.Errors))
		for _, e := range execResult.Errors {
			fmt.Fprintf(w, "  error: %s\n", e.Error())
		}
	}
	return nil
}

type tierCounts struct {
	stay, promoteIn, demoteIn int
}

func tierBreakdown(decisions []plan.Decision) map[string]tierCounts {
	m := make(map[string]tierCounts)
	bump := func(name string, f func(*tierCounts)) {
		if name == "" {
			return
		}
		c := m[name]
		f(&c)
		m[name] = c
	}
	for _, d := range decisions {
		switch d.Kind {
		case plan.Stay:
			bump(d.FromTier, func(c *tierCounts) { c.stay++ })
		case plan.Promote:
			bump(d.ToTier, func(c *tierCounts) { c.promoteIn++ })
		case plan.Demote:
			bump(d.ToTier, func(c *tierCounts) { c.demoteIn++ })
		}
	}
	return m
}

func sortedTierKeys(breakdown map[string]tierCounts) []string {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
