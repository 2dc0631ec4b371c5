// Package executor implements the Executor (§4.8): it walks a plan's
// decisions in order, resolves tier objects, computes destination paths,
// and drives the Mover, accumulating per-file errors without aborting the
// batch.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tiersync/tiersync/internal/mover"
	"github.com/tiersync/tiersync/internal/plan"
	"github.com/tiersync/tiersync/internal/tier"
)

// Error is a per-file execution failure; the Executor accumulates these and
// continues with the next decision (§7).
type Error struct {
	File     string
	FromTier string
	ToTier   string
	Message  string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s -> %s: %s", e.File, e.FromTier, e.ToTier, e.Message)
}

// Result is the Executor's summary of a completed (or interrupted) run.
type Result struct {
	FilesMoved  int
	BytesMoved  uint64
	FilesStayed int
	Errors      []Error
}

// Executor drives a Mover over a BalancingPlan.
type Executor struct {
	Tiers  tier.Set
	Mover  *mover.Mover
	Logger *slog.Logger
}

// Execute walks p's decisions in plan order. It polls ctx between
// decisions (§5's cancellation contract) and stops early if ctx is
// cancelled, recording a single "run interrupted" error for the first
// decision it did not execute; the decisions after that one are not
// recorded.
func (e *Executor) Execute(ctx context.Context, p *plan.BalancingPlan) Result {
	byName := e.Tiers.ByName()
	var result Result

	for _, d := range p.Decisions {
		select {
		case <-ctx.Done():
			result.Errors = append(result.Errors, Error{
				File: d.File.Path, FromTier: d.FromTier, ToTier: d.ToTier,
				Message: "run interrupted: " + ctx.Err().Error(),
			})
			return result
		default:
		}

		if d.Kind == plan.Stay {
			result.FilesStayed++
			continue
		}

		fromTier, ok := byName[d.FromTier]
		if !ok {
			e.fail(&result, d, "unknown from-tier")
			continue
		}
		toTier, ok := byName[d.ToTier]
		if !ok {
			e.fail(&result, d, "unknown to-tier")
			continue
		}

		rel, err := filepath.Rel(fromTier.RootPath, d.File.Path)
		if err != nil {
			e.fail(&result, d, err.Error())
			continue
		}
		dst := filepath.Join(toTier.RootPath, rel)

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			e.fail(&result, d, err.Error())
			continue
		}

		moveRes, err := e.Mover.MoveFile(ctx, d.File.Path, dst, fromTier.RootPath)
		if err != nil {
			e.fail(&result, d, err.Error())
			continue
		}
		result.FilesMoved++
		result.BytesMoved += moveRes.BytesMoved
	}
	return result
}

func (e *Executor) fail(result *Result, d plan.Decision, message string) {
	result.Errors = append(result.Errors, Error{
		File: d.File.Path, FromTier: d.FromTier, ToTier: d.ToTier, Message: message,
	})
	if e.Logger != nil {
		e.Logger.Error("move failed", "file", d.File.Path, "from", d.FromTier, "to", d.ToTier, "error", message)
	}
}
