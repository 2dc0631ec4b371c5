// Package scan implements the filesystem walk that feeds Pass 1 of the
// Planner (§4.4): enumerating every file under a tier root into
// FileRecords. The walk itself is a named external collaborator in the
// spec's scope (§1), but the module map still gives it a home so the rest
// of the pipeline has something concrete to call; its shape follows the
// teacher's discovery walker (filepath.WalkDir, slog, context
// cancellation) with the parallel content-loading phase dropped, since
// rebalancing never reads file bytes during a scan.
package scan

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"context"

	"github.com/tiersync/tiersync/internal/record"
	"github.com/tiersync/tiersync/internal/tier"
)

// Scanner walks tier roots into FileRecord lists.
type Scanner struct {
	Logger *slog.Logger
}

// NewScanner returns a Scanner logging under the "scan" component.
func NewScanner() *Scanner {
	return &Scanner{Logger: slog.Default().With("component", "scan")}
}

// ScanTier walks a single tier root and returns every regular file found,
// as an absolute-path FileRecord. Per-entry stat errors are logged and
// skipped rather than aborting the walk; a failure to walk the root itself
// is returned as an error.
//
// AccessedAt is populated from the same mtime as ModifiedAt: Go's stdlib
// exposes no portable atime, and no Condition variant in this package
// consumes AccessedAt, so a precise cross-platform atime is not worth the
// platform-specific syscalls it would require.
func (s *Scanner) ScanTier(ctx context.Context, root string) ([]*record.FileRecord, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving tier root %s: %w", root, err)
	}

	var files []*record.FileRecord
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			s.logger().Warn("walk error", "path", path, "error", err)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			s.logger().Warn("stat error during walk", "path", path, "error", err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		files = append(files, record.New(path, uint64(info.Size()), info.ModTime(), info.ModTime()))
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking tier root %s: %w", absRoot, walkErr)
	}
	return files, nil
}

// ScanTiers walks every tier in the set, keyed by tier name. A failure
// scanning any single tier aborts the whole enumeration: a tier the
// operator configured but that has become unreadable is a configuration
// problem, not a per-file warning.
func (s *Scanner) ScanTiers(ctx context.Context, tiers tier.Set) (map[string][]*record.FileRecord, error) {
	out := make(map[string][]*record.FileRecord, len(tiers))
	for _, t := range tiers {
		files, err := s.ScanTier(ctx, t.RootPath)
		if err != nil {
			return nil, fmt.Errorf("scanning tier %s: %w", t.Name, err)
		}
		out[t.Name] = files
		s.logger().Info("tier scanned", "tier", t.Name, "files", len(files))
	}
	return out, nil
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
