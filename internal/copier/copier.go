// Package copier implements the Copier external-collaborator contract
// (§6.5): an archive-mode file copy invoked via an external command, plus a
// dry-run variant for planning without touching the filesystem.
package copier

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Copier copies src to dst, preserving mode, timestamps, ownership, and
// extended attributes where the underlying tool supports it. It must never
// remove src.
type Copier interface {
	Copy(ctx context.Context, src, dst string, extraArgs []string) error
}

// Rsync shells out to an rsync-class binary in archive mode. Path defaults
// to "rsync" resolved on PATH; internal/config.Validate is responsible for
// confirming it is executable at load time (§6.1).
type Rsync struct {
	Path string
}

func (r Rsync) Copy(ctx context.Context, src, dst string, extraArgs []string) error {
	bin := r.Path
	if bin == "" {
		bin = "rsync"
	}
	args := make([]string, 0, len(extraArgs)+3)
	args = append(args, "-a", "--no-remove-source-files")
	args = append(args, extraArgs...)
	args = append(args, src, dst)

	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s -> %s: %w: %s", bin, src, dst, err, out)
	}
	return nil
}

// DryRun logs the intended copy and performs no I/O, matching the Mover's
// dry-run variant contract (§4.7).
type DryRun struct {
	Logger *slog.Logger
}

func (d DryRun) Copy(_ context.Context, src, dst string, _ []string) error {
	if d.Logger != nil {
		d.Logger.Info("dry-run copy", "src", src, "dst", dst)
	}
	return nil
}
