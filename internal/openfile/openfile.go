// Package openfile implements the open-file oracle contract (§6.5): a
// best-effort answer to "does any process currently have this path open,"
// used only as a safety gate before the Mover deletes a source file.
package openfile

import (
	"log/slog"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/process"
)

// Oracle answers whether path is currently open by some process on the
// host. A negative answer or a failure to query degrades to "not in use";
// this is advisory, not authoritative (§6.5).
type Oracle interface {
	IsOpen(path string) bool
}

// ProcessOracle enumerates host processes and checks their open file
// descriptors via gopsutil. Any enumeration failure logs a warning and
// reports the path as not in use rather than blocking a move.
type ProcessOracle struct {
	Logger *slog.Logger
}

func (o ProcessOracle) IsOpen(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	procs, err := process.Processes()
	if err != nil {
		o.warn("enumerate processes", err)
		return false
	}
	for _, p := range procs {
		files, err := p.OpenFiles()
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.Path == abs {
				return true
			}
		}
	}
	return false
}

func (o ProcessOracle) warn(action string, err error) {
	if o.Logger != nil {
		o.Logger.Warn("open-file oracle degraded to not-in-use", "action", action, "error", err)
	}
}

// AlwaysClosed never reports a file as open. Used as the Mover's default
// when no oracle is configured, and in tests.
type AlwaysClosed struct{}

func (AlwaysClosed) IsOpen(string) bool { return false }
