// Package cli implements the Cobra command hierarchy for the tiersync
// binary: a root command plus the rebalance and daemon subcommands,
// wiring internal/config, internal/scan, internal/planner, and
// internal/executor into a single run.
package cli

import "fmt"

// CLIError carries a process exit code alongside its message, the same
// shape the teacher's pipeline.HarvxError uses to let main.go report a
// specific exit status. tiersync only ever needs the fatal-error code, so
// NewCLIError always sets Code to 1.
type CLIError struct {
	Code    int
	Message string
	Err     error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error { return e.Err }

// NewCLIError wraps err (which may be nil) with msg and exit code 1.
func NewCLIError(msg string, err error) *CLIError {
	return &CLIError{Code: 1, Message: msg, Err: err}
}
