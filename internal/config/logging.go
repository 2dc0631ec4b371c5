// Package config provides configuration loading, validation, and logging
// setup for the tiersync CLI. This package is a foundational cross-cutting
// concern used by every other internal package.
//
// The logging subsystem uses Go's stdlib log/slog package exclusively. All
// log output is directed to os.Stderr to keep stdout clean for the
// --format json|yaml machine-readable summary.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog default logger with the given log
// level and format. Format should be "json" for JSON output or anything
// else (including empty string) for human-readable text. Output always goes
// to os.Stderr.
//
// Safe to call multiple times; each call replaces the previous global
// logger configuration.
func SetupLogging(level slog.Level, format string) {
	SetupLoggingWithWriter(level, format, os.Stderr)
}

// SetupLoggingWithWriter is SetupLogging with an injectable writer, used by
// tests that capture log output.
func SetupLoggingWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ResolveLogLevel determines the slog.Level from CLI flags and environment.
// Priority, highest to lowest:
//
//  1. TIERSYNC_DEBUG=1 -> slog.LevelDebug
//  2. verbose -> slog.LevelDebug
//  3. quiet -> slog.LevelError
//  4. default -> slog.LevelInfo
func ResolveLogLevel(verbose, quiet bool) slog.Level {
	if os.Getenv("TIERSYNC_DEBUG") == "1" {
		return slog.LevelDebug
	}
	if verbose {
		return slog.LevelDebug
	}
	if quiet {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ResolveLogFormat reads TIERSYNC_LOG_FORMAT and returns "json" or "text".
func ResolveLogFormat() string {
	if strings.EqualFold(os.Getenv("TIERSYNC_LOG_FORMAT"), "json") {
		return "json"
	}
	return "text"
}

// NewLogger returns a child of the global default logger tagged with a
// "component" attribute.
func NewLogger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
