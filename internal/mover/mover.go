// Package mover implements the Mover's atomic copy-verify-swap protocol
// (§4.7): the twelve-step sequence that either leaves dst present with
// content identical to src and src gone, or leaves src untouched and dst
// absent.
package mover

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tiersync/tiersync/internal/copier"
	"github.com/tiersync/tiersync/internal/hashsum"
	"github.com/tiersync/tiersync/internal/openfile"
)

// Kind discriminates the failure modes the core surfaces for a move (§7).
type Kind int

const (
	NotFound Kind = iota
	ResourceBusy
	CopyFailed
	SizeMismatch
	ChecksumMismatch
	SourceChangedDuringCopy
	DestinationDisappeared
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case ResourceBusy:
		return "resource_busy"
	case CopyFailed:
		return "copy_failed"
	case SizeMismatch:
		return "size_mismatch"
	case ChecksumMismatch:
		return "checksum_mismatch"
	case SourceChangedDuringCopy:
		return "source_changed_during_copy"
	case DestinationDisappeared:
		return "destination_disappeared"
	default:
		return "unknown"
	}
}

// Error is the typed failure a move reports. Err, when set, wraps the
// underlying I/O or exec failure.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mover: %s (%s): %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("mover: %s (%s)", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Result reports what MoveFile actually did.
type Result struct {
	Moved      bool
	BytesMoved uint64
}

// Mover executes the protocol. All fields are optional; zero values fall
// back to safe defaults (AlwaysClosed oracle, rsync copier, hashsum.File).
// Moves are sequential — a Mover performs no internal threading, per §4.7's
// concurrency note; the cross-process TierLock is what actually serializes
// two processes against the same tier set.
type Mover struct {
	Copier         copier.Copier
	Hasher         func(path string) (hashsum.Hash128, error)
	OpenFileOracle openfile.Oracle
	Logger         *slog.Logger
	DryRun         bool
	ExtraArgs      []string
}

// MoveFile executes the protocol for one file. srcTierRoot bounds the
// empty-ancestor sweep in step 11: the sweep never removes srcTierRoot
// itself or anything above it.
func (m *Mover) MoveFile(ctx context.Context, src, dst, srcTierRoot string) (Result, error) {
	if m.DryRun {
		m.log("dry-run move", src, dst)
		return Result{Moved: true}, nil
	}

	// Step 1: pre-flight.
	srcInfo, err := os.Stat(src)
	if err != nil {
		return Result{}, &Error{Kind: NotFound, Path: src, Err: err}
	}
	if m.oracle().IsOpen(src) {
		return Result{}, &Error{Kind: ResourceBusy, Path: src}
	}

	// Step 2: destination collision.
	if dstInfo, err := os.Stat(dst); err == nil {
		same, cmpErr := m.sameContent(src, dst, srcInfo.Size(), dstInfo.Size())
		if cmpErr != nil {
			return Result{}, &Error{Kind: CopyFailed, Path: dst, Err: cmpErr}
		}
		if same {
			if err := os.Remove(src); err != nil {
				return Result{}, &Error{Kind: CopyFailed, Path: src, Err: err}
			}
			sweepEmptyAncestors(filepath.Dir(src), srcTierRoot)
			return Result{Moved: true, BytesMoved: uint64(srcInfo.Size())}, nil
		}
		backup := fmt.Sprintf("%s.backup-%d", dst, time.Now().Unix())
		if err := os.Rename(dst, backup); err != nil {
			return Result{}, &Error{Kind: CopyFailed, Path: dst, Err: err}
		}
	}

	// Step 3: staging.
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Result{}, &Error{Kind: CopyFailed, Path: dst, Err: err}
	}
	partial := dst + ".partial"
	defer os.Remove(partial) //nolint:errcheck // no-op once renamed away on success

	if err := m.copier().Copy(ctx, src, partial, m.ExtraArgs); err != nil {
		return Result{}, &Error{Kind: CopyFailed, Path: partial, Err: err}
	}

	// Step 4: size check.
	partialInfo, err := os.Stat(partial)
	if err != nil {
		return Result{}, &Error{Kind: CopyFailed, Path: partial, Err: err}
	}
	if partialInfo.Size() != srcInfo.Size() {
		return Result{}, &Error{Kind: SizeMismatch, Path: partial}
	}

	// Step 5: content check #1.
	srcHash, err := m.hasher()(src)
	if err != nil {
		return Result{}, &Error{Kind: CopyFailed, Path: src, Err: err}
	}
	partialHash, err := m.hasher()(partial)
	if err != nil {
		return Result{}, &Error{Kind: CopyFailed, Path: partial, Err: err}
	}
	if !srcHash.Equal(partialHash) {
		return Result{}, &Error{Kind: ChecksumMismatch, Path: partial}
	}

	// Step 6: source-stability check.
	restatSrc, err := os.Stat(src)
	if err != nil {
		return Result{}, &Error{Kind: SourceChangedDuringCopy, Path: src, Err: err}
	}
	if restatSrc.Size() != srcInfo.Size() || !restatSrc.ModTime().Equal(srcInfo.ModTime()) {
		return Result{}, &Error{Kind: SourceChangedDuringCopy, Path: src}
	}

	// Step 7: busy re-check.
	if m.oracle().IsOpen(src) {
		return Result{}, &Error{Kind: ResourceBusy, Path: src}
	}

	// Step 8: content check #2.
	partialHash2, err := m.hasher()(partial)
	if err != nil {
		return Result{}, &Error{Kind: CopyFailed, Path: partial, Err: err}
	}
	if !partialHash2.Equal(srcHash) {
		return Result{}, &Error{Kind: ChecksumMismatch, Path: partial}
	}

	// Step 9: atomic swap.
	if err := os.Rename(partial, dst); err != nil {
		return Result{}, &Error{Kind: CopyFailed, Path: dst, Err: err}
	}

	// Step 10: source removal.
	if err := os.Remove(src); err != nil {
		return Result{}, &Error{Kind: CopyFailed, Path: src, Err: err}
	}

	// Step 11: empty-ancestor sweep.
	sweepEmptyAncestors(filepath.Dir(src), srcTierRoot)

	// Step 12: post-condition check.
	if _, err := os.Stat(dst); err != nil {
		return Result{}, &Error{Kind: DestinationDisappeared, Path: dst, Err: err}
	}

	return Result{Moved: true, BytesMoved: uint64(srcInfo.Size())}, nil
}

func (m *Mover) sameContent(src, dst string, srcSize, dstSize int64) (bool, error) {
	if srcSize != dstSize {
		return false, nil
	}
	srcHash, err := m.hasher()(src)
	if err != nil {
		return false, err
	}
	dstHash, err := m.hasher()(dst)
	if err != nil {
		return false, err
	}
	return srcHash.Equal(dstHash), nil
}

func (m *Mover) oracle() openfile.Oracle {
	if m.OpenFileOracle != nil {
		return m.OpenFileOracle
	}
	return openfile.AlwaysClosed{}
}

func (m *Mover) copier() copier.Copier {
	if m.Copier != nil {
		return m.Copier
	}
	return copier.Rsync{}
}

func (m *Mover) hasher() func(string) (hashsum.Hash128, error) {
	if m.Hasher != nil {
		return m.Hasher
	}
	return hashsum.File
}

func (m *Mover) log(msg, src, dst string) {
	if m.Logger != nil {
		m.Logger.Info(msg, "src", src, "dst", dst)
	}
}

// sweepEmptyAncestors walks upward from dir, removing each directory that
// is empty, stopping at the first non-empty directory or at root
// (inclusive: root itself is never removed).
func sweepEmptyAncestors(dir, root string) {
	if root == "" {
		return
	}
	root = filepath.Clean(root)
	for {
		dir = filepath.Clean(dir)
		if dir == root || dir == "." || dir == string(filepath.Separator) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
