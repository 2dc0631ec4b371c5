// Package record defines FileRecord, the immutable descriptor of a single
// file living on a tier.
package record

import "time"

// FileRecord is an immutable descriptor of a file on a tier. Equality and
// hashing are defined on Path alone: two records naming the same path
// compare equal regardless of their timestamps (see Equal and the map-key
// usage throughout internal/planner).
//
// A FileRecord is shared, never copied: every package that needs to pass one
// around takes or stores a *FileRecord. Go's garbage collector is the
// reference count — there is no manual retain/release, which is the natural
// mapping of the spec's "reference-counted, shared without cloning"
// requirement onto a garbage-collected language (see DESIGN.md's Open
// Question notes).
type FileRecord struct {
	Path       string
	SizeBytes  uint64
	ModifiedAt time.Time
	AccessedAt time.Time
}

// New constructs a FileRecord. It performs no I/O and no validation;
// callers (internal/scan) are responsible for populating accurate stat data.
func New(path string, sizeBytes uint64, modifiedAt, accessedAt time.Time) *FileRecord {
	return &FileRecord{
		Path:       path,
		SizeBytes:  sizeBytes,
		ModifiedAt: modifiedAt,
		AccessedAt: accessedAt,
	}
}

// Equal compares two records by Path alone, per the spec's equality
// contract. A nil receiver or argument is never equal to anything.
func (r *FileRecord) Equal(other *FileRecord) bool {
	if r == nil || other == nil {
		return false
	}
	return r.Path == other.Path
}

// AgeAt returns how long ago the file was modified, relative to now. A
// negative duration means the file's modification time is in the future.
func (r *FileRecord) AgeAt(now time.Time) time.Duration {
	return now.Sub(r.ModifiedAt)
}

// SizeMB returns the file size in megabytes (1024*1024 bytes) as a float64
// with its fractional part kept, matching the Size condition's unit
// contract (§4.2).
func (r *FileRecord) SizeMB() float64 {
	return float64(r.SizeBytes) / (1024 * 1024)
}
