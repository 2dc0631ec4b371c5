// Package condition implements the Condition contract (§4.2): pure, I/O-free
// boolean predicates over (FileRecord, PlanningContext).
//
// The spec allows either a closed sum over known variants or an interface
// with a registered constructor map; this package picks the interface form
// because strategy.Strategy composes conditions as an ordered conjunction
// and the conjunction itself needs no knowledge of which concrete variant it
// holds — exactly the shape internal/relevance.TierMatcher uses for pattern
// lists in the teacher codebase this package is modeled on.
package condition

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/tiersync/tiersync/internal/record"
	"github.com/tiersync/tiersync/internal/stats"
)

// PlanningContext carries the per-run state a Condition may need beyond the
// file itself. Missing fields (zero CurrentTierRoot, nil GlobalStats) never
// cause a panic — every condition fails closed when its required context is
// absent (§4.2).
type PlanningContext struct {
	Now             time.Time
	CurrentTierRoot string
	GlobalStats     *stats.GlobalStats
}

// Condition is a pure, deterministic, I/O-free predicate.
type Condition interface {
	// Matches reports whether file satisfies the condition under ctx.
	Matches(file *record.FileRecord, ctx *PlanningContext) bool
	// String returns a short human-readable description, used in plan
	// summaries and log lines.
	String() string
}

// Mode selects whitelist or blacklist semantics for set-membership
// conditions (Extension, FilenameContains, PathPrefix).
type Mode int

const (
	Whitelist Mode = iota
	Blacklist
)

func (m Mode) String() string {
	if m == Blacklist {
		return "blacklist"
	}
	return "whitelist"
}

// All reports whether every condition in conds matches file. An empty
// conjunction matches everything, consistent with Strategy's "conjunction of
// conditions" contract where a Strategy with no conditions always applies.
func All(conds []Condition, file *record.FileRecord, ctx *PlanningContext) bool {
	for _, c := range conds {
		if !c.Matches(file, ctx) {
			return false
		}
	}
	return true
}

// --- Age ---------------------------------------------------------------

// Age matches when now-modified_at falls in the closed [MinHours, MaxHours]
// band. Either bound may be nil to leave it open. Files modified in the
// future never match (§8 property 10).
type Age struct {
	MinHours *float64
	MaxHours *float64
}

func (a Age) Matches(file *record.FileRecord, ctx *PlanningContext) bool {
	age := ctx.Now.Sub(file.ModifiedAt)
	if age < 0 {
		return false
	}
	hours := age.Hours()
	if a.MinHours != nil && hours < *a.MinHours {
		return false
	}
	if a.MaxHours != nil && hours > *a.MaxHours {
		return false
	}
	return true
}

func (a Age) String() string { return "age" }

// --- Size ----------------------------------------------------------------

// Size matches when size_bytes/(1024*1024) falls in the closed [MinMB, MaxMB]
// band.
type Size struct {
	MinMB *float64
	MaxMB *float64
}

func (s Size) Matches(file *record.FileRecord, _ *PlanningContext) bool {
	mb := file.SizeMB()
	if s.MinMB != nil && mb < *s.MinMB {
		return false
	}
	if s.MaxMB != nil && mb > *s.MaxMB {
		return false
	}
	return true
}

func (s Size) String() string { return "file_size" }

// --- Extension -------------------------------------------------------------

// Extension tests whether the filename ends with "."+ext for any ext in
// Extensions (each stripped of a leading dot at construction time).
// Whitelist: true if any extension matches. Blacklist: true if none do.
type Extension struct {
	Extensions []string
	Mode       Mode
}

// NewExtension strips any leading dot from each extension so callers may
// pass either "mp4" or ".mp4" interchangeably.
func NewExtension(exts []string, mode Mode) Extension {
	cleaned := make([]string, len(exts))
	for i, e := range exts {
		cleaned[i] = strings.TrimPrefix(e, ".")
	}
	return Extension{Extensions: cleaned, Mode: mode}
}

func (e Extension) Matches(file *record.FileRecord, _ *PlanningContext) bool {
	name := filepath.Base(file.Path)
	anyMatch := false
	for _, ext := range e.Extensions {
		if strings.HasSuffix(name, "."+ext) {
			anyMatch = true
			break
		}
	}
	if e.Mode == Whitelist {
		return anyMatch
	}
	return !anyMatch
}

func (e Extension) String() string { return "file_extension" }

// --- FilenameContains --------------------------------------------------

// FilenameContains performs a substring test against the filename component
// only (never the directory).
type FilenameContains struct {
	Patterns      []string
	Mode          Mode
	CaseSensitive bool
}

func (f FilenameContains) Matches(file *record.FileRecord, _ *PlanningContext) bool {
	name := filepath.Base(file.Path)
	if !f.CaseSensitive {
		name = strings.ToLower(name)
	}
	anyMatch := false
	for _, p := range f.Patterns {
		pat := p
		if !f.CaseSensitive {
			pat = strings.ToLower(pat)
		}
		if strings.Contains(name, pat) {
			anyMatch = true
			break
		}
	}
	if f.Mode == Whitelist {
		return anyMatch
	}
	return !anyMatch
}

func (f FilenameContains) String() string { return "filename_contains" }

// --- PathPrefix ----------------------------------------------------------

// PathPrefix tests the file's path relative to ctx.CurrentTierRoot. A prefix
// matches only on whole path components: "down" does not match
// "downloads/x". An empty prefix matches everything under the tier root. If
// CurrentTierRoot is unset or the file is not under it, PathPrefix returns
// false regardless of Mode (§4.2).
type PathPrefix struct {
	Prefix string
	Mode   Mode
}

func (p PathPrefix) Matches(file *record.FileRecord, ctx *PlanningContext) bool {
	if ctx.CurrentTierRoot == "" {
		return false
	}
	rel, err := filepath.Rel(ctx.CurrentTierRoot, file.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	matched := matchesWholeComponentPrefix(rel, p.Prefix)
	if p.Mode == Whitelist {
		return matched
	}
	return !matched
}

func matchesWholeComponentPrefix(path, prefix string) bool {
	prefix = strings.Trim(filepath.ToSlash(prefix), "/")
	if prefix == "" {
		return true
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

func (p PathPrefix) String() string { return "path_prefix" }

// --- ActiveWindow ----------------------------------------------------------

// ActiveWindow matches iff the file's path is in
// global_stats.activity_stats.active_set. The file's path is first resolved
// to an episode identity via FileEpisode, then tested for membership in
// ActiveSet.
type ActiveWindow struct{}

func (ActiveWindow) Matches(file *record.FileRecord, ctx *PlanningContext) bool {
	if ctx.GlobalStats == nil || ctx.GlobalStats.ActivityStats == nil {
		return false
	}
	as := ctx.GlobalStats.ActivityStats
	key, ok := as.FileEpisode[file.Path]
	if !ok {
		return false
	}
	_, active := as.ActiveSet[key]
	return active
}

func (ActiveWindow) String() string { return "active_window" }

// --- AlwaysTrue ------------------------------------------------------------

// AlwaysTrue is a constant-true condition, used as the catch-all rule in a
// configuration's lowest-priority strategy.
type AlwaysTrue struct{}

func (AlwaysTrue) Matches(*record.FileRecord, *PlanningContext) bool { return true }
func (AlwaysTrue) String() string                                    { return "always_true" }
