// Package tier implements the Tier abstraction: a directory root assigned a
// priority rank and an optional [min, max] usage-percent band.
//
// Terminology: a tier is simply a local directory serviced by some
// filesystem. Lower priority numbers are faster/costlier/more preferred;
// higher numbers are slower/cheaper. Tiers are constructed once at
// configuration load time and are immutable for the life of the process —
// the only thing that changes between calls is the live capacity sample,
// which is never cached across a planning run (§4.1 of the spec this package
// implements).
package tier

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/disk"
)

// Tier names a directory root, a priority rank, and an optional capacity
// band. Once constructed, a Tier's fields never change; only its sampled
// Capacity does.
type Tier struct {
	Name     string
	RootPath string
	Priority uint

	// MaxUsagePercent and MinUsagePercent are both optional (nil = unset).
	// When both are set, MaxUsagePercent invariant requires Min < Max; this
	// is enforced once in New.
	MaxUsagePercent *int
	MinUsagePercent *int

	// fixedCapacity, when set, overrides the live filesystem sample. Only
	// NewFixed populates it; real tiers always sample live.
	fixedCapacity *Capacity
}

// Capacity is a single sample of a tier's filesystem usage. It is never
// cached across a planning run — every call to (*Tier).Capacity re-queries
// the filesystem.
type Capacity struct {
	TotalBytes uint64
	FreeBytes  uint64
	UsedBytes  uint64
	// UsagePercent is (Total-Free)/Total*100, truncated toward zero.
	UsagePercent int
}

// New validates and constructs a Tier. It fails if rootPath does not exist,
// is not a directory, or if the usage-percent bounds are invalid: each bound
// must fall in its documented range (max: 1..=100, min: 0..=100) and, when
// both are set, min must be strictly less than max.
func New(name, rootPath string, priority uint, maxUsagePercent, minUsagePercent *int) (*Tier, error) {
	if name == "" {
		return nil, fmt.Errorf("tier: name must not be empty")
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("tier %s: root path %s: %w", name, rootPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tier %s: root path %s is not a directory", name, rootPath)
	}
	if maxUsagePercent != nil && (*maxUsagePercent < 1 || *maxUsagePercent > 100) {
		return nil, fmt.Errorf("tier %s: max_usage_percent %d out of range [1,100]", name, *maxUsagePercent)
	}
	if minUsagePercent != nil && (*minUsagePercent < 0 || *minUsagePercent > 100) {
		return nil, fmt.Errorf("tier %s: min_usage_percent %d out of range [0,100]", name, *minUsagePercent)
	}
	if maxUsagePercent != nil && minUsagePercent != nil && *minUsagePercent >= *maxUsagePercent {
		return nil, fmt.Errorf("tier %s: min_usage_percent (%d) must be less than max_usage_percent (%d)",
			name, *minUsagePercent, *maxUsagePercent)
	}
	return &Tier{
		Name:            name,
		RootPath:        rootPath,
		Priority:        priority,
		MaxUsagePercent: maxUsagePercent,
		MinUsagePercent: minUsagePercent,
	}, nil
}

// NewFixed constructs a Tier whose Capacity is pinned at construction time
// instead of sampled from a real filesystem. It skips the root-path
// existence check New performs, since fixed tiers need no backing
// directory. Used by planner scenario tests that require exact,
// reproducible total/free byte counts.
func NewFixed(name string, priority uint, capacity Capacity, maxUsagePercent, minUsagePercent *int) *Tier {
	return &Tier{
		Name:            name,
		Priority:        priority,
		MaxUsagePercent: maxUsagePercent,
		MinUsagePercent: minUsagePercent,
		fixedCapacity:   &capacity,
	}
}

// Capacity samples the tier's filesystem usage. A failed query (the path
// disappeared, a stale NFS handle, etc.) reports FreeBytes=0, TotalBytes=1,
// UsedBytes=1, UsagePercent=100 so downstream division stays defined and the
// tier conservatively appears full rather than infinitely empty.
func (t *Tier) Capacity() Capacity {
	if t.fixedCapacity != nil {
		return *t.fixedCapacity
	}
	usage, err := disk.Usage(t.RootPath)
	if err != nil || usage.Total == 0 {
		return Capacity{TotalBytes: 1, FreeBytes: 0, UsedBytes: 1, UsagePercent: 100}
	}
	used := usage.Total - usage.Free
	return Capacity{
		TotalBytes:   usage.Total,
		FreeBytes:    usage.Free,
		UsedBytes:    used,
		UsagePercent: percentTruncated(used, usage.Total),
	}
}

// TotalBytes is a convenience accessor equivalent to Capacity().TotalBytes.
func (t *Tier) TotalBytes() uint64 { return t.Capacity().TotalBytes }

// FreeBytes is a convenience accessor equivalent to Capacity().FreeBytes.
func (t *Tier) FreeBytes() uint64 { return t.Capacity().FreeBytes }

// UsagePercent is a convenience accessor equivalent to Capacity().UsagePercent.
func (t *Tier) UsagePercent() int { return t.Capacity().UsagePercent }

// CanAccept is the admission test used throughout planning. simulatedFree is
// the planner's running account of this tier's free bytes, not the live
// sample — it is the authority during planning (§4.1).
func (t *Tier) CanAccept(size uint64, simulatedFree uint64) bool {
	if simulatedFree < size {
		return false
	}
	if t.MaxUsagePercent == nil {
		return true
	}
	cap := t.Capacity()
	if cap.TotalBytes == 0 {
		return false
	}
	projectedUsed := cap.TotalBytes - (simulatedFree - size)
	return percentTruncated(projectedUsed, cap.TotalBytes) <= *t.MaxUsagePercent
}

// CanDemote reports whether files may be moved off this tier to make room
// elsewhere. It consults the *live* usage percent, not the simulated one:
// the gate exists to avoid over-draining a warm tier when nothing
// higher-priority is currently arriving, which is a property of the tier's
// actual state, not the planner's in-progress simulation.
func (t *Tier) CanDemote() bool {
	if t.MinUsagePercent == nil {
		return true
	}
	return t.Capacity().UsagePercent >= *t.MinUsagePercent
}

func (t *Tier) String() string {
	return fmt.Sprintf("tier[%s priority=%d root=%s]", t.Name, t.Priority, t.RootPath)
}

// percentTruncated computes used/total*100 truncated toward zero, matching
// the spec's required floating-point-division-then-truncate semantics.
func percentTruncated(used, total uint64) int {
	if total == 0 {
		return 100
	}
	return int(float64(used) / float64(total) * 100)
}

// PercentTruncated exports percentTruncated for callers (internal/planner's
// projected-usage reporting) that need the same truncation rule outside this
// package.
func PercentTruncated(used, total uint64) int {
	return percentTruncated(used, total)
}

// Set is an ordered collection of tiers, typically sorted or looked up by
// name during planning.
type Set []*Tier

// ByName builds a name -> *Tier index from the set. Caller must have already
// validated name uniqueness (config.Validate does this at load time).
func (s Set) ByName() map[string]*Tier {
	m := make(map[string]*Tier, len(s))
	for _, t := range s {
		m[t.Name] = t
	}
	return m
}

// SortedPaths returns the tiers' root paths sorted ascending; used by
// internal/lock to build a deterministic hash key for a tier set.
func (s Set) SortedPaths() []string {
	paths := make([]string, len(s))
	for i, t := range s {
		paths[i] = t.RootPath
	}
	sortStrings(paths)
	return paths
}

// sortStrings is a tiny insertion sort, adequate for the handful of tiers a
// real deployment configures (mirrors the small-N insertion sort the teacher
// uses for tier definitions in relevance.sortTierDefinitions).
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j] > key {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}
