// Package stats implements the first-pass StatsAggregator (§4.9): a
// single-pass fold over all scanned FileRecords that produces per-directory
// aggregates, plus an optional merge with external viewing-activity data
// that feeds the ActiveWindow condition.
package stats

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/tiersync/tiersync/internal/record"
)

// DirStats accumulates per-directory aggregates over the files that share a
// parent directory.
type DirStats struct {
	Dir        string
	Files      []*record.FileRecord
	NewestMtime int64 // unix nanoseconds
	OldestMtime int64
	TotalSize   uint64
	FileCount   int
}

// EpisodeKey identifies a single episode of a show in the linearised index
// the spec defines: global = (season-1)*100 + episode, with episode 0
// skipped on unpacking. ShowNormalized is produced by NormalizeShowName.
type EpisodeKey struct {
	ShowNormalized string
	Season         int
	Episode        int
}

// ActivityStats holds the result of merging per-user viewing progress into a
// set of "currently active" episodes, plus the per-file mapping needed to
// test membership for a specific FileRecord (the ActiveWindow condition
// consults FileEpisode to resolve a path to the identity it should test
// against ActiveSet; this indirection is how a per-file predicate can depend
// on a per-run aggregate without becoming stateful itself, per §9's design
// note on the ActiveWindow condition).
type ActivityStats struct {
	ActiveSet   map[EpisodeKey]struct{}
	FileEpisode map[string]EpisodeKey
}

// GlobalStats is the aggregate output of the StatsAggregator: per-directory
// file statistics, plus optional activity data.
type GlobalStats struct {
	Dirs          map[string]*DirStats
	ActivityStats *ActivityStats
}

// Aggregate performs the single-pass fold over files, grouping by parent
// directory and tracking newest/oldest mtime, total size, and file count.
func Aggregate(files []*record.FileRecord) *GlobalStats {
	dirs := make(map[string]*DirStats)
	for _, f := range files {
		dir := filepath.Dir(f.Path)
		d, ok := dirs[dir]
		if !ok {
			d = &DirStats{Dir: dir, NewestMtime: f.ModifiedAt.UnixNano(), OldestMtime: f.ModifiedAt.UnixNano()}
			dirs[dir] = d
		}
		d.Files = append(d.Files, f)
		d.TotalSize += f.SizeBytes
		d.FileCount++
		if mt := f.ModifiedAt.UnixNano(); mt > d.NewestMtime {
			d.NewestMtime = mt
		} else if mt < d.OldestMtime {
			d.OldestMtime = mt
		}
	}
	return &GlobalStats{Dirs: dirs}
}

// UserProgress describes a single user's last-watched position in a show, as
// reported by the external activity oracle.
type UserProgress struct {
	User      string
	Show      string
	Season    int
	Episode   int
	FilePaths []string // files on disk identified as this (show, season, episode)
}

// MergeActivity computes the union, over all (user, show) pairs, of the
// closed inclusive range [last-backward, last+forward] in the linearised
// episode index, and returns the resulting active set together with a
// file-path -> episode-identity map built from the same progress records.
//
// global = (season-1)*100 + episode, with episode 0 skipped on unpacking
// (so a global index that would unpack to episode 0 is simply omitted from
// the active set, matching the spec's note on the linearisation).
func MergeActivity(progress []UserProgress, backwardEpisodes, forwardEpisodes int) *ActivityStats {
	active := make(map[EpisodeKey]struct{})
	fileEpisode := make(map[string]EpisodeKey)

	for _, p := range progress {
		show := NormalizeShowName(p.Show)
		lastGlobal := linearize(p.Season, p.Episode)
		for g := lastGlobal - backwardEpisodes; g <= lastGlobal+forwardEpisodes; g++ {
			season, episode, ok := delinearize(g)
			if !ok {
				continue
			}
			active[EpisodeKey{ShowNormalized: show, Season: season, Episode: episode}] = struct{}{}
		}
		key := EpisodeKey{ShowNormalized: show, Season: p.Season, Episode: p.Episode}
		for _, path := range p.FilePaths {
			fileEpisode[path] = key
		}
	}

	return &ActivityStats{ActiveSet: active, FileEpisode: fileEpisode}
}

func linearize(season, episode int) int {
	return (season-1)*100 + episode
}

// delinearize inverts linearize. Episode 0 is skipped on unpacking per the
// spec: a global index whose unpacked episode component is 0 is not a real
// episode and is reported as invalid.
func delinearize(global int) (season, episode int, ok bool) {
	season = global/100 + 1
	episode = global % 100
	if episode < 0 {
		// Negative modulo in Go: normalize into [0,100).
		episode += 100
		season--
	}
	if episode == 0 {
		return 0, 0, false
	}
	return season, episode, true
}

var yearMarker = regexp.MustCompile(`\s*([\(\[])\d{4}([\)\]])$|\s+\d{4}$`)
var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeShowName strips a trailing year marker ("(YYYY)", "[YYYY]", or
// " YYYY"), lowercases, and retains alphanumeric characters only, per §4.9.
func NormalizeShowName(name string) string {
	stripped := yearMarker.ReplaceAllString(name, "")
	lower := strings.ToLower(stripped)
	return nonAlnum.ReplaceAllString(lower, "")
}

// SortedDirs returns the aggregated directories sorted by path, useful for
// deterministic reporting/logging.
func (g *GlobalStats) SortedDirs() []*DirStats {
	out := make([]*DirStats, 0, len(g.Dirs))
	for _, d := range g.Dirs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out
}
