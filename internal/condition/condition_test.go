package condition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tiersync/tiersync/internal/record"
	"github.com/tiersync/tiersync/internal/stats"
)

func fptr(f float64) *float64 { return &f }

func TestAge_FutureModifiedNeverMatches(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := record.New("/t/x.mkv", 10, now.Add(1*time.Hour), now)
	c := Age{MinHours: fptr(0)}
	assert.False(t, c.Matches(f, &PlanningContext{Now: now}))
}

func TestAge_BandInclusive(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := record.New("/t/x.mkv", 10, now.Add(-48*time.Hour), now)
	c := Age{MinHours: fptr(24), MaxHours: fptr(72)}
	assert.True(t, c.Matches(f, &PlanningContext{Now: now}))

	cOut := Age{MinHours: fptr(72)}
	assert.False(t, cOut.Matches(f, &PlanningContext{Now: now}))
}

func TestSize_Band(t *testing.T) {
	t.Parallel()
	f := record.New("/t/x.mkv", 10*1024*1024, time.Time{}, time.Time{})
	c := Size{MinMB: fptr(5), MaxMB: fptr(20)}
	assert.True(t, c.Matches(f, &PlanningContext{}))

	cOut := Size{MaxMB: fptr(5)}
	assert.False(t, cOut.Matches(f, &PlanningContext{}))
}

func TestExtension_WhitelistAndBlacklist(t *testing.T) {
	t.Parallel()
	f := record.New("/t/show.mkv", 1, time.Time{}, time.Time{})

	wl := NewExtension([]string{"mkv", ".mp4"}, Whitelist)
	assert.True(t, wl.Matches(f, &PlanningContext{}))

	bl := NewExtension([]string{"mkv"}, Blacklist)
	assert.False(t, bl.Matches(f, &PlanningContext{}))

	blOther := NewExtension([]string{"srt"}, Blacklist)
	assert.True(t, blOther.Matches(f, &PlanningContext{}))
}

func TestFilenameContains_FilenameOnly(t *testing.T) {
	t.Parallel()
	f := record.New("/downloads/Sample/movie.mkv", 1, time.Time{}, time.Time{})
	c := FilenameContains{Patterns: []string{"sample"}, Mode: Whitelist, CaseSensitive: false}
	assert.False(t, c.Matches(f, &PlanningContext{}), "must not match the directory component")

	c2 := FilenameContains{Patterns: []string{"movie"}, Mode: Whitelist}
	assert.True(t, c2.Matches(f, &PlanningContext{}))
}

func TestFilenameContains_CaseSensitivity(t *testing.T) {
	t.Parallel()
	f := record.New("/t/Movie.mkv", 1, time.Time{}, time.Time{})
	cs := FilenameContains{Patterns: []string{"movie"}, Mode: Whitelist, CaseSensitive: true}
	assert.False(t, cs.Matches(f, &PlanningContext{}))

	ci := FilenameContains{Patterns: []string{"movie"}, Mode: Whitelist, CaseSensitive: false}
	assert.True(t, ci.Matches(f, &PlanningContext{}))
}

func TestPathPrefix_WholeComponentOnly(t *testing.T) {
	t.Parallel()
	ctx := &PlanningContext{CurrentTierRoot: "/tier"}
	f := record.New("/tier/downloads/x.mkv", 1, time.Time{}, time.Time{})

	down := PathPrefix{Prefix: "down", Mode: Whitelist}
	assert.False(t, down.Matches(f, ctx), "must not match on partial component")

	downloads := PathPrefix{Prefix: "downloads", Mode: Whitelist}
	assert.True(t, downloads.Matches(f, ctx))
}

func TestPathPrefix_EmptyPrefixMatchesEverything(t *testing.T) {
	t.Parallel()
	ctx := &PlanningContext{CurrentTierRoot: "/tier"}
	f := record.New("/tier/a/b/c.mkv", 1, time.Time{}, time.Time{})
	c := PathPrefix{Prefix: "", Mode: Whitelist}
	assert.True(t, c.Matches(f, ctx))
}

func TestPathPrefix_NoRootOrOutsideRootAlwaysFalse(t *testing.T) {
	t.Parallel()
	f := record.New("/tier/a.mkv", 1, time.Time{}, time.Time{})

	noRoot := PathPrefix{Prefix: "", Mode: Whitelist}
	assert.False(t, noRoot.Matches(f, &PlanningContext{}))

	outside := PathPrefix{Prefix: "", Mode: Blacklist}
	assert.False(t, outside.Matches(f, &PlanningContext{CurrentTierRoot: "/other"}),
		"blacklist mode must still return false when the file is outside the tier root")
}

func TestActiveWindow_ResolvesThroughFileEpisode(t *testing.T) {
	t.Parallel()
	key := stats.EpisodeKey{ShowNormalized: "show", Season: 1, Episode: 2}
	gs := &stats.GlobalStats{
		ActivityStats: &stats.ActivityStats{
			ActiveSet:   map[stats.EpisodeKey]struct{}{key: {}},
			FileEpisode: map[string]stats.EpisodeKey{"/t/s01e02.mkv": key},
		},
	}
	ctx := &PlanningContext{GlobalStats: gs}

	active := record.New("/t/s01e02.mkv", 1, time.Time{}, time.Time{})
	assert.True(t, ActiveWindow{}.Matches(active, ctx))

	unknown := record.New("/t/other.mkv", 1, time.Time{}, time.Time{})
	assert.False(t, ActiveWindow{}.Matches(unknown, ctx))
}

func TestActiveWindow_NilActivityStatsNeverMatches(t *testing.T) {
	t.Parallel()
	f := record.New("/t/x.mkv", 1, time.Time{}, time.Time{})
	assert.False(t, ActiveWindow{}.Matches(f, &PlanningContext{}))
}

func TestAlwaysTrue(t *testing.T) {
	t.Parallel()
	f := record.New("/t/x.mkv", 1, time.Time{}, time.Time{})
	assert.True(t, AlwaysTrue{}.Matches(f, &PlanningContext{}))
}

func TestAll_EmptyConjunctionMatchesEverything(t *testing.T) {
	t.Parallel()
	f := record.New("/t/x.mkv", 1, time.Time{}, time.Time{})
	assert.True(t, All(nil, f, &PlanningContext{}))
}

func TestAll_ShortCircuitsOnFirstFailure(t *testing.T) {
	t.Parallel()
	f := record.New("/t/x.mkv", 1, time.Time{}, time.Time{})
	conds := []Condition{AlwaysTrue{}, Size{MaxMB: fptr(0)}}
	assert.False(t, All(conds, f, &PlanningContext{}))
}
