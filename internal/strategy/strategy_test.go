package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiersync/tiersync/internal/condition"
	"github.com/tiersync/tiersync/internal/plan"
	"github.com/tiersync/tiersync/internal/record"
	"github.com/tiersync/tiersync/internal/tier"
)

func mustTier(t *testing.T, name string, priority uint, max, min *int) *tier.Tier {
	t.Helper()
	tr, err := tier.New(name, t.TempDir(), priority, max, min)
	require.NoError(t, err)
	return tr
}

func TestSelect_PicksGreatestPriority(t *testing.T) {
	t.Parallel()
	f := record.New("/t/x.mkv", 1, time.Time{}, time.Time{})
	ctx := &condition.PlanningContext{}

	low := &Strategy{Name: "low", Priority: 1, Conditions: []condition.Condition{condition.AlwaysTrue{}}}
	high := &Strategy{Name: "high", Priority: 5, Conditions: []condition.Condition{condition.AlwaysTrue{}}}

	got := Select([]*Strategy{low, high}, f, ctx)
	assert.Equal(t, "high", got.Name)
}

func TestSelect_TieBreaksByName(t *testing.T) {
	t.Parallel()
	f := record.New("/t/x.mkv", 1, time.Time{}, time.Time{})
	ctx := &condition.PlanningContext{}

	b := &Strategy{Name: "bravo", Priority: 5, Conditions: []condition.Condition{condition.AlwaysTrue{}}}
	a := &Strategy{Name: "alpha", Priority: 5, Conditions: []condition.Condition{condition.AlwaysTrue{}}}

	got := Select([]*Strategy{b, a}, f, ctx)
	assert.Equal(t, "alpha", got.Name)
}

func TestSelect_NoMatchFallback(t *testing.T) {
	t.Parallel()
	f := record.New("/t/x.mkv", 1, time.Time{}, time.Time{})
	ctx := &condition.PlanningContext{}

	never := &Strategy{Name: "never", Priority: 99, Conditions: []condition.Condition{
		condition.Size{MaxMB: ptrF(0)},
	}}

	got := Select([]*Strategy{never}, f, ctx)
	assert.Same(t, NoMatch, got)
	assert.Equal(t, "no-match", got.Name)
	assert.EqualValues(t, 0, got.Priority)
}

func ptrF(f float64) *float64 { return &f }

func TestDecide_StayAction(t *testing.T) {
	t.Parallel()
	cache := mustTier(t, "cache", 1, nil, nil)
	f := record.New("/t/x.mkv", 1, time.Time{}, time.Time{})
	s := &Strategy{Name: "pin", Priority: 10, Action: StayAction}

	d, blocked, warn := Decide(f, cache, s, tier.Set{cache}, map[string]uint64{})
	assert.Equal(t, plan.Stay, d.Kind)
	assert.Nil(t, blocked)
	assert.Nil(t, warn)
}

func TestDecide_PromoteWhenIdealIsFasterTier(t *testing.T) {
	t.Parallel()
	cache := mustTier(t, "cache", 1, nil, nil)
	storage := mustTier(t, "storage", 10, nil, nil)
	f := record.New("/t/x.mkv", 100, time.Time{}, time.Time{})
	s := &Strategy{Name: "promote-active", Priority: 10, PreferredTiers: []string{"cache"}}

	free := map[string]uint64{"cache": 1000, "storage": 1000}
	d, blocked, warn := Decide(f, storage, s, tier.Set{cache, storage}, free)
	assert.Equal(t, plan.Promote, d.Kind)
	assert.Equal(t, "cache", d.ToTier)
	assert.Nil(t, blocked)
	assert.Nil(t, warn)
}

func TestDecide_DemoteWhenCanDemote(t *testing.T) {
	t.Parallel()
	cache := mustTier(t, "cache", 1, nil, nil)
	storage := mustTier(t, "storage", 10, nil, nil)
	f := record.New("/t/x.mkv", 100, time.Time{}, time.Time{})
	s := &Strategy{Name: "archive", Priority: 10, PreferredTiers: []string{"storage"}}

	free := map[string]uint64{"cache": 1000, "storage": 1000}
	d, _, _ := Decide(f, cache, s, tier.Set{cache, storage}, free)
	assert.Equal(t, plan.Demote, d.Kind)
	assert.Equal(t, "storage", d.ToTier)
}

func TestDecide_DemoteBlockedByMinUsageStaysInstead(t *testing.T) {
	t.Parallel()
	min := 90
	cache := mustTier(t, "cache", 1, nil, &min) // live usage is that of the filesystem holding the tmpdir, assumed below 90
	storage := mustTier(t, "storage", 10, nil, nil)
	f := record.New("/t/x.mkv", 100, time.Time{}, time.Time{})
	s := &Strategy{Name: "archive", Priority: 10, PreferredTiers: []string{"storage"}}

	free := map[string]uint64{"cache": 1000, "storage": 1000}
	d, _, _ := Decide(f, cache, s, tier.Set{cache, storage}, free)
	assert.Equal(t, plan.Stay, d.Kind, "demotion blocked by min_usage_percent must fall back to Stay")
}

func TestDecide_NoRoomProducesBlockedAndRequiredWarning(t *testing.T) {
	t.Parallel()
	cache := mustTier(t, "cache", 1, nil, nil)
	storage := mustTier(t, "storage", 10, nil, nil)
	f := record.New("/t/x.mkv", 2000, time.Time{}, time.Time{})
	s := &Strategy{Name: "promote-active", Priority: 10, PreferredTiers: []string{"cache"}, Required: true}

	free := map[string]uint64{"cache": 100, "storage": 1000} // cache can't fit 2000 bytes
	d, blocked, warn := Decide(f, storage, s, tier.Set{cache, storage}, free)
	assert.Equal(t, plan.Stay, d.Kind)
	require.NotNil(t, blocked)
	assert.Equal(t, "cache", blocked.DesiredTier)
	require.NotNil(t, warn)
	assert.Equal(t, plan.RequiredStrategyFailed, warn.Kind)
}

func TestDecide_NoRoomButAlreadyDesiredTierNoBlockedPlacement(t *testing.T) {
	t.Parallel()
	cache := mustTier(t, "cache", 1, nil, nil)
	f := record.New("/t/x.mkv", 2000, time.Time{}, time.Time{})
	s := &Strategy{Name: "stay-put", Priority: 10, PreferredTiers: []string{"cache"}}

	free := map[string]uint64{"cache": 100}
	_, blocked, _ := Decide(f, cache, s, tier.Set{cache}, free)
	assert.Nil(t, blocked, "no BlockedPlacement when the desired tier is already the current tier")
}

func TestDecide_SameTierIsStay(t *testing.T) {
	t.Parallel()
	cache := mustTier(t, "cache", 1, nil, nil)
	f := record.New("/t/x.mkv", 10, time.Time{}, time.Time{})
	s := &Strategy{Name: "noop", Priority: 5, PreferredTiers: []string{"cache"}}

	free := map[string]uint64{"cache": 1000}
	d, _, _ := Decide(f, cache, s, tier.Set{cache}, free)
	assert.Equal(t, plan.Stay, d.Kind)
}
