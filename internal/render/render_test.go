package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tiersync/tiersync/internal/executor"
	"github.com/tiersync/tiersync/internal/plan"
	"github.com/tiersync/tiersync/internal/record"
	"github.com/tiersync/tiersync/internal/testutil"
)

func samplePlan() *plan.BalancingPlan {
	a := record.New("/cache/a.mkv", 100, time.Unix(0, 0), time.Unix(0, 0))
	b := record.New("/storage/b.mkv", 200, time.Unix(0, 0), time.Unix(0, 0))
	return &plan.BalancingPlan{
		Decisions: []plan.Decision{
			{Kind: plan.Demote, File: a, FromTier: "cache", ToTier: "storage", StrategyName: "cold", StrategyPriority: 10},
			{Kind: plan.Promote, File: b, FromTier: "storage", ToTier: "cache", StrategyName: "hot", StrategyPriority: 90},
		},
		ProjectedUsage: []plan.TierUsage{
			{TierName: "cache", CurrentPercent: 90, ProjectedPercent: 70},
			{TierName: "storage", CurrentPercent: 10, ProjectedPercent: 15},
		},
		Warnings: []plan.Warning{
			{Kind: plan.InsufficientSpace, File: b, StrategyName: "hot", Needed: 500, Available: 100},
		},
	}
}

func TestBuildSummary_FlattensPlanAndExecution(t *testing.T) {
	t.Parallel()
	p := samplePlan()
	execResult := &executor.Result{FilesMoved: 1, BytesMoved: 100, FilesStayed: 0}
	s := BuildSummary(p, false, execResult)

	require.Len(t, s.Decisions, 2)
	assert.Equal(t, "demote", s.Decisions[0].Kind)
	assert.Equal(t, "promote", s.Decisions[1].Kind)
	require.Len(t, s.Warnings, 1)
	assert.Equal(t, "insufficient_space", s.Warnings[0].Kind)
	require.NotNil(t, s.Execution)
	assert.Equal(t, 1, s.Execution.FilesMoved)
}

func TestJSON_RoundTripsThroughGolden(t *testing.T) {
	p := samplePlan()
	s := BuildSummary(p, true, nil)
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, s))
	testutil.Golden(t, "summary_json", buf.Bytes())
}

func TestYAML_DecodesBackToEquivalentSummary(t *testing.T) {
	p := samplePlan()
	s := BuildSummary(p, true, nil)
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, s))

	var decoded Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, s, decoded)
}

func TestText_IncludesCountsBreakdownAndWarnings(t *testing.T) {
	p := samplePlan()
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, p, nil))
	out := buf.String()

	assert.Contains(t, out, "0 stay, 1 promote, 1 demote")
	assert.Contains(t, out, "cache")
	assert.Contains(t, out, "storage")
	assert.Contains(t, out, "90% -> 70%")
	assert.Contains(t, out, "insufficient space for /storage/b.mkv")
}

func TestText_IncludesExecutionResultWhenPresent(t *testing.T) {
	p := samplePlan()
	execResult := &executor.Result{FilesMoved: 2, BytesMoved: 300, FilesStayed: 1}
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, p, execResult))
	assert.Contains(t, buf.String(), "executed: 2 moved (300 bytes), 1 stayed, 0 errors")
}
