package tier

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(i int) *int { return &i }

func TestNew_RejectsMissingPath(t *testing.T) {
	t.Parallel()
	_, err := New("cache", "/no/such/path/surely", 1, nil, nil)
	require.Error(t, err)
}

func TestNew_RejectsNonDirectory(t *testing.T) {
	t.Parallel()
	f := t.TempDir() + "/file.txt"
	require.NoError(t, writeFile(f))
	_, err := New("cache", f, 1, nil, nil)
	require.Error(t, err)
}

func TestNew_RejectsInvertedBand(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := New("cache", dir, 1, ptr(50), ptr(80))
	require.Error(t, err)
}

func TestNew_RejectsOutOfRangeBounds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := New("cache", dir, 1, ptr(0), nil)
	require.Error(t, err, "max_usage_percent must be in [1,100]")

	_, err = New("cache", dir, 1, nil, ptr(101))
	require.Error(t, err, "min_usage_percent must be in [0,100]")
}

func TestNew_AcceptsValidBand(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tr, err := New("cache", dir, 1, ptr(80), ptr(30))
	require.NoError(t, err)
	assert.Equal(t, "cache", tr.Name)
	assert.EqualValues(t, 1, tr.Priority)
}

func TestCanAccept_NoMaxAlwaysAccepts(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tr, err := New("storage", dir, 10, nil, nil)
	require.NoError(t, err)

	assert.True(t, tr.CanAccept(500, 1000))
	assert.False(t, tr.CanAccept(1500, 1000), "insufficient simulated free space")
}

func TestCanDemote_NoMinAlwaysAllows(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tr, err := New("cache", dir, 1, nil, nil)
	require.NoError(t, err)
	assert.True(t, tr.CanDemote())
}

func TestPercentTruncated_BoundaryAtCeiling(t *testing.T) {
	t.Parallel()
	// Percentages truncate toward zero: exactly at the ceiling reads as the
	// ceiling, and so does anything short of the next whole percent.
	assert.Equal(t, 80, percentTruncated(800, 1000))
	assert.Equal(t, 80, percentTruncated(801, 1000)) // still truncates to 80
	assert.Equal(t, 81, percentTruncated(810, 1000))
}

func TestSet_ByName(t *testing.T) {
	t.Parallel()
	dir1, dir2 := t.TempDir(), t.TempDir()
	a, err := New("cache", dir1, 1, nil, nil)
	require.NoError(t, err)
	b, err := New("storage", dir2, 10, nil, nil)
	require.NoError(t, err)

	set := Set{a, b}
	byName := set.ByName()
	assert.Same(t, a, byName["cache"])
	assert.Same(t, b, byName["storage"])
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o644)
}
