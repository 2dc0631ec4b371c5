package lock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLock_MutualExclusionOnSameTierSet(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tiers := []string{"/tiers/cache", "/tiers/storage"}

	g1, err := TryLock(dir, tiers)
	require.NoError(t, err)
	defer g1.Release()

	_, err = TryLock(dir, tiers)
	require.Error(t, err)
	var busy *BusyError
	assert.True(t, errors.As(err, &busy))
}

func TestTryLock_DisjointTierSetsNeverBlock(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	g1, err := TryLock(dir, []string{"/tiers/cache"})
	require.NoError(t, err)
	defer g1.Release()

	g2, err := TryLock(dir, []string{"/tiers/storage"})
	require.NoError(t, err)
	defer g2.Release()

	assert.NotEqual(t, g1.Path(), g2.Path())
}

func TestTryLock_OrderIndependentKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	g1, err := TryLock(dir, []string{"/tiers/a", "/tiers/b"})
	require.NoError(t, err)
	defer g1.Release()

	_, err = TryLock(dir, []string{"/tiers/b", "/tiers/a"})
	require.Error(t, err, "the same tier set in a different order must hash to the same lock key")
}

func TestGuard_ReleaseUnlinksFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	g, err := TryLock(dir, []string{"/tiers/cache"})
	require.NoError(t, err)
	path := g.Path()
	require.NoError(t, g.Release())

	// A second lock on the same set must now succeed cleanly.
	g2, err := TryLock(dir, []string{"/tiers/cache"})
	require.NoError(t, err)
	assert.Equal(t, path, g2.Path())
	require.NoError(t, g2.Release())
}
