package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	storageDir := filepath.Join(dir, "storage")
	require.NoError(t, os.MkdirAll(cacheDir, 0o755))
	require.NoError(t, os.MkdirAll(storageDir, 0o755))

	path := filepath.Join(dir, "tiersync.yaml")
	content := `
tiers:
  - name: cache
    path: ` + cacheDir + `
    priority: 1
  - name: storage
    path: ` + storageDir + `
    priority: 10
strategies:
  - name: hot
    priority: 90
    preferred_tiers: [cache]
    conditions:
      - type: always_true
mover:
  type: dry_run
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndBuild_HappyPath(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "")
	resolved, err := LoadAndBuild(context.Background(), path, nil)
	require.NoError(t, err)
	require.Len(t, resolved.Tiers, 2)
	require.Len(t, resolved.Strategies, 1)
	assert.Equal(t, "cache", resolved.Tiers[0].Name)
}

func TestLoadAndBuild_UnknownTierReferenceReported(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	require.NoError(t, os.MkdirAll(cacheDir, 0o755))
	path := filepath.Join(dir, "tiersync.yaml")
	content := `
tiers:
  - name: cache
    path: ` + cacheDir + `
    priority: 1
strategies:
  - name: hot
    priority: 90
    preferred_tiers: [nonexistent]
    conditions:
      - type: always_true
mover:
  type: dry_run
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadAndBuild(context.Background(), path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestResolveLogLevel_VerboseAndQuietAndEnv(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, ResolveLogLevel(false, false))
	assert.Equal(t, slog.LevelDebug, ResolveLogLevel(true, false))
	assert.Equal(t, slog.LevelError, ResolveLogLevel(false, true))

	t.Setenv("TIERSYNC_DEBUG", "1")
	assert.Equal(t, slog.LevelDebug, ResolveLogLevel(false, true))
}

func TestResolveLogFormat_DefaultsToText(t *testing.T) {
	assert.Equal(t, "text", ResolveLogFormat())
	t.Setenv("TIERSYNC_LOG_FORMAT", "json")
	assert.Equal(t, "json", ResolveLogFormat())
}
