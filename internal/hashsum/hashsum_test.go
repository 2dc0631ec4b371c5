package hashsum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_IdenticalContentHashesEqual(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	content := []byte("the quick brown fox jumps over the lazy dog, repeated for good measure")
	require.NoError(t, os.WriteFile(a, content, 0o644))
	require.NoError(t, os.WriteFile(b, content, 0o644))

	ha, err := File(a)
	require.NoError(t, err)
	hb, err := File(b)
	require.NoError(t, err)

	assert.True(t, ha.Equal(hb))
	assert.Equal(t, ha.String(), hb.String())
}

func TestFile_DifferentContentHashesDiffer(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(a, []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("beta"), 0o644))

	ha, err := File(a)
	require.NoError(t, err)
	hb, err := File(b)
	require.NoError(t, err)

	assert.False(t, ha.Equal(hb))
}

func TestFile_MissingFileErrors(t *testing.T) {
	t.Parallel()
	_, err := File(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
