package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	_, err := ResolvePath("")
	require.Error(t, err)

	abs, err := ResolvePath("./box")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	abs, err = ResolvePath("/tmp/box/../forked")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/forked", abs)
}

func TestResolvePath_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	abs, err := ResolvePath("~/forked")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "forked"), abs)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))

	// Idempotent on an existing dir.
	require.NoError(t, EnsureDir(dir))
}

func TestEnsureParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "forked.log")

	require.NoError(t, EnsureParent(path))
	assert.True(t, DirExists(filepath.Dir(path)))
	assert.False(t, FileExists(path), "only the parent is created")
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.json")))
	assert.False(t, FileExists(dir), "directories are not files")
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
}
