package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{Email: "alice@example.com"}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultProvider, cfg.Provider)
	assert.Equal(t, DefaultDriveURL, cfg.Drive.BaseURL)
	assert.Equal(t, DefaultClientID, cfg.Drive.ClientID)
	assert.Equal(t, "alice@example.com", cfg.Drive.Email)
	assert.Equal(t, DefaultSyncInterval, cfg.Sync.Interval)
	assert.Equal(t, DefaultControlPlaneAddr, cfg.ControlPlane.Addr)
	assert.Equal(t, filepath.Join(DefaultDataDir, "import"), cfg.Import.Dir)
}

func TestConfig_ApplyDefaults_ResolvesPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := &Config{DataDir: "~/forkedbox"}
	cfg.ApplyDefaults()

	assert.Equal(t, filepath.Join(home, "forkedbox"), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, "forkedbox", "import"), cfg.Import.Dir)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults pass", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})

	t.Run("missing data dir", func(t *testing.T) {
		cfg := Default()
		cfg.DataDir = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("drive without base url", func(t *testing.T) {
		cfg := Default()
		cfg.Drive.BaseURL = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "base_url")
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		cfg := Default()
		cfg.Provider = "s3"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket")
	})
}

func TestConfig_SaveAndLoad_Roundtrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.json")

	cfg := Default()
	cfg.DataDir = tmp
	cfg.Email = "alice@example.com"
	cfg.Sync.Interval = 90 * time.Second
	cfg.Sync.Exclude = []string{"*.tmp"}
	cfg.ControlPlane.Token = "tok"
	cfg.Path = path

	require.NoError(t, cfg.Save())

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.DataDir, loaded.DataDir)
	assert.Equal(t, cfg.Email, loaded.Email)
	assert.Equal(t, cfg.Provider, loaded.Provider)
	assert.Equal(t, cfg.Drive.BaseURL, loaded.Drive.BaseURL)
	assert.Equal(t, 90*time.Second, loaded.Sync.Interval)
	assert.Equal(t, []string{"*.tmp"}, loaded.Sync.Exclude)
	assert.Equal(t, "tok", loaded.ControlPlane.Token)
	assert.Equal(t, path, loaded.Path)
}

func TestConfig_LoadFillsDefaults(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.json")

	partial := &Config{DataDir: tmp, Path: path}
	require.NoError(t, partial.Save())

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, tmp, loaded.DataDir)
	assert.Equal(t, DefaultProvider, loaded.Provider)
	assert.Equal(t, DefaultSyncInterval, loaded.Sync.Interval)
	assert.Equal(t, filepath.Join(tmp, "forked.db"), loaded.StorePath())
	assert.Equal(t, filepath.Join(tmp, "forked.lock"), loaded.LockPath())
}

func TestConfig_LoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
