package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/content"
)

func testDaemonConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		DataDir: t.TempDir(),
		ControlPlane: config.ControlPlaneConfig{
			// Ephemeral port: the tests never dial in, the daemon just
			// needs something it can bind.
			Addr: "127.0.0.1:0",
		},
	}
	cfg.ApplyDefaults()
	cfg.Import.Watch = true
	return cfg
}

func TestDaemon_StartStop(t *testing.T) {
	cfg := testDaemonConfig(t)

	d, err := NewDaemon(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	// The startup session runs immediately and fails fast: no container
	// is selected yet. The daemon must keep running regardless.
	require.Eventually(t, func() bool {
		return d.App().Engine().LastResult() != nil
	}, 5*time.Second, 20*time.Millisecond)
	res := d.App().Engine().LastResult()
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no container selected")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}

	// Shutdown released the data dir lock.
	_, err = os.Stat(cfg.LockPath())
	assert.True(t, os.IsNotExist(err))
}

func TestDaemon_WatcherImportsDrops(t *testing.T) {
	cfg := testDaemonConfig(t)

	// Dropped before the daemon starts: the initial scan must pick it up.
	require.NoError(t, os.MkdirAll(cfg.Import.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Import.Dir, "stew.md"), []byte("# Stew\n"), 0o644))

	d, err := NewDaemon(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	require.Eventually(t, func() bool {
		items, err := d.App().Store().Items(content.ClassRecipes)
		if err != nil {
			return false
		}
		_, ok := items.Get("stew.md")
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestDaemon_SecondInstanceRefused(t *testing.T) {
	cfg := testDaemonConfig(t)

	d, err := NewDaemon(cfg)
	require.NoError(t, err)
	defer d.App().Close()

	_, err = NewDaemon(cfg)
	assert.Error(t, err)
}
