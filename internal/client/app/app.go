// Package app wires the client together: local store, provider
// registry, sync engine and importer, guarded by a data-dir lock so
// only one instance touches the store at a time.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/client/importer"
	"github.com/forkedapp/forked/internal/provider"
	"github.com/forkedapp/forked/internal/provider/drive"
	"github.com/forkedapp/forked/internal/provider/s3"
	"github.com/forkedapp/forked/internal/store"
	"github.com/forkedapp/forked/internal/sync"
	"github.com/forkedapp/forked/internal/utils"
)

var ErrDataDirLocked = errors.New("data dir locked by another forked instance")

type App struct {
	cfg      *config.Config
	store    *store.Store
	registry *provider.Registry
	provider provider.Provider
	engine   *sync.Engine
	importer *importer.Importer
	lock     *flock.Flock
	started  time.Time
}

// NewRegistry builds the provider registry for a config. Construction
// of a provider happens on lookup, so an unconfigured provider only
// fails when selected.
func NewRegistry(cfg *config.Config) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	if err := reg.Register(drive.ProviderName, drive.Factory(cfg.Drive)); err != nil {
		return nil, err
	}
	if err := reg.Register(s3.ProviderName, s3.Factory(cfg.S3)); err != nil {
		return nil, err
	}
	return reg, nil
}

func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := utils.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return nil, ErrDataDirLocked
	}

	st, err := store.Open(cfg.StorePath())
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg, err := NewRegistry(cfg)
	if err != nil {
		st.Close()
		lock.Unlock()
		return nil, err
	}

	p, err := reg.New(cfg.Provider, provider.Deps{Store: st})
	if err != nil {
		st.Close()
		lock.Unlock()
		return nil, fmt.Errorf("provider %q: %w", cfg.Provider, err)
	}

	exclude, err := sync.NewExcludeList(cfg.Sync.Exclude)
	if err != nil {
		st.Close()
		lock.Unlock()
		return nil, fmt.Errorf("sync exclude: %w", err)
	}

	slog.Info("app ready", "data", cfg.DataDir, "provider", p.Name())

	return &App{
		cfg:      cfg,
		store:    st,
		registry: reg,
		provider: p,
		engine:   sync.NewEngine(st, p, exclude),
		importer: importer.New(st, cfg.Import.Dir),
		lock:     lock,
		started:  time.Now(),
	}, nil
}

func (a *App) Config() *config.Config       { return a.cfg }
func (a *App) Store() *store.Store          { return a.store }
func (a *App) Registry() *provider.Registry { return a.registry }
func (a *App) Provider() provider.Provider  { return a.provider }
func (a *App) Engine() *sync.Engine         { return a.engine }
func (a *App) Importer() *importer.Importer { return a.importer }
func (a *App) StartedAt() time.Time         { return a.started }

// Close releases the provider, store and data-dir lock. Safe to call
// once; errors on individual steps do not stop the rest.
func (a *App) Close() error {
	var firstErr error

	if c, ok := a.provider.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			slog.Warn("provider close", "error", err)
			firstErr = err
		}
	}

	if err := a.store.Close(); err != nil {
		slog.Warn("store close", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	if err := a.unlock(); err != nil {
		slog.Warn("unlock data dir", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (a *App) unlock() error {
	if !a.lock.Locked() {
		return nil
	}
	if err := a.lock.Unlock(); err != nil {
		return err
	}
	return os.Remove(a.lock.Path())
}
