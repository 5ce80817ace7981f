// Package client runs the long-lived side of forked: the periodic sync
// loop, the import watcher and the local control plane, under a single
// errgroup lifecycle.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/client/config"
	"github.com/forkedapp/forked/internal/creds"
)

type Daemon struct {
	cfg *config.Config
	app *app.App
	cps *ControlPlaneServer
}

func NewDaemon(cfg *config.Config) (*Daemon, error) {
	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Daemon{
		cfg: cfg,
		app: a,
		cps: NewControlPlaneServer(&cfg.ControlPlane, a),
	}, nil
}

func (d *Daemon) App() *app.App {
	return d.app
}

// Start runs the daemon until ctx is canceled or a component fails.
// Whichever way it ends, every component is stopped and the data dir
// lock released before Start returns.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("daemon start",
		"provider", d.app.Provider().Name(),
		"interval", d.cfg.Sync.Interval,
		"watch", d.cfg.Import.Watch,
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := d.cps.Start(egCtx); err != nil {
			return fmt.Errorf("control plane: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		d.syncLoop(egCtx)
		return nil
	})

	if d.cfg.Import.Watch {
		eg.Go(func() error {
			// Pick up anything dropped while the daemon was down, then
			// follow filesystem events.
			if _, err := d.app.Importer().ImportAll(egCtx); err != nil {
				slog.Warn("initial import", "error", err)
			}
			if err := d.app.Importer().Watch(egCtx); err != nil {
				return fmt.Errorf("import watcher: %w", err)
			}
			return nil
		})
	}

	// Teardown waits on the group context, so one failing component
	// stops them all.
	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("daemon shutting down")
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return d.Stop(stopCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("daemon failure", "error", err)
		return err
	}
	return nil
}

func (d *Daemon) Stop(ctx context.Context) error {
	if err := d.cps.Stop(ctx); err != nil {
		return fmt.Errorf("stop control plane: %w", err)
	}
	return d.app.Close()
}

// syncLoop runs a session immediately, then on a timer that is reset
// after each session, so sessions never queue behind a slow one.
func (d *Daemon) syncLoop(ctx context.Context) {
	interval := d.cfg.Sync.Interval
	d.syncOnce(ctx)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.syncOnce(ctx)
			timer.Reset(interval)
		}
	}
}

func (d *Daemon) syncOnce(ctx context.Context) {
	res := d.app.Engine().Sync(ctx, nil)
	if res.Success || res.Error == "" {
		return
	}
	// The engine already logged the failure; surface the one case the
	// user must act on.
	if strings.Contains(res.Error, creds.ErrReauthRequired.Error()) {
		slog.Warn("sign-in required, run `forked login`")
	}
}
