// Package sync implements the reconciliation engine: it diffs the local
// content collections against a remote provider by name and timestamp,
// transfers the minimal set of items and persists the merged result.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/provider"
	"github.com/forkedapp/forked/internal/store"
)

var (
	// ErrSyncInProgress rejects a second sync while one is running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNoProvider means the engine has no provider configured.
	// Contract error: fails before any I/O.
	ErrNoProvider = errors.New("no provider configured")

	// ErrNoContainer means no remote container has been selected.
	// Contract error: fails before any I/O.
	ErrNoContainer = errors.New("no container selected")
)

// ClassResult counts what a single content class transferred.
type ClassResult struct {
	Class      content.Class `json:"class"`
	Uploaded   int           `json:"uploaded"`
	Downloaded int           `json:"downloaded"`
	Skipped    int           `json:"skipped"`
	Excluded   int           `json:"excluded"`
}

// Result is the structured outcome of one sync run. Faults never escape
// a run as errors or panics; they land in Error with Success false,
// alongside the counts of whatever transfers completed first.
type Result struct {
	// ID correlates a run's log lines and its reported outcome.
	ID         string        `json:"id,omitempty"`
	Success    bool          `json:"success"`
	Uploaded   int           `json:"uploaded"`
	Downloaded int           `json:"downloaded"`
	Classes    []ClassResult `json:"classes,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
}

// InProgress reports whether this result is the immediate rejection of
// a concurrent sync attempt.
func (r *Result) InProgress() bool {
	return !r.Success && r.Error == ErrSyncInProgress.Error()
}

// Engine converges the local store's content collections with a remote
// provider, one session at a time.
type Engine struct {
	store    *store.Store
	provider provider.Provider
	exclude  *ExcludeList

	muSync sync.Mutex

	muLast sync.Mutex
	last   *Result
}

func NewEngine(st *store.Store, p provider.Provider, exclude *ExcludeList) *Engine {
	return &Engine{
		store:    st,
		provider: p,
		exclude:  exclude,
	}
}

// Sync converges every content class in one session, sequentially:
// recipes first, then images. obs may be nil.
func (e *Engine) Sync(ctx context.Context, obs Observer) *Result {
	return e.run(ctx, content.Classes, obs)
}

// SyncClass converges a single content class.
func (e *Engine) SyncClass(ctx context.Context, class content.Class, obs Observer) *Result {
	return e.run(ctx, []content.Class{class}, obs)
}

// Running reports whether a sync session is active right now.
func (e *Engine) Running() bool {
	if e.muSync.TryLock() {
		e.muSync.Unlock()
		return false
	}
	return true
}

// LastResult returns the outcome of the most recent completed run, or
// nil when none has finished. In-progress rejections are not recorded.
func (e *Engine) LastResult() *Result {
	e.muLast.Lock()
	defer e.muLast.Unlock()
	return e.last
}

func (e *Engine) setLast(res *Result) {
	e.muLast.Lock()
	e.last = res
	e.muLast.Unlock()
}

func (e *Engine) run(ctx context.Context, classes []content.Class, obs Observer) (res *Result) {
	if !e.muSync.TryLock() {
		return &Result{Error: ErrSyncInProgress.Error()}
	}
	defer e.muSync.Unlock()

	started := time.Now()
	res = &Result{ID: uuid.NewString(), StartedAt: started}
	defer func() {
		if r := recover(); r != nil {
			e.fail(res, obs, fmt.Errorf("sync panic: %v", r))
		}
		res.Duration = time.Since(started)
		e.setLast(res)
	}()

	// Contract checks: fail fast before any I/O.
	if e.provider == nil {
		return e.fail(res, obs, ErrNoProvider)
	}
	containerID, err := e.store.ContainerID()
	if err != nil {
		return e.fail(res, obs, fmt.Errorf("read selected container: %w", err))
	}
	if containerID == "" {
		return e.fail(res, obs, ErrNoContainer)
	}

	// The selected container must still be accessible. A vanished one is
	// forgotten so the next attempt prompts re-selection.
	if err := e.provider.VerifyContainer(ctx, containerID); err != nil {
		if errors.Is(err, provider.ErrNotFound) || errors.Is(err, provider.ErrSelectionRequired) {
			if cerr := e.store.ClearContainerID(); cerr != nil {
				slog.Warn("clear selected container", "error", cerr)
			}
			err = fmt.Errorf("container %q: %w", containerID, provider.ErrSelectionRequired)
		}
		return e.fail(res, obs, err)
	}

	slog.Info("sync start", "id", res.ID, "provider", e.provider.Name(), "container", containerID)

	n := len(classes)
	for i, class := range classes {
		lo := float64(i) / float64(n) * 100
		hi := float64(i+1) / float64(n) * 100

		cres, err := e.runClass(ctx, class, bandEmitter(obs, class, lo, hi))
		if cres != nil {
			res.Classes = append(res.Classes, *cres)
			res.Uploaded += cres.Uploaded
			res.Downloaded += cres.Downloaded
		}
		if err != nil {
			// Completed transfers stay committed; the remainder of the
			// run is abandoned, not rolled back.
			return e.fail(res, obs, fmt.Errorf("sync %s: %w", class, err))
		}
	}

	if err := e.store.SetLastSyncTime(time.Now()); err != nil {
		return e.fail(res, obs, fmt.Errorf("record last sync time: %w", err))
	}

	res.Success = true
	slog.Info("sync done", "id", res.ID, "uploaded", res.Uploaded, "downloaded", res.Downloaded, "took", time.Since(started))
	return res
}

// runClass executes the six-step algorithm for one content class,
// reporting progress through emit on the class's band.
func (e *Engine) runClass(ctx context.Context, class content.Class, emit emitFunc) (*ClassResult, error) {
	cres := &ClassResult{Class: class}

	// 1. Local collection (0-10).
	emit(PhaseLocalLoad, 0, "", nil)
	local, err := e.store.Items(class)
	if err != nil {
		return cres, fmt.Errorf("load local items: %w", err)
	}
	emit(PhaseLocalLoad, 10, "", nil)

	// 2. Remote listing (10-20).
	remote, err := e.provider.List(ctx, class)
	if err != nil {
		return cres, fmt.Errorf("list remote items: %w", err)
	}
	emit(PhaseRemoteLoad, 20, "", nil)

	// 3. Classification (20-30).
	plan := Reconcile(local, remote, e.exclude)
	cres.Skipped = len(plan.Skipped)
	cres.Excluded = len(plan.Excluded)
	details := &Details{
		ToUpload:   len(plan.Uploads),
		ToDownload: len(plan.Downloads),
		Skipped:    len(plan.Skipped),
		Excluded:   len(plan.Excluded),
	}
	emit(PhaseClassify, 30, "", details)
	slog.Debug("sync classify", "class", class,
		"toUpload", len(plan.Uploads), "toDownload", len(plan.Downloads),
		"skipped", len(plan.Skipped), "excluded", len(plan.Excluded))

	// 4+5. Transfers (30-90): sequential, uploads before downloads.
	// Each item merges into the in-memory collection right after its
	// transfer succeeds.
	merged := local
	total := plan.TransferCount()
	step := 0.0
	if total > 0 {
		step = 60.0 / float64(total)
	}
	done := 0

	for _, item := range plan.Uploads {
		emit(PhaseUpload, 30+float64(done)*step, item.Name, nil)

		put, err := e.provider.Put(ctx, class, item)
		if err != nil {
			return cres, fmt.Errorf("upload %s: %w", item.Name, err)
		}
		item.RemoteID = put.RemoteID
		merged.Upsert(item)
		cres.Uploaded++
		done++
		slog.Debug("uploaded", "class", class, "name", item.Name, "size", humanize.Bytes(uint64(len(item.Content))))
	}

	for _, ri := range plan.Downloads {
		emit(PhaseDownload, 30+float64(done)*step, ri.Name, nil)

		rc, err := e.provider.Fetch(ctx, ri.RemoteID)
		if err != nil {
			return cres, fmt.Errorf("download %s: %w", ri.Name, err)
		}
		name := rc.Name
		if name == "" {
			name = ri.Name
		}
		merged.Upsert(content.Item{
			Name:         name,
			Content:      rc.Content,
			LastModified: rc.LastModified,
			RemoteID:     ri.RemoteID,
		})
		cres.Downloaded++
		done++
		slog.Debug("downloaded", "class", class, "name", name, "size", humanize.Bytes(uint64(len(rc.Content))))
	}

	// 6. Persist the merged collection once (90-100).
	emit(PhasePersist, 90, "", nil)
	if err := e.store.SetItems(class, merged); err != nil {
		return cres, fmt.Errorf("persist items: %w", err)
	}
	emit(PhaseDone, 100, "", details)

	return cres, nil
}

func (e *Engine) fail(res *Result, obs Observer, err error) *Result {
	res.Success = false
	res.Error = err.Error()
	slog.Error("sync failed", "id", res.ID, "error", err)
	if obs != nil {
		obs.OnProgress(Event{Status: PhaseError, Err: err.Error()})
	}
	return res
}
