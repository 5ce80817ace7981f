package sync

import (
	"github.com/forkedapp/forked/internal/content"
)

// Phase tags the stage a progress event belongs to.
type Phase string

const (
	PhaseLocalLoad  Phase = "local-load"
	PhaseRemoteLoad Phase = "remote-load"
	PhaseClassify   Phase = "classify"
	PhaseUpload     Phase = "upload"
	PhaseDownload   Phase = "download"
	PhasePersist    Phase = "persist"
	PhaseDone       Phase = "done"
	PhaseError      Phase = "error"
)

// Details carries the classification counts of a run.
type Details struct {
	ToUpload   int `json:"toUpload"`
	ToDownload int `json:"toDownload"`
	Skipped    int `json:"skipped"`
	Excluded   int `json:"excluded"`
}

// Event is one progress notification. Progress runs 0-100 across the
// whole run: 0-10 local load, 10-20 remote load, 20-30 classify, 30-90
// transfers weighted evenly, 90-100 persist and finalize.
type Event struct {
	Class    content.Class `json:"class"`
	Status   Phase         `json:"status"`
	Progress float64       `json:"progress"`
	Current  string        `json:"current,omitempty"`
	Details  *Details      `json:"details,omitempty"`
	Err      string        `json:"error,omitempty"`
}

// Observer consumes progress events synchronously, in run order. The
// engine blocks on each delivery; observers must be fast.
type Observer interface {
	OnProgress(e Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnProgress(e Event) {
	f(e)
}

// emitFunc scales class-relative progress (0-100) into the band a class
// occupies within the run, then delivers to the observer.
type emitFunc func(phase Phase, pct float64, current string, details *Details)

func bandEmitter(obs Observer, class content.Class, lo, hi float64) emitFunc {
	return func(phase Phase, pct float64, current string, details *Details) {
		if obs == nil {
			return
		}
		obs.OnProgress(Event{
			Class:    class,
			Status:   phase,
			Progress: lo + (hi-lo)*pct/100,
			Current:  current,
			Details:  details,
		})
	}
}
