package scheduler

import (
	"context"

	"github.com/cperrin88/mvnindex/pkg/index"
)

// State is the update status of one index.
type State int

const (
	// Idle means the index is neither queued nor being updated.
	Idle State = iota
	// Waiting means the index is queued in a pending batch.
	Waiting
	// Updating means the worker is updating the index right now.
	Updating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Updating:
		return "updating"
	default:
		return "unknown"
	}
}

// Updater performs the actual update of one index.
type Updater interface {
	UpdateOrRepair(ctx context.Context, idx *index.RepositoryIndex, full bool) error
}

// Event phases.
const (
	PhaseQueued   = "queued"
	PhaseUpdating = "updating"
	PhaseUpdated  = "updated"
	PhaseFailed   = "failed"
	PhaseCanceled = "canceled"
)

// Event represents a simple progress notification.
type Event struct {
	Phase string // queued|updating|updated|failed|canceled
	ID    string // index key
	Msg   string
}

// Hooks carries callbacks invoked from the worker goroutine.
type Hooks struct {
	// OnEvent receives progress events.
	OnEvent func(Event)
	// OnComplete runs once per successfully updated index after its batch.
	OnComplete func(*index.RepositoryIndex)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCompletionHook sets the callback run for every successfully updated index.
func WithCompletionHook(fn func(*index.RepositoryIndex)) Option {
	return func(s *Scheduler) { s.hooks.OnComplete = fn }
}

// WithEventHook sets the progress event callback.
func WithEventHook(fn func(Event)) Option {
	return func(s *Scheduler) { s.hooks.OnEvent = fn }
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}
