// Package scheduler runs index updates on a single background worker and
// tracks which indices are waiting for or undergoing an update.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cperrin88/mvnindex/internal/logger"
	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/index"
)

// batch is the unit of work of the worker.
type batch struct {
	indices []*index.RepositoryIndex
	full    bool
}

// Scheduler serializes index updates. At most one index is updating at any
// time and an index is never queued twice.
type Scheduler struct {
	updater Updater
	hooks   Hooks

	mu       sync.Mutex
	changed  *sync.Cond
	queue    []batch
	waiting  map[*index.RepositoryIndex]struct{}
	updating *index.RepositoryIndex
	running  bool
	cancel   context.CancelFunc
	closed   bool

	done chan struct{}
}

// New creates a scheduler and starts its worker.
func New(updater Updater, opts ...Option) *Scheduler {
	s := &Scheduler{
		updater: updater,
		waiting: make(map[*index.RepositoryIndex]struct{}),
		done:    make(chan struct{}),
	}
	s.changed = sync.NewCond(&s.mu)
	for _, opt := range opts {
		opt(s)
	}
	go s.work()
	return s
}

// ScheduleUpdate queues one batch holding the indices that are neither
// waiting nor updating. Nothing is queued when no index qualifies. It never
// blocks on the worker.
func (s *Scheduler) ScheduleUpdate(indices []*index.RepositoryIndex, full bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		logger.Debug("Ignoring update request after shutdown", logger.Fields{"indices": len(indices)})
		return
	}

	accepted := make([]*index.RepositoryIndex, 0, len(indices))
	for _, idx := range indices {
		if idx == nil || s.stateLocked(idx) != Idle {
			continue
		}
		s.waiting[idx] = struct{}{}
		accepted = append(accepted, idx)
	}
	if len(accepted) == 0 {
		s.mu.Unlock()
		logger.Debug("No index accepted for update", logger.Fields{"requested": len(indices)})
		return
	}
	s.queue = append(s.queue, batch{indices: accepted, full: full})
	s.changed.Broadcast()
	s.mu.Unlock()

	for _, idx := range accepted {
		emit(s.hooks, Event{Phase: PhaseQueued, ID: idx.Key(), Msg: updateKind(full)})
	}
	logger.Debug("Scheduled index update", logger.Fields{
		"requested": len(indices),
		"accepted":  len(accepted),
		"full":      full,
	})
}

// NotifyBroken queues a repair pass for an index the engine found corrupt.
func (s *Scheduler) NotifyBroken(idx *index.RepositoryIndex) {
	s.ScheduleUpdate([]*index.RepositoryIndex{idx}, false)
}

// State returns the current update status of idx.
func (s *Scheduler) State(idx *index.RepositoryIndex) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(idx)
}

func (s *Scheduler) stateLocked(idx *index.RepositoryIndex) State {
	if s.updating == idx && idx != nil {
		return Updating
	}
	if _, ok := s.waiting[idx]; ok {
		return Waiting
	}
	return Idle
}

// Cancel stops the batch that is currently running. The index being updated
// sees its context canceled; the rest of the batch returns to idle.
// Queued batches are not affected.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until every queued batch has been processed.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for (len(s.queue) > 0 || s.running) && !s.closed {
		s.changed.Wait()
	}
}

// Close cancels the running batch, drops queued ones and waits for the
// worker to exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	for _, b := range s.queue {
		for _, idx := range b.indices {
			delete(s.waiting, idx)
		}
	}
	s.queue = nil
	s.changed.Broadcast()
	s.mu.Unlock()

	<-s.done
}

func (s *Scheduler) work() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.changed.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		b := s.queue[0]
		s.queue = s.queue[1:]
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.running = true
		s.mu.Unlock()

		s.run(ctx, b)
		cancel()

		s.mu.Lock()
		s.cancel = nil
		s.running = false
		s.changed.Broadcast()
		s.mu.Unlock()
	}
}

func (s *Scheduler) run(ctx context.Context, b batch) {
	updated := make([]*index.RepositoryIndex, 0, len(b.indices))

	for i, idx := range b.indices {
		s.mu.Lock()
		if ctx.Err() != nil {
			for _, rest := range b.indices[i:] {
				delete(s.waiting, rest)
			}
			s.mu.Unlock()
			logger.Info("Index update canceled", logger.Fields{"skipped": len(b.indices) - i})
			emit(s.hooks, Event{Phase: PhaseCanceled, Msg: fmt.Sprintf("%d indices skipped", len(b.indices)-i)})
			break
		}
		delete(s.waiting, idx)
		s.updating = idx
		s.mu.Unlock()

		emit(s.hooks, Event{Phase: PhaseUpdating, ID: idx.Key(), Msg: updateKind(b.full)})
		err := s.update(ctx, idx, b.full)

		s.mu.Lock()
		s.updating = nil
		s.mu.Unlock()

		switch {
		case err == nil:
			updated = append(updated, idx)
			logger.Debug("Index updated", logger.Fields{"index": idx.String()})
			emit(s.hooks, Event{Phase: PhaseUpdated, ID: idx.Key()})
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			logger.Debug("Index update interrupted", logger.Fields{"index": idx.String()})
			emit(s.hooks, Event{Phase: PhaseCanceled, ID: idx.Key()})
		default:
			logger.Warn("Index update failed", logger.Fields{"index": idx.String(), "error": err})
			emit(s.hooks, Event{Phase: PhaseFailed, ID: idx.Key(), Msg: err.Error()})
		}
	}

	if s.hooks.OnComplete == nil {
		return
	}
	for _, idx := range updated {
		s.complete(idx)
	}
}

// update runs the updater for one index. A panic is reported as a failure
// of that index.
func (s *Scheduler) update(ctx context.Context, idx *index.RepositoryIndex, full bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", errutils.ErrIndexUpdate, r)
		}
	}()
	return s.updater.UpdateOrRepair(ctx, idx, full)
}

func (s *Scheduler) complete(idx *index.RepositoryIndex) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Completion hook panicked", logger.Fields{"index": idx.String(), "panic": fmt.Sprint(r)})
		}
	}()
	s.hooks.OnComplete(idx)
}

func updateKind(full bool) string {
	if full {
		return "full"
	}
	return "repair"
}
