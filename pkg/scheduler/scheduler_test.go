package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cperrin88/mvnindex/pkg/errutils"
	"github.com/cperrin88/mvnindex/pkg/index"
	mock_index "github.com/cperrin88/mvnindex/pkg/index/mocks"
)

const waitTimeout = 5 * time.Second

func newIndices(t *testing.T, locations ...string) []*index.RepositoryIndex {
	t.Helper()
	ctrl := gomock.NewController(t)
	engine := mock_index.NewMockEngine(ctrl)
	handle := mock_index.NewMockHandle(ctrl)
	handle.EXPECT().LastUpdate().Return(time.Time{}).AnyTimes()
	engine.EXPECT().Open(gomock.Any(), gomock.Any()).Return(handle, nil).AnyTimes()

	reg := index.NewRegistry(engine, t.TempDir(), nil)
	out := make([]*index.RepositoryIndex, 0, len(locations))
	for _, loc := range locations {
		idx, err := reg.AddOrGet(context.Background(), loc, index.Local)
		require.NoError(t, err)
		out = append(out, idx)
	}
	return out
}

type call struct {
	idx  *index.RepositoryIndex
	full bool
}

// fakeUpdater records calls and lets tests hold individual updates.
type fakeUpdater struct {
	mu      sync.Mutex
	calls   []call
	gates   map[*index.RepositoryIndex]chan struct{}
	fail    map[*index.RepositoryIndex]error
	active  int
	peak    int
	started chan *index.RepositoryIndex
}

func newFakeUpdater() *fakeUpdater {
	return &fakeUpdater{
		gates:   make(map[*index.RepositoryIndex]chan struct{}),
		fail:    make(map[*index.RepositoryIndex]error),
		started: make(chan *index.RepositoryIndex, 16),
	}
}

func (f *fakeUpdater) hold(idx *index.RepositoryIndex) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[idx] = gate
	return gate
}

func (f *fakeUpdater) UpdateOrRepair(ctx context.Context, idx *index.RepositoryIndex, full bool) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{idx: idx, full: full})
	f.active++
	f.peak = max(f.peak, f.active)
	gate := f.gates[idx]
	err := f.fail[idx]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	f.started <- idx
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeUpdater) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func awaitStart(t *testing.T, f *fakeUpdater, want *index.RepositoryIndex) {
	t.Helper()
	select {
	case got := <-f.started:
		require.Same(t, want, got)
	case <-time.After(waitTimeout):
		t.Fatalf("update of %s did not start", want)
	}
}

func TestScheduler_StateTransitions(t *testing.T) {
	indices := newIndices(t, "/repo/a", "/repo/b")
	a, b := indices[0], indices[1]

	updater := newFakeUpdater()
	releaseB := updater.hold(b)
	releaseA := updater.hold(a)
	s := New(updater)
	defer s.Close()

	assert.Equal(t, Idle, s.State(a))

	s.ScheduleUpdate([]*index.RepositoryIndex{b}, true)
	awaitStart(t, updater, b)
	assert.Equal(t, Updating, s.State(b))

	s.ScheduleUpdate([]*index.RepositoryIndex{a}, true)
	assert.Equal(t, Waiting, s.State(a))

	close(releaseB)
	awaitStart(t, updater, a)
	assert.Equal(t, Updating, s.State(a))
	assert.Equal(t, Idle, s.State(b))

	close(releaseA)
	s.Wait()
	assert.Equal(t, Idle, s.State(a))
	assert.Equal(t, Idle, s.State(b))
}

func TestScheduler_FiltersWaitingAndUpdating(t *testing.T) {
	indices := newIndices(t, "/repo/a", "/repo/b", "/repo/c")
	a, b, c := indices[0], indices[1], indices[2]

	updater := newFakeUpdater()
	release := updater.hold(a)
	s := New(updater)
	defer s.Close()

	s.ScheduleUpdate([]*index.RepositoryIndex{a}, true)
	awaitStart(t, updater, a)

	s.ScheduleUpdate([]*index.RepositoryIndex{a, b, b, c}, true)
	s.ScheduleUpdate([]*index.RepositoryIndex{c, b}, false)
	assert.Equal(t, Updating, s.State(a))
	assert.Equal(t, Waiting, s.State(b))
	assert.Equal(t, Waiting, s.State(c))

	close(release)
	s.Wait()

	assert.Equal(t, []call{{a, true}, {b, true}, {c, true}}, updater.recorded())
}

func TestScheduler_NothingAcceptedQueuesNothing(t *testing.T) {
	indices := newIndices(t, "/repo/a")
	a := indices[0]
	updater := newFakeUpdater()
	release := updater.hold(a)
	s := New(updater)
	defer s.Close()

	s.ScheduleUpdate(indices, true)
	awaitStart(t, updater, a)

	tests := []struct {
		name    string
		indices []*index.RepositoryIndex
	}{
		{"nil", nil},
		{"nil entries", []*index.RepositoryIndex{nil}},
		{"already updating", indices},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.ScheduleUpdate(tt.indices, false)
			s.mu.Lock()
			defer s.mu.Unlock()
			assert.Empty(t, s.queue)
		})
	}

	close(release)
	s.Wait()
	assert.Equal(t, []call{{idx: a, full: true}}, updater.recorded())
}

func TestScheduler_SerialOrder(t *testing.T) {
	indices := newIndices(t, "/repo/a", "/repo/b", "/repo/c", "/repo/d")
	updater := newFakeUpdater()
	s := New(updater)
	defer s.Close()

	s.ScheduleUpdate(indices[:2], true)
	s.ScheduleUpdate(nil, true)
	s.ScheduleUpdate(indices[2:3], false)
	s.ScheduleUpdate(indices[3:], true)
	s.Wait()

	assert.Equal(t, []call{
		{indices[0], true},
		{indices[1], true},
		{indices[2], false},
		{indices[3], true},
	}, updater.recorded())
	assert.Equal(t, 1, updater.peak, "at most one index updates at a time")
}

func TestScheduler_FailureContinuesBatch(t *testing.T) {
	indices := newIndices(t, "/repo/a", "/repo/b")
	a, b := indices[0], indices[1]

	updater := newFakeUpdater()
	updater.fail[a] = errors.New("engine exploded")

	var completed []*index.RepositoryIndex
	var mu sync.Mutex
	var events []Event
	s := New(updater,
		WithCompletionHook(func(idx *index.RepositoryIndex) { completed = append(completed, idx) }),
		WithEventHook(func(e Event) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		}),
	)
	defer s.Close()

	s.ScheduleUpdate(indices, true)
	s.Wait()

	assert.Len(t, updater.recorded(), 2)
	assert.Equal(t, []*index.RepositoryIndex{b}, completed)
	assert.Equal(t, Idle, s.State(a))
	assert.Equal(t, Idle, s.State(b))

	mu.Lock()
	defer mu.Unlock()
	var worked []Event
	queued := 0
	for _, e := range events {
		if e.Phase == PhaseQueued {
			queued++
			continue
		}
		worked = append(worked, e)
	}
	assert.Equal(t, 2, queued)
	require.Len(t, worked, 4)
	assert.Equal(t, Event{Phase: PhaseUpdating, ID: "/repo/a", Msg: "full"}, worked[0])
	assert.Equal(t, Event{Phase: PhaseFailed, ID: "/repo/a", Msg: "engine exploded"}, worked[1])
	assert.Equal(t, Event{Phase: PhaseUpdating, ID: "/repo/b", Msg: "full"}, worked[2])
	assert.Equal(t, Event{Phase: PhaseUpdated, ID: "/repo/b"}, worked[3])
}

// panickingUpdater panics for one index and delegates the others.
type panickingUpdater struct {
	*fakeUpdater
	target *index.RepositoryIndex
}

func (p panickingUpdater) UpdateOrRepair(ctx context.Context, idx *index.RepositoryIndex, full bool) error {
	if idx == p.target {
		panic("engine bug")
	}
	return p.fakeUpdater.UpdateOrRepair(ctx, idx, full)
}

func TestScheduler_PanicsAreContainedPerIndex(t *testing.T) {
	indices := newIndices(t, "/repo/a", "/repo/b", "/repo/c")
	a, b, c := indices[0], indices[1], indices[2]
	updater := panickingUpdater{fakeUpdater: newFakeUpdater(), target: a}

	var mu sync.Mutex
	var completed []*index.RepositoryIndex
	var failed []Event
	s := New(updater,
		WithCompletionHook(func(idx *index.RepositoryIndex) {
			mu.Lock()
			completed = append(completed, idx)
			mu.Unlock()
			if idx == b {
				panic("hook bug")
			}
		}),
		WithEventHook(func(e Event) {
			if e.Phase == PhaseFailed {
				mu.Lock()
				failed = append(failed, e)
				mu.Unlock()
			}
		}),
	)
	defer s.Close()

	s.ScheduleUpdate(indices, true)
	s.Wait()

	assert.Equal(t, []call{{idx: b, full: true}, {idx: c, full: true}}, updater.recorded())
	for _, idx := range indices {
		assert.Equal(t, Idle, s.State(idx))
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []*index.RepositoryIndex{b, c}, completed)
	require.Len(t, failed, 1)
	assert.Equal(t, "/repo/a", failed[0].ID)
	assert.Contains(t, failed[0].Msg, errutils.ErrIndexUpdate.Error())
	assert.Contains(t, failed[0].Msg, "engine bug")

	// The worker is still alive.
	s.ScheduleUpdate([]*index.RepositoryIndex{c}, false)
	s.Wait()
	assert.Len(t, updater.recorded(), 3)
}

func TestScheduler_CompletionHookRunsAfterBatch(t *testing.T) {
	indices := newIndices(t, "/repo/a", "/repo/b")
	updater := newFakeUpdater()

	var mu sync.Mutex
	var log []string
	record := func(entry string) {
		mu.Lock()
		defer mu.Unlock()
		log = append(log, entry)
	}
	s := New(updater,
		WithCompletionHook(func(idx *index.RepositoryIndex) { record("complete " + idx.Key()) }),
		WithEventHook(func(e Event) {
			if e.Phase == PhaseUpdated {
				record("updated " + e.ID)
			}
		}),
	)
	defer s.Close()

	s.ScheduleUpdate(indices, true)
	s.Wait()

	assert.Equal(t, []string{
		"updated /repo/a",
		"updated /repo/b",
		"complete /repo/a",
		"complete /repo/b",
	}, log)
}

func TestScheduler_Cancel(t *testing.T) {
	indices := newIndices(t, "/repo/a", "/repo/b", "/repo/c", "/repo/d")
	a, b, c, d := indices[0], indices[1], indices[2], indices[3]

	updater := newFakeUpdater()
	updater.hold(a)

	var completed []*index.RepositoryIndex
	s := New(updater, WithCompletionHook(func(idx *index.RepositoryIndex) { completed = append(completed, idx) }))
	defer s.Close()

	s.ScheduleUpdate([]*index.RepositoryIndex{a, b, c}, true)
	s.ScheduleUpdate([]*index.RepositoryIndex{d}, true)
	awaitStart(t, updater, a)
	assert.Equal(t, Waiting, s.State(b))

	s.Cancel()
	s.Wait()

	assert.Equal(t, []call{{a, true}, {d, true}}, updater.recorded(), "the next batch still runs")
	for _, idx := range indices {
		assert.Equal(t, Idle, s.State(idx), idx.Key())
	}
	assert.Equal(t, []*index.RepositoryIndex{d}, completed)

	s.ScheduleUpdate([]*index.RepositoryIndex{b}, true)
	s.Wait()
	assert.Len(t, updater.recorded(), 3, "canceled indices can be scheduled again")
}

func TestScheduler_NotifyBroken(t *testing.T) {
	indices := newIndices(t, "/repo/a")
	updater := newFakeUpdater()
	s := New(updater)
	defer s.Close()

	s.NotifyBroken(indices[0])
	s.Wait()
	assert.Equal(t, []call{{indices[0], false}}, updater.recorded())
}

func TestScheduler_Close(t *testing.T) {
	indices := newIndices(t, "/repo/a", "/repo/b")
	a, b := indices[0], indices[1]

	updater := newFakeUpdater()
	updater.hold(a)
	s := New(updater)

	s.ScheduleUpdate([]*index.RepositoryIndex{a}, true)
	s.ScheduleUpdate([]*index.RepositoryIndex{b}, true)
	awaitStart(t, updater, a)

	s.Close()
	assert.Equal(t, Idle, s.State(a))
	assert.Equal(t, Idle, s.State(b))
	assert.Equal(t, []call{{a, true}}, updater.recorded())

	s.ScheduleUpdate([]*index.RepositoryIndex{b}, true)
	s.Wait()
	s.Close()
	assert.Equal(t, Idle, s.State(b))
	assert.Len(t, updater.recorded(), 1)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "waiting", Waiting.String())
	assert.Equal(t, "updating", Updating.String())
	assert.Equal(t, "unknown", State(42).String())
}
