// Package scheduler implements the task lifecycle (spec.md §3, §4.G, §5):
// plugin invocations move through Waiting -> Launched -> Finished, backed
// by a bounded worker pool so a slow plugin never blocks the scheduling of
// others beyond the pool's width.
//
// The worker pool is an errgroup.Group with SetLimit, the same bounded
// fan-out pattern tonimelisma-onedrive-go's internal/sync/transfer.go uses
// for its download/upload workers.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// State is a task's lifecycle stage.
type State int

const (
	Waiting State = iota
	Launched
	Finished
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Launched:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Task is a scheduled plugin invocation.
type Task struct {
	ID         uint32
	PluginName string
	Argument   json.RawMessage
	Relaunch   bool
}

// Runner executes one task's plugin to completion. Supplied by the
// session, which knows how to dispatch PluginName against the tree.
type Runner func(ctx context.Context, pluginName string, argument json.RawMessage) (any, error)

type entry struct {
	task   Task
	state  State
	result any
	err    error
	done   chan struct{}
}

// Scheduler holds tasks in one of the three lifecycle states and dispatches
// them onto a bounded worker pool.
type Scheduler struct {
	run Runner
	log *slog.Logger

	mu      sync.RWMutex
	entries map[uint32]*entry
	nextID  uint32

	group    *errgroup.Group
	groupCtx context.Context
	inFlight atomic.Int64
}

// New creates a scheduler whose workers never exceed `workers` concurrent
// plugin invocations.
func New(workers int, run Runner, log *slog.Logger) *Scheduler {
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		run:      run,
		log:      log,
		entries:  make(map[uint32]*entry),
		group:    g,
		groupCtx: ctx,
	}
}

// Run executes a plugin synchronously: the caller blocks until it
// completes, but the invocation still occupies one worker-pool slot so it
// is accounted against the same concurrency bound as scheduled tasks.
func (s *Scheduler) Run(ctx context.Context, pluginName string, argument json.RawMessage) (any, error) {
	var (
		result any
		err    error
	)
	done := make(chan struct{})
	s.group.Go(func() error {
		defer close(done)
		result, err = s.run(ctx, pluginName, argument)
		return nil
	})
	<-done
	return result, err
}

// Schedule enqueues a plugin invocation and returns its task id immediately;
// the task transitions Waiting -> Launched -> Finished on a pool worker.
func (s *Scheduler) Schedule(pluginName string, argument json.RawMessage, relaunch bool) (uint32, error) {
	if pluginName == "" {
		return 0, fmt.Errorf("scheduler: plugin name is required")
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	e := &entry{
		task:  Task{ID: id, PluginName: pluginName, Argument: argument, Relaunch: relaunch},
		state: Waiting,
		done:  make(chan struct{}),
	}
	s.entries[id] = e
	s.mu.Unlock()

	s.inFlight.Add(1)
	// group.Go blocks while the pool is full, so it is called from its own
	// goroutine; the task stays Waiting until a worker slot frees up.
	go s.group.Go(func() error {
		defer s.inFlight.Add(-1)
		defer close(e.done)

		s.mu.Lock()
		e.state = Launched
		s.mu.Unlock()
		s.log.Info("task.launched", "id", id, "plugin", pluginName)

		result, err := s.run(s.groupCtx, pluginName, argument)

		s.mu.Lock()
		e.state = Finished
		e.result = result
		e.err = err
		s.mu.Unlock()

		if err != nil {
			s.log.Info("task.finished", "id", id, "plugin", pluginName, "error", err)
		} else {
			s.log.Info("task.finished", "id", id, "plugin", pluginName)
		}
		return nil
	})

	return id, nil
}

// Join blocks until every task enqueued so far has reached Finished. Tasks
// scheduled after Join is called are not waited on (spec.md §5).
func (s *Scheduler) Join() {
	s.mu.RLock()
	var waiting []*entry
	for _, e := range s.entries {
		if e.state != Finished {
			waiting = append(waiting, e)
		}
	}
	s.mu.RUnlock()
	for _, e := range waiting {
		<-e.done
	}
}

// TaskCount returns the total number of tasks ever scheduled.
func (s *Scheduler) TaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot captures a task's current state, stable to read without racing
// the worker that may finish it concurrently.
type Snapshot struct {
	Task   Task
	State  State
	Result any
	Err    error
}

// Task returns the current snapshot for id, or false if unknown.
func (s *Scheduler) Task(id uint32) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{Task: e.task, State: e.state, Result: e.result, Err: e.err}, true
}

// Tasks returns a snapshot per requested id, in order, skipping unknown
// ids. Per spec.md §9's resolved Open Question, this continues across all
// requested ids rather than stopping at the first non-Finished task.
func (s *Scheduler) Tasks(ids []uint32) []Snapshot {
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := s.Task(id); ok {
			out = append(out, snap)
		}
	}
	return out
}
