// Package session aggregates the tree, plugin registry, task scheduler,
// virtual-file registry, and replay log into the single process-wide
// handle every apiserver handler shares (spec.md §3 "Session").
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tap-ir/tapir/internal/plugin"
	"github.com/tap-ir/tapir/internal/replay"
	"github.com/tap-ir/tapir/internal/scheduler"
	"github.com/tap-ir/tapir/internal/tree"
	"github.com/tap-ir/tapir/internal/vfile"
)

// Session is the shared, process-lifetime aggregate every handler operates
// against. All exported methods are safe for concurrent use.
type Session struct {
	Tree    *tree.Tree
	Plugins *plugin.Registry
	VFiles  *vfile.Registry

	log *slog.Logger

	mu        sync.Mutex
	replayLog *replay.Log

	scheduler *scheduler.Scheduler
}

// New constructs a session with a fresh tree, the given plugin registry,
// and a bounded worker pool `workers` wide.
func New(plugins *plugin.Registry, workers int, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		Tree:      tree.New(),
		Plugins:   plugins,
		VFiles:    vfile.NewRegistry(),
		log:       log,
		replayLog: replay.NewLog(),
	}
	s.scheduler = scheduler.New(workers, s.runPlugin, log)
	return s
}

// runPlugin is the scheduler.Runner: resolve pluginName against the
// registry and execute it against the session's tree, rooted at the tree's
// root (spec.md §3 "plugins_db").
func (s *Session) runPlugin(ctx context.Context, pluginName string, argument json.RawMessage) (any, error) {
	p, ok := s.Plugins.Find(pluginName)
	if !ok {
		return nil, fmt.Errorf("session: unknown plugin %q", pluginName)
	}
	result, err := p.Run(ctx, s.Tree, s.VFiles, s.Tree.RootID, argument)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.replayLog.Append(pluginName, argument)
	s.mu.Unlock()
	return result, nil
}

// Run executes pluginName synchronously and records it in the replay log on
// success (spec.md §3 "run(name, args, relaunch) -> Result<JSON, Error>").
func (s *Session) Run(ctx context.Context, pluginName string, argument json.RawMessage) (any, error) {
	return s.scheduler.Run(ctx, pluginName, argument)
}

// Schedule enqueues pluginName and returns its task id immediately.
func (s *Session) Schedule(pluginName string, argument json.RawMessage, relaunch bool) (uint32, error) {
	if _, ok := s.Plugins.Find(pluginName); !ok {
		return 0, fmt.Errorf("session: unknown plugin %q", pluginName)
	}
	return s.scheduler.Schedule(pluginName, argument, relaunch)
}

// Join blocks until every task scheduled so far has finished.
func (s *Session) Join() { s.scheduler.Join() }

// Task returns the current snapshot for a scheduled task id.
func (s *Session) Task(id uint32) (scheduler.Snapshot, bool) { return s.scheduler.Task(id) }

// Tasks returns a snapshot per requested id, continuing across all of them
// (spec.md §9's resolved Open Question).
func (s *Session) Tasks(ids []uint32) []scheduler.Snapshot { return s.scheduler.Tasks(ids) }

// TaskCount returns the total number of tasks ever scheduled.
func (s *Session) TaskCount() int { return s.scheduler.TaskCount() }

// Save writes the session's replay log to path.
func (s *Session) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replayLog.ToFile(path)
}

// Load replays every entry recorded in path's log through Run, in order,
// on top of this session's current tree, which is not cleared first; on a
// fresh session this rebuilds the saved tree (spec.md §8 property 7: save
// then fresh load reproduces node_count/attribute_count).
func (s *Session) Load(ctx context.Context, path string) error {
	entries, err := replay.FromFile(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := s.Run(ctx, e.PluginName, e.Argument); err != nil {
			return fmt.Errorf("session: replaying %s: %w", e.PluginName, err)
		}
	}
	return nil
}
