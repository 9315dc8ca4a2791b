// Package scheduler implements Eikobot's concurrent deployment loop,
// grounded on the original compiler's eikobot/core/deployer.py: tasks
// with no unmet dependency run immediately, a task's dependants are
// released the moment every one of their dependencies has finished (the
// Python original's depends_on_copy countdown), and a dry run walks the
// same graph without calling any handler. The event loop itself follows
// the teacher's single-mutator concurrent orchestration style, using a
// WaitGroup plus a mutex-guarded completion count instead of asyncio's
// cooperative task queue.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/kazaamjt/eikobot/internal/errors"
	"github.com/kazaamjt/eikobot/internal/export"
	"github.com/kazaamjt/eikobot/internal/handler"
	"github.com/kazaamjt/eikobot/internal/invariant"
)

// Status is a task's position in the lifecycle state machine (spec §5).
type Status int

const (
	StatusPending Status = iota
	StatusReady
	StatusRunning
	StatusDone
	StatusFailed
	StatusSkipped
)

// Progress reports how many of the total tasks have finished, mirroring
// DeployProgress.
type Progress struct {
	Total int
	Done  int
}

// Result is the terminal outcome of one deployment run.
type Result struct {
	Failed   bool
	Statuses map[string]Status
}

// Scheduler drives a task.DAG to completion, one goroutine per running
// task, respecting dependency order and propagating upstream failure as
// a downstream Skip rather than a Run (spec §5 "transitive failure
// propagation").
type Scheduler struct {
	Logger     *slog.Logger
	DryRun     bool
	OnProgress func(Progress)

	mu       sync.Mutex
	status   map[string]Status
	pending  map[string]int // remaining unmet dependency count
	failed   bool
	total    int
	done     int
}

func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{Logger: logger, status: make(map[string]Status), pending: make(map[string]int)}
}

// Run deploys every task reachable from baseTasks, blocking until the
// whole graph has settled, then runs a cleanup pass over every task with
// a handler (spec §5 "cleanup pass").
func (s *Scheduler) Run(ctx context.Context, baseTasks []*export.Task) (*Result, error) {
	invariant.NotNil(baseTasks, "baseTasks")

	all := collectAll(baseTasks)
	s.total = countHandled(all)

	for _, t := range all {
		s.status[t.ID] = StatusPending
		s.pending[t.ID] = len(uniqueDeps(t))
	}

	var wg sync.WaitGroup
	for _, t := range baseTasks {
		wg.Add(1)
		go s.runTask(ctx, t, &wg)
	}
	wg.Wait()

	for _, t := range all {
		if t.Handler == nil {
			continue
		}
		if cleaner, ok := t.Handler.(Cleaner); ok {
			if err := cleaner.Cleanup(ctx, t.Ctx); err != nil {
				s.Logger.Warn("cleanup failed", "task", t.ID, "error", err)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	statuses := make(map[string]Status, len(s.status))
	for k, v := range s.status {
		statuses[k] = v
	}
	return &Result{Failed: s.failed, Statuses: statuses}, nil
}

// Cleaner is an optional handler extension for post-deployment cleanup,
// called once per handler-bearing task regardless of outcome.
type Cleaner interface {
	Cleanup(ctx context.Context, hctx *handler.Context) error
}

func (s *Scheduler) runTask(ctx context.Context, t *export.Task, wg *sync.WaitGroup) {
	defer wg.Done()

	s.mu.Lock()
	upstreamFailed := s.anyDependencyFailed(t)
	if upstreamFailed {
		s.status[t.ID] = StatusSkipped
		s.failed = true
	} else {
		s.status[t.ID] = StatusRunning
	}
	s.mu.Unlock()

	if !upstreamFailed {
		if err := s.execute(ctx, t); err != nil {
			s.Logger.Error("task failed", "task", t.ID, "error", err)
			s.mu.Lock()
			s.status[t.ID] = StatusFailed
			s.failed = true
			s.mu.Unlock()
		} else {
			s.mu.Lock()
			s.status[t.ID] = StatusDone
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	if t.Handler != nil {
		s.done++
	}
	progress := Progress{Total: s.total, Done: s.done}
	s.mu.Unlock()
	if s.OnProgress != nil && t.Handler != nil {
		s.OnProgress(progress)
	}

	s.releaseDependants(ctx, t, wg)
}

// releaseDependants decrements each dependant's outstanding-dependency
// countdown and spawns it once it reaches zero - the depends_on_copy
// countdown from the original deployer's _execute_task.
func (s *Scheduler) releaseDependants(ctx context.Context, t *export.Task, wg *sync.WaitGroup) {
	var ready []*export.Task
	seen := make(map[string]bool)
	s.mu.Lock()
	for _, dep := range t.Dependants {
		// t.Dependants is a multiset (export.go's ProcessSubTask appends
		// without dedup): a dependant referencing t through two properties
		// shows up here twice. pending was seeded from the deduplicated
		// dependency count, so only the first occurrence per dependant may
		// count down here, and status is the final guard against handing
		// the same task to runTask twice.
		if seen[dep.ID] {
			continue
		}
		seen[dep.ID] = true
		s.pending[dep.ID]--
		if s.pending[dep.ID] <= 0 && s.status[dep.ID] == StatusPending {
			s.status[dep.ID] = StatusReady
			ready = append(ready, dep)
		}
	}
	s.mu.Unlock()

	for _, dep := range ready {
		wg.Add(1)
		go s.runTask(ctx, dep, wg)
	}
}

func (s *Scheduler) anyDependencyFailed(t *export.Task) bool {
	for _, dep := range t.DependsOn {
		st := s.status[dep.ID]
		if st == StatusFailed || st == StatusSkipped {
			return true
		}
	}
	return false
}

func (s *Scheduler) execute(ctx context.Context, t *export.Task) error {
	if t.Handler == nil {
		return nil
	}
	if s.DryRun {
		if dryRunner, ok := t.Handler.(DryRunner); ok {
			return dryRunner.DryRun(ctx, t.Ctx)
		}
		return nil
	}
	if err := t.Handler.Execute(ctx, t.Ctx); err != nil {
		return errors.NewDeployError(t.ID, err)
	}
	if t.Ctx.Failed {
		return errors.NewDeployError(t.ID, nil)
	}
	return nil
}

// DryRunner is an optional handler extension exercised instead of
// Execute when the scheduler runs in dry-run mode (spec §5 "dry run").
type DryRunner interface {
	DryRun(ctx context.Context, hctx *handler.Context) error
}

func collectAll(base []*export.Task) []*export.Task {
	seen := make(map[string]bool)
	var all []*export.Task
	var visit func(*export.Task)
	visit = func(t *export.Task) {
		if seen[t.ID] {
			return
		}
		seen[t.ID] = true
		all = append(all, t)
		for _, dep := range t.DependsOn {
			visit(dep)
		}
		for _, dep := range t.Dependants {
			visit(dep)
		}
	}
	for _, t := range base {
		visit(t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func countHandled(all []*export.Task) int {
	n := 0
	for _, t := range all {
		if t.Handler != nil {
			n++
		}
	}
	return n
}

func uniqueDeps(t *export.Task) []*export.Task {
	seen := make(map[string]bool)
	var out []*export.Task
	for _, dep := range t.DependsOn {
		if seen[dep.ID] {
			continue
		}
		seen[dep.ID] = true
		out = append(out, dep)
	}
	return out
}
