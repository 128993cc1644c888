package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aescanero/dagflow/pkg/domain"
	"github.com/aescanero/dagflow/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultIdleInterval is how long the loop sleeps when no task is ready
// and the run is not yet complete.
const DefaultIdleInterval = 100 * time.Millisecond

// Config assembles a scheduler's collaborators.
type Config struct {
	DAG      *domain.DAG
	Executor ports.Executor
	Events   ports.EventBus // optional; nil disables notifications
	Logger   *zap.Logger
	// IdleInterval overrides DefaultIdleInterval when positive. It tunes
	// poll latency, not correctness.
	IdleInterval time.Duration
}

// Scheduler owns a graph and a backend and drives one run from "all
// pending" to "every task terminal".
type Scheduler struct {
	dag    *domain.DAG
	exec   ports.Executor
	events ports.EventBus
	logger *zap.Logger
	idle   time.Duration

	mu        sync.Mutex
	runID     string
	completed map[string]struct{}
	failed    map[string]struct{}
	running   map[string]struct{}
}

// Report summarizes a finished run. Name lists are sorted.
type Report struct {
	RunID     string        `json:"run_id"`
	Completed []string      `json:"completed"`
	Failed    []string      `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// TaskStatus is a task's progress as seen by observers.
type TaskStatus struct {
	State      domain.TaskState `json:"state"`
	RetryCount int              `json:"retry_count"`
}

// Progress is a consistent point-in-time view of a run, consumed by the
// HTTP status API and the final CLI report.
type Progress struct {
	RunID     string                `json:"run_id"`
	Total     int                   `json:"total"`
	Completed []string              `json:"completed"`
	Failed    []string              `json:"failed"`
	Running   []string              `json:"running"`
	Tasks     map[string]TaskStatus `json:"tasks"`
}

// New creates a scheduler for the given graph and backend.
func New(cfg Config) (*Scheduler, error) {
	if cfg.DAG == nil {
		return nil, fmt.Errorf("nil DAG")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("nil executor")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	idle := cfg.IdleInterval
	if idle <= 0 {
		idle = DefaultIdleInterval
	}

	return &Scheduler{
		dag:       cfg.DAG,
		exec:      cfg.Executor,
		events:    cfg.Events,
		logger:    logger,
		idle:      idle,
		completed: make(map[string]struct{}),
		failed:    make(map[string]struct{}),
		running:   make(map[string]struct{}),
	}, nil
}

// Run executes the workflow until every task is terminal.
//
// Graph-integrity errors abort before any dispatch. Per-task failures never
// abort the run: independent branches continue, and only transitive
// dependents of a permanently failed task are foreclosed. The context is
// checked between rounds only; in-flight work always runs to completion.
// The backend is shut down before Run returns, on every exit path.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	defer func() {
		// Dispatch is synchronous, so no work is in flight here and the
		// drain completes even when ctx is already cancelled.
		if err := s.exec.Shutdown(context.Background()); err != nil {
			s.logger.Error("executor shutdown error", zap.Error(err))
		}
	}()

	if err := s.dag.Validate(); err != nil {
		return nil, fmt.Errorf("graph validation failed: %w", err)
	}

	s.mu.Lock()
	s.runID = uuid.New().String()
	runID := s.runID
	s.mu.Unlock()

	started := time.Now()
	s.logger.Info("workflow started",
		zap.String("run_id", runID),
		zap.Int("tasks", s.dag.Len()))
	s.notify(domain.EventWorkflowStarted, nil, nil)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run aborted: %w", err)
		}

		ready, foreclosed, done := s.poll()

		for _, t := range foreclosed {
			s.logger.Warn("task unreachable, foreclosing",
				zap.String("task", t.Name()),
				zap.Error(t.Err()))
			s.notify(domain.EventTaskFailed, t, t.Err())
		}

		if len(ready) == 0 {
			if done {
				break
			}
			select {
			case <-ctx.Done():
			case <-time.After(s.idle):
			}
			continue
		}

		s.dispatch(ctx, ready)
	}

	report := s.buildReport(started)
	s.logger.Info("workflow completed",
		zap.String("run_id", runID),
		zap.Strings("completed", report.Completed),
		zap.Strings("failed", report.Failed),
		zap.Duration("duration", report.Duration))
	s.notify(domain.EventWorkflowCompleted, nil, nil)

	return report, nil
}

// poll computes one iteration's view: tasks ready to dispatch, tasks newly
// foreclosed as unreachable, and whether every task is terminal.
func (s *Scheduler) poll() (ready, foreclosed []*domain.Task, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.dag.Tasks() {
		if t.State() != domain.StatePending {
			continue
		}
		if _, isFailed := s.failed[t.Name()]; isFailed {
			continue
		}
		if t.IsUnreachable() {
			t.MarkFailed(fmt.Errorf("dependency permanently failed, task can never become ready"))
			s.failed[t.Name()] = struct{}{}
			foreclosed = append(foreclosed, t)
		}
	}

	for _, t := range s.dag.ReadyTasks() {
		if _, isRunning := s.running[t.Name()]; isRunning {
			continue
		}
		ready = append(ready, t)
	}

	done = len(s.completed)+len(s.failed) == s.dag.Len()
	return ready, foreclosed, done
}

// dispatch hands one round of ready tasks to the backend: single-unit
// dispatch for a sequential backend, one batch with a fan-in barrier for
// pool backends.
func (s *Scheduler) dispatch(ctx context.Context, ready []*domain.Task) {
	s.mu.Lock()
	for _, t := range ready {
		s.running[t.Name()] = struct{}{}
	}
	s.mu.Unlock()

	if !s.exec.Concurrent() {
		for _, t := range ready {
			s.logger.Debug("dispatching task", zap.String("task", t.Name()))
			s.notify(domain.EventTaskStarted, t, nil)
			s.reconcile(t, s.exec.Execute(ctx, t))
		}
		return
	}

	names := make([]string, 0, len(ready))
	for _, t := range ready {
		names = append(names, t.Name())
		s.notify(domain.EventTaskStarted, t, nil)
	}
	s.logger.Debug("dispatching batch", zap.Strings("tasks", names))

	results := s.exec.ExecuteBatch(ctx, ready)
	for i, t := range ready {
		s.reconcile(t, results[i])
	}
}

// reconcile folds one execution result back into the run state and emits
// the matching lifecycle event. The mutex is held only for the update,
// never across a dispatch.
func (s *Scheduler) reconcile(t *domain.Task, ok bool) {
	var kind domain.EventKind
	var taskErr error

	s.mu.Lock()
	delete(s.running, t.Name())
	switch {
	case ok:
		s.completed[t.Name()] = struct{}{}
		kind = domain.EventTaskSucceeded
	case t.State() == domain.StateFailed:
		s.failed[t.Name()] = struct{}{}
		kind = domain.EventTaskFailed
		taskErr = t.Err()
	case t.RetryCount() > 0:
		// Attempt failed but budget remains: back to PENDING for the
		// next readiness scan.
		kind = domain.EventTaskRetried
	}
	s.mu.Unlock()

	switch kind {
	case domain.EventTaskSucceeded:
		s.logger.Info("task succeeded", zap.String("task", t.Name()))
	case domain.EventTaskFailed:
		s.logger.Error("task failed",
			zap.String("task", t.Name()),
			zap.Int("retries", t.RetryCount()),
			zap.Error(taskErr))
	case domain.EventTaskRetried:
		s.logger.Warn("task will retry",
			zap.String("task", t.Name()),
			zap.Int("retry_count", t.RetryCount()),
			zap.Error(t.Err()))
	}

	if kind != "" {
		s.notify(kind, t, taskErr)
	}
}

// Progress returns a consistent snapshot of the run state.
func (s *Scheduler) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Progress{
		RunID:     s.runID,
		Total:     s.dag.Len(),
		Completed: sortedNames(s.completed),
		Failed:    sortedNames(s.failed),
		Running:   sortedNames(s.running),
		Tasks:     make(map[string]TaskStatus, s.dag.Len()),
	}
	for _, t := range s.dag.Tasks() {
		p.Tasks[t.Name()] = TaskStatus{State: t.State(), RetryCount: t.RetryCount()}
	}
	return p
}

func (s *Scheduler) buildReport(started time.Time) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Report{
		RunID:     s.runID,
		Completed: sortedNames(s.completed),
		Failed:    sortedNames(s.failed),
		Duration:  time.Since(started),
	}
}

func (s *Scheduler) notify(kind domain.EventKind, t *domain.Task, err error) {
	if s.events == nil {
		return
	}
	s.events.Notify(domain.Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		RunID:     s.runID,
		Task:      t,
		Err:       err,
		Timestamp: time.Now().UTC(),
	})
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
