package domain

import (
	"context"
	"fmt"
	"sync"
)

// TaskState is the lifecycle state of a task.
type TaskState string

const (
	StatePending TaskState = "PENDING"
	StateRunning TaskState = "RUNNING"
	StateSuccess TaskState = "SUCCESS"
	StateFailed  TaskState = "FAILED"
)

// Task is a named, retryable unit of work with declared prerequisites.
//
// A task never owns its dependencies; it holds shared references to tasks
// owned by the graph. The name is immutable after creation. Mutable fields
// (state, retry count, result, error) are guarded by a mutex so observers
// can read them while a backend executes the task.
type Task struct {
	name       string
	action     Action
	deps       []*Task
	maxRetries int

	mu         sync.Mutex
	state      TaskState
	retryCount int
	result     any
	err        error
}

// NewTask creates a task in PENDING state. maxRetries is the number of
// additional attempts allowed after the first failure; 0 means a single
// attempt.
func NewTask(name string, action Action, maxRetries int) *Task {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Task{
		name:       name,
		action:     action,
		maxRetries: maxRetries,
		state:      StatePending,
	}
}

// Name returns the task's unique name.
func (t *Task) Name() string { return t.name }

// Action returns the work this task performs.
func (t *Task) Action() Action { return t.action }

// MaxRetries returns the retry budget.
func (t *Task) MaxRetries() int { return t.maxRetries }

// AddDependency declares that this task runs only after dep succeeds.
// Dependencies must be added before execution begins.
func (t *Task) AddDependency(dep *Task) {
	t.deps = append(t.deps, dep)
}

// Dependencies returns the task's prerequisites in declaration order.
func (t *Task) Dependencies() []*Task {
	out := make([]*Task, len(t.deps))
	copy(out, t.deps)
	return out
}

// State returns the current lifecycle state.
func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// RetryCount returns the number of failed attempts consumed so far.
func (t *Task) RetryCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.retryCount
}

// Result returns the last successful output, retained across re-runs.
func (t *Task) Result() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Err returns the last captured failure, or nil.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// IsReady reports whether the task is PENDING with every dependency in
// SUCCESS.
func (t *Task) IsReady() bool {
	if t.State() != StatePending {
		return false
	}
	for _, dep := range t.deps {
		if dep.State() != StateSuccess {
			return false
		}
	}
	return true
}

// IsUnreachable reports whether the task can never become ready because a
// transitive dependency is terminally FAILED.
func (t *Task) IsUnreachable() bool {
	stack := make([]*Task, len(t.deps))
	copy(stack, t.deps)
	seen := make(map[string]struct{}, len(t.deps))

	for len(stack) > 0 {
		dep := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[dep.name]; ok {
			continue
		}
		seen[dep.name] = struct{}{}

		if dep.State() == StateFailed {
			return true
		}
		stack = append(stack, dep.deps...)
	}
	return false
}

// Run executes one attempt of the task's work.
//
// Running a non-ready task is a no-op that reports false without mutating
// state. On success the task moves to SUCCESS with the result stored and any
// prior error cleared. On failure the retry counter advances and the task
// either reverts to PENDING (budget remaining) or lands in terminal FAILED.
func (t *Task) Run(ctx context.Context) bool {
	if !t.IsReady() {
		return false
	}

	t.mu.Lock()
	t.state = StateRunning
	t.mu.Unlock()

	res, err := runAction(ctx, t.action)
	if err == nil {
		t.mu.Lock()
		t.state = StateSuccess
		t.result = res
		t.err = nil
		t.mu.Unlock()
		return true
	}

	t.recordFailureLocked(err)
	return false
}

// RecordFailure consumes one attempt with the given error without executing
// the work. Used by backends that must reject a task they cannot run, for
// example non-transferable work handed to the process executor.
func (t *Task) RecordFailure(err error) {
	t.recordFailureLocked(err)
}

func (t *Task) recordFailureLocked(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.retryCount++
	t.err = err
	if t.retryCount <= t.maxRetries {
		t.state = StatePending
	} else {
		t.state = StateFailed
	}
}

// MarkFailed forces the task into terminal FAILED with the given cause,
// bypassing the retry budget. The scheduler uses this to foreclose tasks
// whose prerequisites have permanently failed.
func (t *Task) MarkFailed(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateFailed
	t.err = err
}

// Reset returns the task to PENDING with a fresh retry budget. Intended for
// explicit re-runs only; the scheduler never calls it.
func (t *Task) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StatePending
	t.retryCount = 0
}

// Restore overwrites the task's mutable fields from a checkpoint.
func (t *Task) Restore(state TaskState, retryCount int, result any, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.retryCount = retryCount
	if result != nil {
		t.result = result
	}
	t.err = err
}

// runAction shields the engine from panicking work: a panic inside an
// action surfaces as an ordinary attempt failure.
func runAction(ctx context.Context, a Action) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task work panicked: %v", r)
		}
	}()

	if a == nil {
		return nil, nil
	}
	return a.Execute(ctx)
}
