// Package process implements the process-pool execution backend.
//
// Each task's work runs in an isolated child OS process, so only
// transferable work — domain.Command argv — is accepted. In-process
// closures cannot cross the isolation boundary; dispatching one here fails
// that task with domain.ErrWorkNotTransferable instead of silently running
// it in shared memory.
package process

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/dagflow/pkg/domain"
	"go.uber.org/zap"
)

type job struct {
	ctx    context.Context
	task   *domain.Task
	report func(ok bool)
}

// Executor fans command tasks out to a fixed set of workers, each attempt
// spawning one child process. The batch contract matches the goroutine
// pool: ExecuteBatch blocks until every member has finished.
type Executor struct {
	size   int
	logger *zap.Logger

	jobs      chan job
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a process pool with the given worker count.
func New(size int, logger *zap.Logger) *Executor {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Executor{
		size:   size,
		logger: logger,
		jobs:   make(chan job),
	}

	for i := 0; i < size; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}

	logger.Debug("process pool started", zap.Int("workers", size))
	return e
}

func (e *Executor) worker(id int) {
	defer e.wg.Done()

	for j := range e.jobs {
		e.logger.Debug("worker picked up task",
			zap.Int("worker_id", id),
			zap.String("task", j.task.Name()))
		j.report(e.run(j.ctx, j.task))
	}
}

func (e *Executor) run(ctx context.Context, t *domain.Task) bool {
	if _, ok := t.Action().(domain.Command); !ok {
		if !t.IsReady() {
			return false
		}
		e.logger.Warn("task work is not a command, cannot isolate in a process",
			zap.String("task", t.Name()))
		t.RecordFailure(domain.ErrWorkNotTransferable)
		return false
	}
	return t.Run(ctx)
}

// Execute runs a single task through the pool.
func (e *Executor) Execute(ctx context.Context, t *domain.Task) bool {
	return e.ExecuteBatch(ctx, []*domain.Task{t})[0]
}

// ExecuteBatch submits every task and waits for the whole batch to finish.
func (e *Executor) ExecuteBatch(ctx context.Context, tasks []*domain.Task) []bool {
	results := make([]bool, len(tasks))

	var barrier sync.WaitGroup
	barrier.Add(len(tasks))

	for i, t := range tasks {
		i := i
		e.jobs <- job{
			ctx:  ctx,
			task: t,
			report: func(ok bool) {
				results[i] = ok
				barrier.Done()
			},
		}
	}

	barrier.Wait()
	return results
}

// Concurrent reports that batch members run in parallel.
func (e *Executor) Concurrent() bool { return true }

// Shutdown closes the job channel and waits for all workers to drain.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.closeOnce.Do(func() { close(e.jobs) })

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Debug("process pool shut down", zap.Int("workers", e.size))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("process pool shutdown: %w", ctx.Err())
	}
}
