// Package local implements the sequential execution backend.
package local

import (
	"context"

	"github.com/aescanero/dagflow/pkg/domain"
	"go.uber.org/zap"
)

// Executor runs tasks one at a time in the caller's goroutine.
type Executor struct {
	logger *zap.Logger
}

// New creates a sequential executor.
func New(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger}
}

// Execute runs the task synchronously and reports whether it succeeded.
func (e *Executor) Execute(ctx context.Context, t *domain.Task) bool {
	e.logger.Debug("executing task", zap.String("task", t.Name()))
	return t.Run(ctx)
}

// ExecuteBatch runs the batch members sequentially, in order.
func (e *Executor) ExecuteBatch(ctx context.Context, tasks []*domain.Task) []bool {
	results := make([]bool, len(tasks))
	for i, t := range tasks {
		results[i] = e.Execute(ctx, t)
	}
	return results
}

// Concurrent reports that this backend never runs tasks in parallel.
func (e *Executor) Concurrent() bool { return false }

// Shutdown is a no-op: the sequential backend holds no resources.
func (e *Executor) Shutdown(ctx context.Context) error { return nil }
