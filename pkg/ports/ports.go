package ports

import (
	"context"

	"github.com/aescanero/dagflow/pkg/domain"
)

// Executor runs ready tasks on some execution backend.
//
// Execute and ExecuteBatch report per-task success: true means the task
// reached SUCCESS, false covers both a retryable failure (task back in
// PENDING) and terminal FAILED; callers inspect the task state to tell the
// two apart. Both calls block until the submitted work has finished.
type Executor interface {
	// Execute runs a single task synchronously in the caller's flow.
	Execute(ctx context.Context, t *domain.Task) bool

	// ExecuteBatch runs a batch and blocks until every member finished.
	// Results align index-for-index with tasks.
	ExecuteBatch(ctx context.Context, tasks []*domain.Task) []bool

	// Concurrent reports whether ExecuteBatch runs members in parallel.
	// The scheduler uses single-unit dispatch for non-concurrent backends.
	Concurrent() bool

	// Shutdown releases pooled resources. It must leave no workers behind
	// and is safe to call more than once.
	Shutdown(ctx context.Context) error
}

// EventBus is the publish/subscribe fabric decoupling orchestration from
// observability and persistence triggers.
//
// Notify invokes listeners registered for the event's kind synchronously,
// in registration order. A listener fault must not interrupt the remaining
// listeners or surface to the caller. Register is idempotent for the
// identical listener on the same kind.
type EventBus interface {
	Register(kind domain.EventKind, l domain.Listener)
	Unregister(kind domain.EventKind, l domain.Listener)
	Notify(e domain.Event)
}

// CheckpointStore persists and restores workflow snapshots.
type CheckpointStore interface {
	// Save durably writes the snapshot. A partially written snapshot must
	// never replace a previously valid one.
	Save(ctx context.Context, snap *domain.Snapshot) error

	// Load returns the stored snapshot, or an error wrapping
	// domain.ErrSnapshotNotFound when none exists.
	Load(ctx context.Context) (*domain.Snapshot, error)
}
