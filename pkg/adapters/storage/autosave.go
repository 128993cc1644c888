package storage

import (
	"context"

	"github.com/aescanero/dagflow/pkg/domain"
	"github.com/aescanero/dagflow/pkg/ports"
	"go.uber.org/zap"
)

// DefaultTriggerKinds are the event kinds an AutoSaver subscribes to when
// none are chosen explicitly.
var DefaultTriggerKinds = []domain.EventKind{
	domain.EventTaskSucceeded,
	domain.EventWorkflowCompleted,
}

// AutoSaver snapshots a graph through a checkpoint store whenever a
// subscribed event fires. Save failures are logged and never raised into
// the orchestration path.
type AutoSaver struct {
	store  ports.CheckpointStore
	dag    *domain.DAG
	logger *zap.Logger
}

// NewAutoSaver creates an auto-saver for the given graph and store.
func NewAutoSaver(store ports.CheckpointStore, dag *domain.DAG, logger *zap.Logger) *AutoSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoSaver{store: store, dag: dag, logger: logger}
}

// Attach subscribes the auto-saver to the event fabric for the given kinds,
// or DefaultTriggerKinds when none are given.
func (a *AutoSaver) Attach(bus ports.EventBus, kinds ...domain.EventKind) {
	if len(kinds) == 0 {
		kinds = DefaultTriggerKinds
	}
	for _, kind := range kinds {
		bus.Register(kind, a)
	}
}

// HandleEvent takes and saves a snapshot.
func (a *AutoSaver) HandleEvent(e domain.Event) {
	snap := domain.TakeSnapshot(a.dag)
	if err := a.store.Save(context.Background(), snap); err != nil {
		a.logger.Error("auto-save failed",
			zap.String("trigger", string(e.Kind)),
			zap.Error(err))
	}
}
