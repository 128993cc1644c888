// Package logging implements the logging observability collaborator: a zap
// backed listener that narrates task and workflow lifecycle events. It
// consumes the event fabric only and never mutates engine state.
package logging

import (
	"github.com/aescanero/dagflow/pkg/domain"
	"github.com/aescanero/dagflow/pkg/ports"
	"go.uber.org/zap"
)

// EventLogger logs every engine lifecycle event.
type EventLogger struct {
	logger *zap.Logger
}

// NewEventLogger creates a listener logging through the given logger.
func NewEventLogger(logger *zap.Logger) *EventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLogger{logger: logger}
}

// Attach registers the logger for every event kind.
func (l *EventLogger) Attach(bus ports.EventBus) {
	for _, kind := range domain.EventKinds() {
		bus.Register(kind, l)
	}
}

// HandleEvent writes one log line per event.
func (l *EventLogger) HandleEvent(e domain.Event) {
	fields := []zap.Field{zap.String("run_id", e.RunID)}
	if e.Task != nil {
		fields = append(fields,
			zap.String("task", e.Task.Name()),
			zap.Int("retry_count", e.Task.RetryCount()))
	}

	switch e.Kind {
	case domain.EventTaskStarted:
		l.logger.Info("task started", fields...)
	case domain.EventTaskSucceeded:
		l.logger.Info("task succeeded", fields...)
	case domain.EventTaskFailed:
		l.logger.Error("task failed", append(fields, zap.Error(e.Err))...)
	case domain.EventTaskRetried:
		l.logger.Warn("task retried", fields...)
	case domain.EventWorkflowStarted:
		l.logger.Info("workflow started", fields...)
	case domain.EventWorkflowCompleted:
		l.logger.Info("workflow completed", fields...)
	}
}
