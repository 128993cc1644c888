package domain

import "time"

// EventKind identifies one of the closed set of engine notifications.
type EventKind string

const (
	EventTaskStarted       EventKind = "task_started"
	EventTaskSucceeded     EventKind = "task_succeeded"
	EventTaskFailed        EventKind = "task_failed"
	EventTaskRetried       EventKind = "task_retried"
	EventWorkflowStarted   EventKind = "workflow_started"
	EventWorkflowCompleted EventKind = "workflow_completed"
)

// EventKinds returns every defined kind, task-level first.
func EventKinds() []EventKind {
	return []EventKind{
		EventTaskStarted,
		EventTaskSucceeded,
		EventTaskFailed,
		EventTaskRetried,
		EventWorkflowStarted,
		EventWorkflowCompleted,
	}
}

// Event is the payload delivered to listeners. The field set is fixed per
// kind: Task is nil for workflow-level events and Err is set only on
// task_failed. Listeners must not mutate the referenced task.
type Event struct {
	ID        string
	Kind      EventKind
	RunID     string
	Task      *Task
	Err       error
	Timestamp time.Time
}

// Listener consumes events published through the event fabric.
type Listener interface {
	HandleEvent(e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event)

// HandleEvent calls the function.
func (f ListenerFunc) HandleEvent(e Event) { f(e) }
