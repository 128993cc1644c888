package prometheus

import (
	"testing"
	"time"

	"github.com/aescanero/dagflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func event(kind domain.EventKind, task *domain.Task) domain.Event {
	return domain.Event{Kind: kind, Task: task, Timestamp: time.Now()}
}

func TestCollectorCountsTaskOutcomes(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	a := domain.NewTask("a", nil, 0)
	b := domain.NewTask("b", nil, 0)

	c.HandleEvent(event(domain.EventTaskStarted, a))
	c.HandleEvent(event(domain.EventTaskSucceeded, a))
	c.HandleEvent(event(domain.EventTaskStarted, b))
	c.HandleEvent(event(domain.EventTaskFailed, b))

	if got := testutil.ToFloat64(c.tasksTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("success total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.tasksTotal.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.runningTasks); got != 0 {
		t.Fatalf("running gauge = %v, want 0 after both finished", got)
	}
}

func TestCollectorTracksRetriesAndRuns(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	a := domain.NewTask("a", nil, 1)
	c.HandleEvent(event(domain.EventWorkflowStarted, nil))
	c.HandleEvent(event(domain.EventTaskStarted, a))
	c.HandleEvent(event(domain.EventTaskRetried, a))
	c.HandleEvent(event(domain.EventWorkflowCompleted, nil))

	if got := testutil.ToFloat64(c.taskRetries); got != 1 {
		t.Fatalf("retries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.runsStarted); got != 1 {
		t.Fatalf("runs started = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.runsFinished); got != 1 {
		t.Fatalf("runs finished = %v, want 1", got)
	}
}

func TestCollectorIgnoresNilTask(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	// Malformed events must not panic.
	c.HandleEvent(event(domain.EventTaskStarted, nil))
	c.HandleEvent(event(domain.EventTaskSucceeded, nil))
	c.HandleEvent(event(domain.EventTaskFailed, nil))
}
