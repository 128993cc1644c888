// Package prometheus implements the metrics observability collaborator.
//
// The collector consumes engine events through the event fabric only; it
// never touches task or graph state. Metrics are served by the HTTP API's
// /metrics endpoint.
package prometheus

import (
	"sync"
	"time"

	"github.com/aescanero/dagflow/pkg/domain"
	"github.com/aescanero/dagflow/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records engine metrics from lifecycle events.
type Collector struct {
	tasksTotal   *prometheus.CounterVec
	taskRetries  prometheus.Counter
	taskDuration prometheus.Histogram
	runsStarted  prometheus.Counter
	runsFinished prometheus.Counter
	runningTasks prometheus.Gauge

	mu       sync.Mutex
	started  map[string]time.Time
	runStart time.Time
	runTime  prometheus.Histogram
}

// NewCollector creates a collector registered with reg, or with the default
// registry when reg is nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		tasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dagflow_tasks_total",
				Help: "Total number of task executions by terminal status",
			},
			[]string{"status"},
		),
		taskRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dagflow_task_retries_total",
				Help: "Total number of task retry attempts",
			},
		),
		taskDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dagflow_task_duration_seconds",
				Help:    "Task execution duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		runsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dagflow_workflows_started_total",
				Help: "Total number of workflow runs started",
			},
		),
		runsFinished: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dagflow_workflows_completed_total",
				Help: "Total number of workflow runs completed",
			},
		),
		runTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dagflow_workflow_duration_seconds",
				Help:    "Workflow run duration in seconds",
				Buckets: []float64{0.1, 1, 5, 10, 30, 60, 300, 600},
			},
		),
		runningTasks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dagflow_running_tasks",
				Help: "Number of tasks currently dispatched",
			},
		),
		started: make(map[string]time.Time),
	}
}

// Attach registers the collector for every event kind.
func (c *Collector) Attach(bus ports.EventBus) {
	for _, kind := range domain.EventKinds() {
		bus.Register(kind, c)
	}
}

// HandleEvent folds one lifecycle event into the metric set.
func (c *Collector) HandleEvent(e domain.Event) {
	switch e.Kind {
	case domain.EventWorkflowStarted:
		c.mu.Lock()
		c.runStart = e.Timestamp
		c.mu.Unlock()
		c.runsStarted.Inc()

	case domain.EventWorkflowCompleted:
		c.mu.Lock()
		start := c.runStart
		c.mu.Unlock()
		if !start.IsZero() {
			c.runTime.Observe(e.Timestamp.Sub(start).Seconds())
		}
		c.runsFinished.Inc()

	case domain.EventTaskStarted:
		if e.Task == nil {
			return
		}
		c.mu.Lock()
		c.started[e.Task.Name()] = e.Timestamp
		c.mu.Unlock()
		c.runningTasks.Inc()

	case domain.EventTaskSucceeded:
		c.finishTask(e, "success")

	case domain.EventTaskFailed:
		c.finishTask(e, "failed")

	case domain.EventTaskRetried:
		c.taskRetries.Inc()
		c.runningTasks.Dec()
	}
}

func (c *Collector) finishTask(e domain.Event, status string) {
	if e.Task == nil {
		return
	}
	c.tasksTotal.WithLabelValues(status).Inc()
	c.runningTasks.Dec()

	c.mu.Lock()
	start, ok := c.started[e.Task.Name()]
	delete(c.started, e.Task.Name())
	c.mu.Unlock()
	if ok {
		c.taskDuration.Observe(e.Timestamp.Sub(start).Seconds())
	}
}
