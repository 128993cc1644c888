package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Snapshot is a point-in-time record of every task's progress, suitable for
// durable checkpointing and later resume.
type Snapshot struct {
	Tasks    map[string]TaskSnapshot `json:"tasks"`
	Metadata SnapshotMetadata        `json:"metadata"`
}

// TaskSnapshot captures one task's mutable fields.
//
// Result is present only when the task's result marshals to JSON cleanly;
// a result that does not satisfy that capability stays in memory and is
// excluded from the checkpoint rather than coerced to a lossy string form.
type TaskSnapshot struct {
	State        TaskState       `json:"state"`
	RetryCount   int             `json:"retry_count"`
	Result       json.RawMessage `json:"result,omitempty"`
	Exception    string          `json:"exception,omitempty"`
	Dependencies []string        `json:"dependencies"`
}

// SnapshotMetadata carries bookkeeping about the snapshot itself.
type SnapshotMetadata struct {
	SavedAt time.Time `json:"saved_at"`
}

// TakeSnapshot captures the current state of every task in the graph.
func TakeSnapshot(d *DAG) *Snapshot {
	snap := &Snapshot{
		Tasks:    make(map[string]TaskSnapshot, d.Len()),
		Metadata: SnapshotMetadata{SavedAt: time.Now().UTC()},
	}

	for _, t := range d.Tasks() {
		ts := TaskSnapshot{
			State:        t.State(),
			RetryCount:   t.RetryCount(),
			Dependencies: make([]string, 0, len(t.deps)),
		}
		for _, dep := range t.Dependencies() {
			ts.Dependencies = append(ts.Dependencies, dep.Name())
		}
		if err := t.Err(); err != nil {
			ts.Exception = err.Error()
		}
		if res := t.Result(); res != nil {
			if raw, err := json.Marshal(res); err == nil {
				ts.Result = raw
			}
		}
		snap.Tasks[t.Name()] = ts
	}

	return snap
}

// ApplyTo overwrites task state in the graph from the snapshot and reports
// how many tasks were restored.
//
// Only names present in both the snapshot and the graph are touched: tasks
// known only to the snapshot are ignored (no ghost tasks are created), and
// tasks known only to the graph stay at their default PENDING.
func (s *Snapshot) ApplyTo(d *DAG) int {
	restored := 0
	for name, ts := range s.Tasks {
		task, ok := d.Lookup(name)
		if !ok {
			continue
		}

		var result any
		if len(ts.Result) > 0 {
			if err := json.Unmarshal(ts.Result, &result); err != nil {
				result = nil
			}
		}

		var taskErr error
		if ts.Exception != "" {
			taskErr = errors.New(ts.Exception)
		}

		task.Restore(ts.State, ts.RetryCount, result, taskErr)
		restored++
	}
	return restored
}
