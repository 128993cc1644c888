package domain

import (
	"context"
	"errors"
	"testing"
)

func TestTakeSnapshotCapturesProgress(t *testing.T) {
	d := NewDAG()
	a := NewTask("a", succeedWith("out-a"), 0)
	b := NewTask("b", failWith(errors.New("boom")), 1)
	b.AddDependency(a)
	mustRegister(t, d, a)
	mustRegister(t, d, b)

	a.Run(context.Background())
	b.Run(context.Background()) // fails once, reverts to PENDING

	snap := TakeSnapshot(d)

	if len(snap.Tasks) != 2 {
		t.Fatalf("snapshot holds %d tasks, want 2", len(snap.Tasks))
	}
	if snap.Metadata.SavedAt.IsZero() {
		t.Fatal("snapshot has no saved_at timestamp")
	}

	ta := snap.Tasks["a"]
	if ta.State != StateSuccess {
		t.Fatalf("a state = %s, want %s", ta.State, StateSuccess)
	}
	if string(ta.Result) != `"out-a"` {
		t.Fatalf("a result = %s, want %q", ta.Result, `"out-a"`)
	}

	tb := snap.Tasks["b"]
	if tb.State != StatePending {
		t.Fatalf("b state = %s, want %s", tb.State, StatePending)
	}
	if tb.RetryCount != 1 {
		t.Fatalf("b retry count = %d, want 1", tb.RetryCount)
	}
	if tb.Exception != "boom" {
		t.Fatalf("b exception = %q, want %q", tb.Exception, "boom")
	}
	if len(tb.Dependencies) != 1 || tb.Dependencies[0] != "a" {
		t.Fatalf("b dependencies = %v, want [a]", tb.Dependencies)
	}
}

func TestSnapshotSkipsUnserializableResult(t *testing.T) {
	d := NewDAG()
	a := NewTask("a", succeedWith(make(chan int)), 0)
	mustRegister(t, d, a)
	a.Run(context.Background())

	snap := TakeSnapshot(d)
	if got := snap.Tasks["a"].Result; got != nil {
		t.Fatalf("result = %s, want omitted for unserializable value", got)
	}
	// The in-memory value is untouched.
	if a.Result() == nil {
		t.Fatal("in-memory result was lost")
	}
}

func TestApplyToRestoresState(t *testing.T) {
	build := func() *DAG {
		d := NewDAG()
		a := NewTask("a", succeedWith("out-a"), 0)
		b := NewTask("b", failWith(errors.New("boom")), 1)
		b.AddDependency(a)
		mustRegister(t, d, a)
		mustRegister(t, d, b)
		return d
	}

	src := build()
	for _, task := range src.Tasks() {
		task.Run(context.Background())
	}
	snap := TakeSnapshot(src)

	dst := build()
	if restored := snap.ApplyTo(dst); restored != 2 {
		t.Fatalf("restored %d tasks, want 2", restored)
	}

	a, _ := dst.Lookup("a")
	if a.State() != StateSuccess {
		t.Fatalf("a state = %s, want %s", a.State(), StateSuccess)
	}
	if a.Result() != "out-a" {
		t.Fatalf("a result = %v, want out-a", a.Result())
	}

	b, _ := dst.Lookup("b")
	if b.State() != StatePending {
		t.Fatalf("b state = %s, want %s", b.State(), StatePending)
	}
	if b.RetryCount() != 1 {
		t.Fatalf("b retry count = %d, want 1", b.RetryCount())
	}
	if b.Err() == nil || b.Err().Error() != "boom" {
		t.Fatalf("b err = %v, want boom", b.Err())
	}

	// The restored graph resumes where the source left off: a stays done,
	// b is ready for its remaining attempt.
	if !b.IsReady() {
		t.Fatal("b not ready after restore")
	}
}

func TestApplyToIgnoresGhostTasks(t *testing.T) {
	snap := &Snapshot{
		Tasks: map[string]TaskSnapshot{
			"known":   {State: StateSuccess},
			"unknown": {State: StateFailed},
		},
	}

	d := NewDAG()
	mustRegister(t, d, NewTask("known", nil, 0))

	if restored := snap.ApplyTo(d); restored != 1 {
		t.Fatalf("restored %d tasks, want 1", restored)
	}
	if d.Len() != 1 {
		t.Fatalf("graph grew to %d tasks", d.Len())
	}

	known, _ := d.Lookup("known")
	if known.State() != StateSuccess {
		t.Fatalf("known state = %s, want %s", known.State(), StateSuccess)
	}
}

func TestApplyToLeavesNewTasksPending(t *testing.T) {
	snap := &Snapshot{Tasks: map[string]TaskSnapshot{}}

	d := NewDAG()
	mustRegister(t, d, NewTask("fresh", nil, 0))
	snap.ApplyTo(d)

	fresh, _ := d.Lookup("fresh")
	if fresh.State() != StatePending {
		t.Fatalf("fresh state = %s, want %s", fresh.State(), StatePending)
	}
}
