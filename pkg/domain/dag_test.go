package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func mustRegister(t *testing.T, d *DAG, task *Task) {
	t.Helper()
	if err := d.Register(task); err != nil {
		t.Fatalf("Register(%s): %v", task.Name(), err)
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	d := NewDAG()
	mustRegister(t, d, NewTask("a", nil, 0))

	err := d.Register(NewTask("a", nil, 0))
	if !errors.Is(err, ErrDuplicateTask) {
		t.Fatalf("err = %v, want ErrDuplicateTask", err)
	}
	if d.Len() != 1 {
		t.Fatalf("len = %d, want 1", d.Len())
	}
}

func TestRegisterRejectsNilAndUnnamed(t *testing.T) {
	d := NewDAG()
	if err := d.Register(nil); err == nil {
		t.Fatal("Register(nil) returned nil error")
	}
	if err := d.Register(NewTask("", nil, 0)); err == nil {
		t.Fatal("Register of unnamed task returned nil error")
	}
}

func TestValidateMissingDependency(t *testing.T) {
	d := NewDAG()
	ghost := NewTask("ghost", nil, 0)
	a := NewTask("a", nil, 0)
	a.AddDependency(ghost)
	mustRegister(t, d, a)

	err := d.Validate()
	if !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("err = %v, want ErrMissingDependency", err)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("error does not name the missing task: %v", err)
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	d := NewDAG()
	a := NewTask("a", nil, 0)
	b := NewTask("b", nil, 0)
	c := NewTask("c", nil, 0)
	a.AddDependency(c)
	b.AddDependency(a)
	c.AddDependency(b)
	mustRegister(t, d, a)
	mustRegister(t, d, b)
	mustRegister(t, d, c)

	err := d.Validate()
	var cycleErr *CircularDependencyError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("err = %v, want CircularDependencyError", err)
	}

	// The reported path closes on itself and only names cycle members.
	if len(cycleErr.Cycle) < 2 {
		t.Fatalf("cycle too short: %v", cycleErr.Cycle)
	}
	if first, last := cycleErr.Cycle[0], cycleErr.Cycle[len(cycleErr.Cycle)-1]; first != last {
		t.Fatalf("cycle does not close: starts %q, ends %q", first, last)
	}
	for _, name := range cycleErr.Cycle {
		if name != "a" && name != "b" && name != "c" {
			t.Fatalf("cycle names non-member %q: %v", name, cycleErr.Cycle)
		}
	}
}

func TestValidateSelfCycle(t *testing.T) {
	d := NewDAG()
	a := NewTask("a", nil, 0)
	a.AddDependency(a)
	mustRegister(t, d, a)

	var cycleErr *CircularDependencyError
	if err := d.Validate(); !errors.As(err, &cycleErr) {
		t.Fatalf("err = %v, want CircularDependencyError", err)
	}
}

func TestValidateAcyclicDiamond(t *testing.T) {
	d := diamond(t)
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

// diamond builds a -> {b, c} -> d.
func diamond(t *testing.T) *DAG {
	t.Helper()
	d := NewDAG()
	a := NewTask("a", nil, 0)
	b := NewTask("b", nil, 0)
	c := NewTask("c", nil, 0)
	e := NewTask("d", nil, 0)
	b.AddDependency(a)
	c.AddDependency(a)
	e.AddDependency(b)
	e.AddDependency(c)
	mustRegister(t, d, a)
	mustRegister(t, d, b)
	mustRegister(t, d, c)
	mustRegister(t, d, e)
	return d
}

func TestTopologicalOrder(t *testing.T) {
	d := diamond(t)

	order, err := d.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("order has %d tasks, want 4", len(order))
	}

	pos := make(map[string]int, len(order))
	for i, task := range order {
		pos[task.Name()] = i
	}
	for _, task := range d.Tasks() {
		for _, dep := range task.Dependencies() {
			if pos[dep.Name()] >= pos[task.Name()] {
				t.Fatalf("%s appears before its dependency %s: %v",
					task.Name(), dep.Name(), names(order))
			}
		}
	}
}

func TestTopologicalOrderDeterministic(t *testing.T) {
	d := diamond(t)

	first, err := d.TopologicalOrder()
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := d.TopologicalOrder()
		if err != nil {
			t.Fatalf("TopologicalOrder: %v", err)
		}
		for j := range first {
			if first[j].Name() != again[j].Name() {
				t.Fatalf("order changed between calls: %v vs %v", names(first), names(again))
			}
		}
	}
}

func TestTopologicalOrderFailsOnCycle(t *testing.T) {
	d := NewDAG()
	a := NewTask("a", nil, 0)
	b := NewTask("b", nil, 0)
	a.AddDependency(b)
	b.AddDependency(a)
	mustRegister(t, d, a)
	mustRegister(t, d, b)

	if _, err := d.TopologicalOrder(); err == nil {
		t.Fatal("TopologicalOrder returned nil error for cyclic graph")
	}
}

func TestReadyTasksRegistrationOrder(t *testing.T) {
	d := NewDAG()
	// Register out of alphabetical order to pin the tie-break.
	z := NewTask("z", nil, 0)
	a := NewTask("a", nil, 0)
	m := NewTask("m", nil, 0)
	blocked := NewTask("blocked", nil, 0)
	blocked.AddDependency(z)
	mustRegister(t, d, z)
	mustRegister(t, d, a)
	mustRegister(t, d, m)
	mustRegister(t, d, blocked)

	got := names(d.ReadyTasks())
	want := []string{"z", "a", "m"}
	if len(got) != len(want) {
		t.Fatalf("ready = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ready = %v, want %v", got, want)
		}
	}

	z.Run(context.Background())
	got = names(d.ReadyTasks())
	if len(got) != 3 || got[2] != "blocked" {
		t.Fatalf("ready after z = %v, want [a m blocked]", got)
	}
}

func TestLookup(t *testing.T) {
	d := NewDAG()
	mustRegister(t, d, NewTask("a", nil, 0))

	if _, ok := d.Lookup("a"); !ok {
		t.Fatal("Lookup failed for registered task")
	}
	if _, ok := d.Lookup("nope"); ok {
		t.Fatal("Lookup succeeded for unknown task")
	}
}

func names(tasks []*Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name()
	}
	return out
}
