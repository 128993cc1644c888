package domain

import (
	"fmt"
)

// DAG owns every task of a run, keyed by unique name. Registration order is
// preserved and used as the tie-break for traversal and reporting.
//
// The node set is fixed once a run starts; only task states change after
// that point. Registration is not synchronized: build the graph fully
// before handing it to a scheduler.
type DAG struct {
	tasks map[string]*Task
	order []string
}

// NewDAG creates an empty graph.
func NewDAG() *DAG {
	return &DAG{tasks: make(map[string]*Task)}
}

// Register adds a task to the graph. Registering a name twice fails with
// ErrDuplicateTask.
func (d *DAG) Register(t *Task) error {
	if t == nil {
		return fmt.Errorf("nil task")
	}
	if t.Name() == "" {
		return fmt.Errorf("task name is required")
	}
	if _, exists := d.tasks[t.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTask, t.Name())
	}

	d.tasks[t.Name()] = t
	d.order = append(d.order, t.Name())
	return nil
}

// Lookup returns the task registered under name.
func (d *DAG) Lookup(name string) (*Task, bool) {
	t, ok := d.tasks[name]
	return t, ok
}

// Len returns the number of registered tasks.
func (d *DAG) Len() int { return len(d.order) }

// Tasks returns all tasks in registration order.
func (d *DAG) Tasks() []*Task {
	out := make([]*Task, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.tasks[name])
	}
	return out
}

// Validate checks referential integrity and acyclicity.
//
// It fails with ErrMissingDependency if any task depends on a task that is
// not registered in this graph, and with a CircularDependencyError carrying
// the offending path if the dependency relation contains a cycle.
func (d *DAG) Validate() error {
	for _, name := range d.order {
		for _, dep := range d.tasks[name].deps {
			if _, ok := d.tasks[dep.Name()]; !ok {
				return fmt.Errorf("%w: task %q depends on unregistered task %q",
					ErrMissingDependency, name, dep.Name())
			}
		}
	}

	if cycle := d.findCycle(); cycle != nil {
		return &CircularDependencyError{Cycle: cycle}
	}
	return nil
}

// TopologicalOrder returns every task positioned after all its
// dependencies. It validates the graph first and fails if validation fails.
//
// The order is a de-duplicated post-order DFS over dense task indices,
// iterating roots in registration order, so it is deterministic for a given
// registration sequence.
func (d *DAG) TopologicalOrder() ([]*Task, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	index := d.indexByName()
	adj := d.adjacency(index)

	visited := make([]bool, len(d.order))
	out := make([]*Task, 0, len(d.order))

	// Explicit stack instead of recursion: frame.next tracks which
	// dependency to descend into when the frame resurfaces.
	type frame struct {
		idx  int
		next int
	}

	for i := range d.order {
		if visited[i] {
			continue
		}
		stack := []frame{{idx: i}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := adj[top.idx]
			if top.next < len(deps) {
				child := deps[top.next]
				top.next++
				if !visited[child] {
					stack = append(stack, frame{idx: child})
				}
				continue
			}
			if !visited[top.idx] {
				visited[top.idx] = true
				out = append(out, d.tasks[d.order[top.idx]])
			}
			stack = stack[:len(stack)-1]
		}
	}

	return out, nil
}

// ReadyTasks returns, in registration order, every PENDING task whose
// dependencies are all SUCCESS.
func (d *DAG) ReadyTasks() []*Task {
	var ready []*Task
	for _, name := range d.order {
		if t := d.tasks[name]; t.IsReady() {
			ready = append(ready, t)
		}
	}
	return ready
}

func (d *DAG) indexByName() map[string]int {
	index := make(map[string]int, len(d.order))
	for i, name := range d.order {
		index[name] = i
	}
	return index
}

// adjacency maps each task index to the indices of its dependencies.
// Dependencies whose names are not registered are skipped; Validate reports
// those separately.
func (d *DAG) adjacency(index map[string]int) [][]int {
	adj := make([][]int, len(d.order))
	for i, name := range d.order {
		for _, dep := range d.tasks[name].deps {
			if j, ok := index[dep.Name()]; ok {
				adj[i] = append(adj[i], j)
			}
		}
	}
	return adj
}

// findCycle runs an iterative three-color DFS over dense indices. A
// back-edge to a gray node signals a cycle; the gray stack at that moment
// is the cycle path. Returns nil when the graph is acyclic.
func (d *DAG) findCycle() []string {
	const (
		white = iota
		gray
		black
	)

	index := d.indexByName()
	adj := d.adjacency(index)
	color := make([]int, len(d.order))

	type frame struct {
		idx  int
		next int
	}

	for i := range d.order {
		if color[i] != white {
			continue
		}
		stack := []frame{{idx: i}}
		color[i] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := adj[top.idx]

			if top.next < len(deps) {
				child := deps[top.next]
				top.next++

				switch color[child] {
				case white:
					color[child] = gray
					stack = append(stack, frame{idx: child})
				case gray:
					// Back-edge: the gray frames from child to the
					// top of the stack form the cycle.
					var cycle []string
					for k := range stack {
						if stack[k].idx == child {
							for _, f := range stack[k:] {
								cycle = append(cycle, d.order[f.idx])
							}
							break
						}
					}
					cycle = append(cycle, d.order[child])
					return cycle
				}
				continue
			}

			color[top.idx] = black
			stack = stack[:len(stack)-1]
		}
	}

	return nil
}
