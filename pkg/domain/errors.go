package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateTask is returned when registering a task name that
	// already exists in the graph.
	ErrDuplicateTask = errors.New("duplicate task")

	// ErrMissingDependency is returned by Validate when a task depends on
	// a task that was never registered.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrSnapshotNotFound is returned by checkpoint stores when a resume
	// is requested against a checkpoint that does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrWorkNotTransferable is recorded as a task's failure when its work
	// cannot cross the process isolation boundary of the process executor.
	ErrWorkNotTransferable = errors.New("work is not transferable across process boundary")
)

// CircularDependencyError reports a dependency cycle found during graph
// validation. Cycle holds the offending path, closed on its first element.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Cycle) == 0 {
		return "circular dependency detected"
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}
