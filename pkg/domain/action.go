package domain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Action is the work a task performs. Implementations return an opaque
// result on success or an error on failure; the task state machine decides
// what a failure means (retry or terminal FAILED).
type Action interface {
	Execute(ctx context.Context) (any, error)
}

// ActionFunc adapts an in-process closure to Action. ActionFunc work is not
// transferable: it runs only on the sequential and goroutine-pool backends.
type ActionFunc func(ctx context.Context) (any, error)

// Execute runs the closure.
func (f ActionFunc) Execute(ctx context.Context) (any, error) {
	return f(ctx)
}

// Command is transferable work: an argv executed in a child OS process.
// It is the only form of work the process executor accepts, since a child
// process shares no mutable memory with the engine.
type Command []string

// Execute runs the command and returns its combined output, trimmed.
func (c Command) Execute(ctx context.Context) (any, error) {
	if len(c) == 0 {
		return nil, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, c[0], c[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("command %q failed: %w: %s", c[0], err, strings.TrimSpace(string(out)))
	}

	return strings.TrimSpace(string(out)), nil
}
