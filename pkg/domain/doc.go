// Package domain holds the core model of the workflow engine: tasks, the
// dependency graph, the event vocabulary and the checkpoint snapshot form.
//
// Everything here is execution-backend agnostic. The scheduler in
// internal/application/scheduler drives these types, and the adapters under
// pkg/adapters plug in concrete executors, event fabrics and checkpoint
// stores through the contracts in pkg/ports.
package domain
