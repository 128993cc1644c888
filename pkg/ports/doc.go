// Package ports defines the contracts between the orchestration core and
// its pluggable collaborators: execution backends, the event fabric and
// checkpoint stores. Adapters under pkg/adapters provide implementations.
package ports
