// Package events provides event fabric implementations.
//
// Implementations:
//   - memory: synchronous in-process fabric used by the engine
//
// Listeners receive notifications inline with orchestration, in
// registration order; listener faults are isolated from the caller.
package events
