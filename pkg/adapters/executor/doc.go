// Package executor groups the execution backend implementations.
//
// Implementations:
//   - local: sequential, runs one task in the caller's goroutine
//   - pool: bounded goroutine pool with a fan-in barrier per batch
//   - process: bounded pool running transferable command work in
//     isolated child processes
//
// All backends release their workers deterministically on Shutdown.
package executor
