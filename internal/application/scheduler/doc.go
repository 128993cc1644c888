// Package scheduler implements the core orchestration loop.
//
// The scheduler drives a validated DAG to completion using a chosen
// execution backend by:
//   - Polling for ready tasks (PENDING with all dependencies SUCCESS)
//   - Foreclosing tasks made unreachable by a failed prerequisite
//   - Dispatching ready tasks to the backend and waiting for the round
//   - Reconciling results into the completed/failed/running sets
//   - Publishing lifecycle events at every transition
//
// The loop itself is single-threaded and cooperative: true parallelism
// exists only inside a pool backend's worker set, and the loop never
// dispatches a task that is still running.
package scheduler
