// Package http provides the HTTP status API.
//
// The HTTP server exposes endpoints for:
//   - Workflow run status queries
//   - Health checks
//   - Prometheus metrics
//
// The API is read-only: runs are started from the CLI, and the server only
// observes scheduler progress.
package http
