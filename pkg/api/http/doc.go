// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Chat completions (synchronous, streaming over SSE, asynchronous jobs)
//   - Session transcript management and stream resumption
//   - Health checks
//   - Prometheus metrics
package http
