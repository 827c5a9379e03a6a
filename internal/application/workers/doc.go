// Package workers implements the worker pool for asynchronous chat jobs.
//
// The worker pool manages a fixed number of goroutines that:
//   - Consume job submission events from the event bus
//   - Execute chat completions against the configured provider
//   - Update job state in the job store
//   - Publish completion/failure events
//
// The health monitor tracks worker status and logs metrics.
package workers
