// Package gateway implements the core chat completion logic.
//
// The gateway manager coordinates chat requests by:
//   - Validating messages and model parameters
//   - Rate limiting and retrying provider calls
//   - Persisting conversation transcripts and stream state
//   - Publishing events to the event bus
//   - Queueing asynchronous jobs for the worker pool
//
// The validator ensures requests are well-formed before any provider
// call is made.
package gateway
