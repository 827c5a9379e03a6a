package session

import (
	"time"

	"github.com/aescanero/llmgate/pkg/domain/chat"
)

// Session is the stored transcript of a conversation, including the
// partial deltas of an in-flight streamed response so an interrupted
// stream can be resumed.
type Session struct {
	ID            string             `json:"id"`
	Messages      []chat.Message     `json:"messages"`
	Config        chat.Config        `json:"config"`
	PartialDeltas []chat.StreamDelta `json:"partial_deltas,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// JobStatus is the lifecycle state of an asynchronous chat job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is an asynchronous chat completion request processed by the
// worker pool.
type Job struct {
	ID          string         `json:"id"`
	Messages    []chat.Message `json:"messages"`
	Config      chat.Config    `json:"config"`
	Status      JobStatus      `json:"status"`
	Response    *chat.Response `json:"response,omitempty"`
	Error       *chat.Error    `json:"error,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
