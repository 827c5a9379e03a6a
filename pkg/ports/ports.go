package ports

import (
	"context"
	"time"

	"github.com/aescanero/llmgate/pkg/domain/chat"
	"github.com/aescanero/llmgate/pkg/domain/session"
)

// LLMClient is the provider port. Implementations translate the chat
// domain model to a concrete provider API and must be safe for
// concurrent use.
type LLMClient interface {
	// Name returns the provider identifier ("openai", "anthropic", ...).
	Name() string

	// Send performs a single chat completion.
	Send(ctx context.Context, messages []chat.Message, config chat.Config) (*chat.Response, error)

	// Continue resumes a conversation after tool execution. The tool
	// results are appended to the conversation in provider format.
	Continue(ctx context.Context, messages []chat.Message, toolResults []chat.ToolInvocation, config chat.Config) (*chat.Response, error)

	// Stream performs a streaming chat completion.
	Stream(ctx context.Context, messages []chat.Message, config chat.Config) (chat.Stream, error)
}

// SessionStore persists conversation transcripts.
type SessionStore interface {
	SaveSession(ctx context.Context, s *session.Session) error
	LoadSession(ctx context.Context, id string) (*session.Session, error)
	DeleteSession(ctx context.Context, id string) error
	SessionExists(ctx context.Context, id string) (bool, error)
	ListSessions(ctx context.Context) ([]string, error)
}

// JobStore persists asynchronous chat jobs.
type JobStore interface {
	SaveJob(ctx context.Context, j *session.Job) error
	LoadJob(ctx context.Context, id string) (*session.Job, error)
	DeleteJob(ctx context.Context, id string) error
}

// EventType classifies gateway events.
type EventType string

const (
	EventTypeJobSubmitted  EventType = "job.submitted"
	EventTypeChatCompleted EventType = "chat.completed"
	EventTypeChatFailed    EventType = "chat.failed"
	EventTypeStreamStarted EventType = "stream.started"
)

// Event is the payload published on the event bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id,omitempty"`
	JobID     string                 `json:"job_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventHandler processes a single event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and delivers gateway events by topic.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// MetricsCollector records gateway metrics.
type MetricsCollector interface {
	RecordRequest(provider, model, status string, duration time.Duration)
	RecordTokens(provider, model, tokenType string, count int)
	RecordStreamEvent(provider, eventType string)
	IncActiveStreams()
	DecActiveStreams()
	RecordJob(status string, duration time.Duration)
	RecordWorkerPoolStatus(idle, busy, stopped int)
}
