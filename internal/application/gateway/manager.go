package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/llmgate/pkg/adapters/llm"
	"github.com/aescanero/llmgate/pkg/domain/chat"
	"github.com/aescanero/llmgate/pkg/domain/session"
	"github.com/aescanero/llmgate/pkg/ports"
)

// Event bus topics used by the gateway
const (
	TopicChatEvents = "chat.events"
	TopicJobEvents  = "job.events"
)

// Manager coordinates chat completions across the provider client,
// session storage, job queue, event bus and metrics
type Manager struct {
	client    ports.LLMClient
	sessions  ports.SessionStore
	jobs      ports.JobStore
	eventBus  ports.EventBus
	metrics   ports.MetricsCollector
	validator *Validator
	limiter   *llm.RateLimiter
	retry     llm.RetryConfig
	logger    *zap.Logger
}

// NewManager creates a new gateway manager
func NewManager(
	client ports.LLMClient,
	sessions ports.SessionStore,
	jobs ports.JobStore,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	validator *Validator,
	limiter *llm.RateLimiter,
	retry llm.RetryConfig,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		client:    client,
		sessions:  sessions,
		jobs:      jobs,
		eventBus:  eventBus,
		metrics:   metrics,
		validator: validator,
		limiter:   limiter,
		retry:     retry,
		logger:    logger,
	}
}

// Chat performs a single chat completion. When sessionID is empty a new
// session is created; otherwise the stored transcript is prepended to
// the request. The returned session ID identifies the transcript.
func (m *Manager) Chat(ctx context.Context, sessionID string, messages []chat.Message, config chat.Config) (*chat.Response, string, error) {
	if err := m.validator.Validate(messages, config); err != nil {
		return nil, "", err
	}

	sess, err := m.resolveSession(ctx, sessionID, config)
	if err != nil {
		return nil, "", err
	}
	sess.Messages = append(sess.Messages, messages...)

	start := time.Now()
	response, err := m.send(ctx, sess.Messages, config)
	if err != nil {
		m.recordFailure(ctx, sess.ID, "", config, start, err)
		return nil, sess.ID, err
	}

	m.recordSuccess(ctx, sess, response, config, start)
	return response, sess.ID, nil
}

// ContinueChat resumes a conversation after tool execution. The tool
// results are forwarded to the provider together with the transcript.
func (m *Manager) ContinueChat(ctx context.Context, sessionID string, messages []chat.Message, toolResults []chat.ToolInvocation, config chat.Config) (*chat.Response, string, error) {
	if err := m.validator.Validate(messages, config); err != nil {
		return nil, "", err
	}
	if len(toolResults) == 0 {
		return nil, "", chat.NewError(chat.ErrorInvalidRequest, "at least one tool result is required")
	}

	sess, err := m.resolveSession(ctx, sessionID, config)
	if err != nil {
		return nil, "", err
	}
	sess.Messages = append(sess.Messages, messages...)

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, sess.ID, err
	}

	// The provider client re-renders the answered tool request next to
	// its results, so a previously recorded request turn is stripped
	// from the outgoing payload.
	providerMessages := stripToolRequests(sess.Messages, toolResults)

	start := time.Now()
	response, err := llm.Retry(ctx, m.retry, func(ctx context.Context) (*chat.Response, error) {
		return m.client.Continue(ctx, providerMessages, toolResults, config)
	})
	if err != nil {
		m.recordFailure(ctx, sess.ID, "", config, start, err)
		return nil, sess.ID, err
	}

	m.recordToolExchange(sess, toolResults)
	m.recordSuccess(ctx, sess, response, config, start)
	return response, sess.ID, nil
}

// StreamChat performs a streaming chat completion. Deltas are persisted
// to the session as they arrive so an interrupted stream can be resumed
// with ResumeStream.
func (m *Manager) StreamChat(ctx context.Context, sessionID string, messages []chat.Message, config chat.Config) (chat.Stream, string, error) {
	if err := m.validator.Validate(messages, config); err != nil {
		return nil, "", err
	}

	sess, err := m.resolveSession(ctx, sessionID, config)
	if err != nil {
		return nil, "", err
	}
	sess.Messages = append(sess.Messages, messages...)
	sess.PartialDeltas = nil

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, sess.ID, err
	}

	stream, err := m.client.Stream(ctx, sess.Messages, config)
	if err != nil {
		m.recordFailure(ctx, sess.ID, "", config, time.Now(), err)
		return nil, sess.ID, err
	}

	if err := m.saveSession(ctx, sess); err != nil {
		stream.Close()
		return nil, sess.ID, err
	}

	m.metrics.IncActiveStreams()
	m.publish(ctx, TopicChatEvents, ports.Event{
		ID:        uuid.New().String(),
		Type:      ports.EventTypeStreamStarted,
		Timestamp: time.Now(),
		SessionID: sess.ID,
		Data:      map[string]interface{}{"model": config.Model},
	})

	return &managedStream{inner: stream, manager: m, session: sess, config: config}, sess.ID, nil
}

// ResumeStream restarts an interrupted streamed response. The stored
// transcript and the partial deltas received so far are folded into a
// continuation prompt and streamed again.
func (m *Manager) ResumeStream(ctx context.Context, sessionID string) (chat.Stream, error) {
	sess, err := m.sessions.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, chat.Errorf(chat.ErrorInvalidRequest, "session not found: %s", sessionID)
	}
	if len(sess.PartialDeltas) == 0 {
		return nil, chat.NewError(chat.ErrorInvalidRequest, "session has no interrupted stream to resume")
	}

	prompt := chat.RetryPrompt(sess.Messages, sess.PartialDeltas)
	sess.PartialDeltas = nil

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	stream, err := m.client.Stream(ctx, prompt, sess.Config)
	if err != nil {
		return nil, err
	}

	m.metrics.IncActiveStreams()
	m.logger.Info("stream resumed", zap.String("session_id", sess.ID))

	return &managedStream{inner: stream, manager: m, session: sess, config: sess.Config}, nil
}

// SubmitJob queues an asynchronous chat completion. The job is executed
// by the worker pool; poll GetJob for the result.
func (m *Manager) SubmitJob(ctx context.Context, messages []chat.Message, config chat.Config) (string, error) {
	if err := m.validator.Validate(messages, config); err != nil {
		return "", err
	}

	job := &session.Job{
		ID:          uuid.New().String(),
		Messages:    messages,
		Config:      config,
		Status:      session.JobStatusPending,
		SubmittedAt: time.Now(),
	}

	if err := m.jobs.SaveJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to save job: %w", err)
	}

	event := ports.Event{
		ID:        uuid.New().String(),
		Type:      ports.EventTypeJobSubmitted,
		Timestamp: time.Now(),
		JobID:     job.ID,
	}
	if err := m.eventBus.Publish(ctx, TopicJobEvents, event); err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}

	m.metrics.RecordJob(string(session.JobStatusPending), 0)
	m.logger.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("model", config.Model))

	return job.ID, nil
}

// GetJob retrieves an asynchronous chat job
func (m *Manager) GetJob(ctx context.Context, jobID string) (*session.Job, error) {
	return m.jobs.LoadJob(ctx, jobID)
}

// GetSession retrieves a stored conversation transcript
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return m.sessions.LoadSession(ctx, sessionID)
}

// DeleteSession removes a stored conversation transcript
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	exists, err := m.sessions.SessionExists(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if !exists {
		return chat.Errorf(chat.ErrorInvalidRequest, "session not found: %s", sessionID)
	}
	return m.sessions.DeleteSession(ctx, sessionID)
}

// ListSessions returns the IDs of all stored sessions
func (m *Manager) ListSessions(ctx context.Context) ([]string, error) {
	return m.sessions.ListSessions(ctx)
}

// Provider returns the name of the configured provider
func (m *Manager) Provider() string {
	return m.client.Name()
}

// send performs a rate limited, retried provider call
func (m *Manager) send(ctx context.Context, messages []chat.Message, config chat.Config) (*chat.Response, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return llm.Retry(ctx, m.retry, func(ctx context.Context) (*chat.Response, error) {
		return m.client.Send(ctx, messages, config)
	})
}

// resolveSession loads an existing session or creates a new one
func (m *Manager) resolveSession(ctx context.Context, sessionID string, config chat.Config) (*session.Session, error) {
	if sessionID == "" {
		now := time.Now()
		return &session.Session{
			ID:        uuid.New().String(),
			Config:    config,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}

	sess, err := m.sessions.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, chat.Errorf(chat.ErrorInvalidRequest, "session not found: %s", sessionID)
	}
	return sess, nil
}

// recordSuccess persists the transcript, records metrics and publishes
// the completion event
func (m *Manager) recordSuccess(ctx context.Context, sess *session.Session, response *chat.Response, config chat.Config, start time.Time) {
	if len(response.Content) > 0 || len(response.ToolCalls) > 0 {
		sess.Messages = append(sess.Messages, chat.Message{
			Role:      chat.RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})
	}
	if err := m.saveSession(ctx, sess); err != nil {
		m.logger.Error("failed to save session",
			zap.String("session_id", sess.ID),
			zap.Error(err))
	}

	m.metrics.RecordRequest(m.client.Name(), config.Model, "success", time.Since(start))
	m.recordUsage(config.Model, response.Metadata.Usage)

	m.publish(ctx, TopicChatEvents, ports.Event{
		ID:        uuid.New().String(),
		Type:      ports.EventTypeChatCompleted,
		Timestamp: time.Now(),
		SessionID: sess.ID,
		Data: map[string]interface{}{
			"model":         config.Model,
			"finish_reason": string(response.Metadata.FinishReason),
		},
	})

	m.logger.Info("chat completed",
		zap.String("session_id", sess.ID),
		zap.String("model", config.Model),
		zap.String("finish_reason", string(response.Metadata.FinishReason)),
		zap.Duration("duration", time.Since(start)))
}

// recordToolExchange appends the tool request and its results to the
// transcript. The request turn is skipped when an earlier completion
// already recorded it.
func (m *Manager) recordToolExchange(sess *session.Session, toolResults []chat.ToolInvocation) {
	calls := make([]chat.ToolCall, 0, len(toolResults))
	results := make([]chat.ToolResult, 0, len(toolResults))
	for _, invocation := range toolResults {
		calls = append(calls, invocation.Call)
		results = append(results, invocation.Result)
	}

	recorded := false
	for _, message := range sess.Messages {
		if message.Role == chat.RoleAssistant && len(message.ToolCalls) > 0 && message.ToolCalls[0].ID == calls[0].ID {
			recorded = true
			break
		}
	}
	if !recorded {
		sess.Messages = append(sess.Messages, chat.Message{
			Role:      chat.RoleAssistant,
			ToolCalls: calls,
		})
	}

	sess.Messages = append(sess.Messages, chat.Message{
		Role:        chat.RoleTool,
		ToolResults: results,
	})
}

// stripToolRequests removes assistant turns whose tool calls are being
// answered by the given results.
func stripToolRequests(messages []chat.Message, toolResults []chat.ToolInvocation) []chat.Message {
	answered := make(map[string]bool, len(toolResults))
	for _, invocation := range toolResults {
		answered[invocation.Call.ID] = true
	}

	kept := make([]chat.Message, 0, len(messages))
	for _, message := range messages {
		if message.Role == chat.RoleAssistant && len(message.ToolCalls) > 0 && answered[message.ToolCalls[0].ID] {
			continue
		}
		kept = append(kept, message)
	}
	return kept
}

// recordFailure records metrics and publishes the failure event
func (m *Manager) recordFailure(ctx context.Context, sessionID, jobID string, config chat.Config, start time.Time, err error) {
	providerErr := chat.AsError(err)

	m.metrics.RecordRequest(m.client.Name(), config.Model, string(providerErr.Code), time.Since(start))

	m.publish(ctx, TopicChatEvents, ports.Event{
		ID:        uuid.New().String(),
		Type:      ports.EventTypeChatFailed,
		Timestamp: time.Now(),
		SessionID: sessionID,
		JobID:     jobID,
		Data: map[string]interface{}{
			"model": config.Model,
			"code":  string(providerErr.Code),
			"error": providerErr.Message,
		},
	})

	m.logger.Error("chat failed",
		zap.String("session_id", sessionID),
		zap.String("model", config.Model),
		zap.String("code", string(providerErr.Code)),
		zap.Error(err))
}

// recordUsage forwards token accounting to the metrics collector
func (m *Manager) recordUsage(model string, usage *chat.Usage) {
	if usage == nil {
		return
	}
	if usage.InputTokens != nil {
		m.metrics.RecordTokens(m.client.Name(), model, "input", int(*usage.InputTokens))
	}
	if usage.OutputTokens != nil {
		m.metrics.RecordTokens(m.client.Name(), model, "output", int(*usage.OutputTokens))
	}
}

func (m *Manager) saveSession(ctx context.Context, sess *session.Session) error {
	sess.UpdatedAt = time.Now()
	return m.sessions.SaveSession(ctx, sess)
}

func (m *Manager) publish(ctx context.Context, topic string, event ports.Event) {
	if err := m.eventBus.Publish(ctx, topic, event); err != nil {
		m.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

// Shutdown gracefully shuts down the manager
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down gateway manager")
	return nil
}
