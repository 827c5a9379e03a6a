package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/llmgate/internal/application/gateway"
	memevents "github.com/aescanero/llmgate/pkg/adapters/events/memory"
	"github.com/aescanero/llmgate/pkg/adapters/llm"
	memstorage "github.com/aescanero/llmgate/pkg/adapters/storage/memory"
	"github.com/aescanero/llmgate/pkg/domain/chat"
	"github.com/aescanero/llmgate/pkg/domain/session"
)

type fakeClient struct {
	response     *chat.Response
	err          error
	streamEvents []chat.StreamEvent
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Send(ctx context.Context, messages []chat.Message, config chat.Config) (*chat.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeClient) Continue(ctx context.Context, messages []chat.Message, toolResults []chat.ToolInvocation, config chat.Config) (*chat.Response, error) {
	return f.Send(ctx, messages, config)
}

func (f *fakeClient) Stream(ctx context.Context, messages []chat.Message, config chat.Config) (chat.Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fakeStream{events: f.streamEvents}, nil
}

type fakeStream struct {
	events []chat.StreamEvent
	pos    int
}

func (s *fakeStream) Recv() (*chat.StreamEvent, error) {
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	event := s.events[s.pos]
	s.pos++
	return &event, nil
}

func (s *fakeStream) Close() error { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordRequest(provider, model, status string, duration time.Duration) {}
func (noopMetrics) RecordTokens(provider, model, tokenType string, count int)            {}
func (noopMetrics) RecordStreamEvent(provider, eventType string)                         {}
func (noopMetrics) IncActiveStreams()                                                    {}
func (noopMetrics) DecActiveStreams()                                                    {}
func (noopMetrics) RecordJob(status string, duration time.Duration)                      {}
func (noopMetrics) RecordWorkerPoolStatus(idle, busy, stopped int)                       {}

func newTestServer(t *testing.T, client *fakeClient) (*Server, *memstorage.Store) {
	t.Helper()

	store := memstorage.NewStore()
	bus := memevents.NewInMemoryEventBus(zap.NewNop())
	t.Cleanup(func() { _ = bus.Close() })

	retry := llm.RetryConfig{
		MaxRetries:     0,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		BackoffFactor:  2,
		RetryIf:        llm.DefaultRetryable,
	}

	manager := gateway.NewManager(
		client,
		store,
		store,
		bus,
		noopMetrics{},
		gateway.NewValidator(),
		llm.NewRateLimiter(1000, 1000),
		retry,
		zap.NewNop(),
	)

	server := NewServer(&Config{
		Port:    0,
		Gateway: manager,
		Logger:  zap.NewNop(),
	})
	return server, store
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)
	return recorder
}

func chatRequestBody() ChatRequest {
	return ChatRequest{
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: []chat.ContentPart{chat.Text("hello")}},
		},
		Config: chat.Config{Model: "gpt-4o"},
	}
}

func TestHandleChatSuccess(t *testing.T) {
	client := &fakeClient{response: &chat.Response{
		ID:       "resp-1",
		Content:  []chat.ContentPart{chat.Text("hi there")},
		Metadata: chat.ResponseMetadata{FinishReason: chat.FinishStop},
	}}
	server, _ := newTestServer(t, client)

	recorder := doJSON(t, server, http.MethodPost, "/api/v1/chat", chatRequestBody())
	require.Equal(t, http.StatusOK, recorder.Code)

	var response ChatResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.NotEmpty(t, response.SessionID)
	assert.Equal(t, "fake", response.Provider)
	assert.Equal(t, "hi there", response.Response.PlainText())
}

func TestHandleChatValidationError(t *testing.T) {
	server, _ := newTestServer(t, &fakeClient{})

	body := chatRequestBody()
	body.Config = chat.Config{Temperature: chat.Float64(0.5)}
	recorder := doJSON(t, server, http.MethodPost, "/api/v1/chat", body)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "invalid-request", response.Error.Code)
}

func TestHandleChatMalformedBody(t *testing.T) {
	server, _ := newTestServer(t, &fakeClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "INVALID_REQUEST", response.Error.Code)
}

func TestHandleChatProviderErrorMapping(t *testing.T) {
	tests := []struct {
		code     chat.ErrorCode
		expected int
	}{
		{chat.ErrorAuthenticationFailed, http.StatusUnauthorized},
		{chat.ErrorUnsupported, http.StatusNotImplemented},
		{chat.ErrorInternal, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			client := &fakeClient{err: chat.NewError(tt.code, "provider said no")}
			server, _ := newTestServer(t, client)

			recorder := doJSON(t, server, http.MethodPost, "/api/v1/chat", chatRequestBody())
			assert.Equal(t, tt.expected, recorder.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
			assert.Equal(t, string(tt.code), response.Error.Code)
		})
	}
}

func TestHandleContinueChat(t *testing.T) {
	client := &fakeClient{response: &chat.Response{
		Content:  []chat.ContentPart{chat.Text("22 degrees")},
		Metadata: chat.ResponseMetadata{FinishReason: chat.FinishStop},
	}}
	server, _ := newTestServer(t, client)

	body := ContinueChatRequest{
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: []chat.ContentPart{chat.Text("weather?")}},
		},
		ToolResults: []chat.ToolInvocation{{
			Call:   chat.ToolCall{ID: "call_1", Name: "get_weather", ArgumentsJSON: `{"city":"Malaga"}`},
			Result: chat.ToolResult{ID: "call_1", Name: "get_weather", ResultJSON: `{"temp":22}`},
		}},
		Config: chat.Config{Model: "gpt-4o"},
	}
	recorder := doJSON(t, server, http.MethodPost, "/api/v1/chat/continue", body)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response ChatResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "22 degrees", response.Response.PlainText())
}

func TestHandleStreamChatWritesSSE(t *testing.T) {
	client := &fakeClient{streamEvents: []chat.StreamEvent{
		{Delta: &chat.StreamDelta{Content: []chat.ContentPart{chat.Text("Hello")}}},
		{Finish: &chat.ResponseMetadata{FinishReason: chat.FinishStop}},
	}}
	server, _ := newTestServer(t, client)

	recorder := doJSON(t, server, http.MethodPost, "/api/v1/chat/stream", chatRequestBody())
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	assert.NotEmpty(t, recorder.Header().Get("X-Session-Id"))

	body := recorder.Body.String()
	assert.Contains(t, body, "event: delta")
	assert.Contains(t, body, "Hello")
	assert.Contains(t, body, "event: finish")
}

func TestHandleResumeStream(t *testing.T) {
	client := &fakeClient{streamEvents: []chat.StreamEvent{
		{Delta: &chat.StreamDelta{Content: []chat.ContentPart{chat.Text(" continued")}}},
		{Finish: &chat.ResponseMetadata{FinishReason: chat.FinishStop}},
	}}
	server, store := newTestServer(t, client)

	require.NoError(t, store.SaveSession(context.Background(), &session.Session{
		ID: "s1",
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: []chat.ContentPart{chat.Text("question")}},
		},
		Config: chat.Config{Model: "gpt-4o"},
		PartialDeltas: []chat.StreamDelta{
			{Content: []chat.ContentPart{chat.Text("partial")}},
		},
	}))

	recorder := doJSON(t, server, http.MethodPost, "/api/v1/sessions/s1/resume", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "continued")
}

func TestHandleResumeStreamWithoutPartials(t *testing.T) {
	server, store := newTestServer(t, &fakeClient{})

	require.NoError(t, store.SaveSession(context.Background(), &session.Session{
		ID:     "s2",
		Config: chat.Config{Model: "gpt-4o"},
	}))

	recorder := doJSON(t, server, http.MethodPost, "/api/v1/sessions/s2/resume", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestSessionEndpoints(t *testing.T) {
	client := &fakeClient{response: &chat.Response{
		Content:  []chat.ContentPart{chat.Text("hi")},
		Metadata: chat.ResponseMetadata{FinishReason: chat.FinishStop},
	}}
	server, _ := newTestServer(t, client)

	recorder := doJSON(t, server, http.MethodPost, "/api/v1/chat", chatRequestBody())
	require.Equal(t, http.StatusOK, recorder.Code)
	var chatResponse ChatResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &chatResponse))
	sessionID := chatResponse.SessionID

	recorder = doJSON(t, server, http.MethodGet, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), sessionID)

	recorder = doJSON(t, server, http.MethodGet, "/api/v1/sessions/"+sessionID, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var sess session.Session
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &sess))
	assert.Len(t, sess.Messages, 2)

	recorder = doJSON(t, server, http.MethodDelete, "/api/v1/sessions/"+sessionID, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, server, http.MethodGet, "/api/v1/sessions/"+sessionID, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDeleteUnknownSessionNotFound(t *testing.T) {
	server, _ := newTestServer(t, &fakeClient{})

	recorder := doJSON(t, server, http.MethodDelete, "/api/v1/sessions/no-such-session", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "NOT_FOUND", response.Error.Code)
}

func TestJobEndpoints(t *testing.T) {
	server, store := newTestServer(t, &fakeClient{})

	body := JobSubmitRequest{
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: []chat.ContentPart{chat.Text("hello")}},
		},
		Config: chat.Config{Model: "gpt-4o"},
	}
	recorder := doJSON(t, server, http.MethodPost, "/api/v1/jobs", body)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var submitted JobSubmitResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &submitted))
	require.NotEmpty(t, submitted.JobID)
	assert.Equal(t, "pending", submitted.Status)

	job, err := store.LoadJob(context.Background(), submitted.JobID)
	require.NoError(t, err)
	assert.Equal(t, session.JobStatusPending, job.Status)

	recorder = doJSON(t, server, http.MethodGet, "/api/v1/jobs/"+submitted.JobID, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, server, http.MethodGet, "/api/v1/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &fakeClient{})

	recorder := doJSON(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])

	checks := response["checks"].(map[string]interface{})
	assert.Equal(t, "fake", checks["provider"])
}
