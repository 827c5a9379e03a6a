// Package ollama provides the adapter for self-hosted Ollama models.
// Ollama exposes its own chat protocol on /api/chat with NDJSON
// streaming; no API key is required.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aescanero/llmgate/pkg/domain/chat"
	"go.uber.org/zap"
)

// DefaultBaseURL is the default local Ollama endpoint.
const DefaultBaseURL = "http://localhost:11434"

// Config holds the Ollama adapter configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client implements the LLM client port against an Ollama server.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an Ollama provider client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "ollama"
}

// Send performs a single chat completion.
func (c *Client) Send(ctx context.Context, messages []chat.Message, config chat.Config) (*chat.Response, error) {
	request, err := buildRequest(messages, config)
	if err != nil {
		return nil, err
	}

	var result wireResponse
	if err := c.post(ctx, request, &result); err != nil {
		return nil, err
	}

	return convertResponse(&result), nil
}

// Continue resumes a conversation after tool execution.
func (c *Client) Continue(ctx context.Context, messages []chat.Message, toolResults []chat.ToolInvocation, config chat.Config) (*chat.Response, error) {
	request, err := buildRequest(messages, config)
	if err != nil {
		return nil, err
	}
	request.Messages = append(request.Messages, toolResultsToMessages(toolResults)...)

	var result wireResponse
	if err := c.post(ctx, request, &result); err != nil {
		return nil, err
	}

	return convertResponse(&result), nil
}

// Stream performs a streaming chat completion.
func (c *Client) Stream(ctx context.Context, messages []chat.Message, config chat.Config) (chat.Stream, error) {
	request, err := buildRequest(messages, config)
	if err != nil {
		return nil, err
	}
	request.Stream = true

	resp, err := c.send(ctx, request)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &chat.Error{
			Code:              chat.ErrorCodeFromStatus(resp.StatusCode),
			Message:           fmt.Sprintf("ollama API error: HTTP %d", resp.StatusCode),
			ProviderErrorJSON: string(body),
		}
	}

	return newChatStream(resp.Body), nil
}

func (c *Client) post(ctx context.Context, request *wireRequest, result *wireResponse) error {
	resp, err := c.send(ctx, request)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.Errorf(chat.ErrorInternal, "failed to read response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &chat.Error{
			Code:              chat.ErrorCodeFromStatus(resp.StatusCode),
			Message:           fmt.Sprintf("ollama API error: HTTP %d", resp.StatusCode),
			ProviderErrorJSON: string(body),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &chat.Error{
			Code:              chat.ErrorInternal,
			Message:           fmt.Sprintf("failed to parse ollama response: %v", err),
			ProviderErrorJSON: string(body),
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, request *wireRequest) (*http.Response, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, chat.Errorf(chat.ErrorInternal, "failed to marshal request: %v", err)
	}

	url := c.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, chat.Errorf(chat.ErrorInternal, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending ollama request",
		zap.String("url", url),
		zap.String("model", request.Model),
		zap.Bool("streaming", request.Stream))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, chat.Errorf(chat.ErrorInternal, "request failed: %v", err)
	}
	return resp, nil
}
