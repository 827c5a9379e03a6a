package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aescanero/llmgate/pkg/adapters/llm/sse"
	"github.com/aescanero/llmgate/pkg/domain/chat"
	"go.uber.org/zap"
)

// CompletionsPath is the chat completions endpoint path relative to
// the API base URL.
const CompletionsPath = "/v1/chat/completions"

// Client is an HTTP client for the OpenAI chat completions wire
// format. Grok and OpenRouter expose the same protocol on different
// hosts, so the same client serves all three providers.
type Client struct {
	baseURL string
	path    string
	apiKey  string
	headers map[string]string
	http    *http.Client
	logger  *zap.Logger
}

// ClientConfig holds the wire client configuration.
type ClientConfig struct {
	BaseURL string
	// Path overrides CompletionsPath (OpenRouter serves the protocol
	// under /api).
	Path string
	APIKey string
	// Headers are added to every request (OpenRouter attribution).
	Headers    map[string]string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a chat completions client.
func NewClient(cfg ClientConfig) *Client {
	path := cfg.Path
	if path == "" {
		path = CompletionsPath
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
		baseURL: cfg.BaseURL,
		path:    path,
		apiKey:  cfg.APIKey,
		headers: cfg.Headers,
		http:    httpClient,
		logger:  logger,
	}
}

// Complete sends a non-streaming completion request.
func (c *Client) Complete(ctx context.Context, request *Request) (*Response, error) {
	request.Stream = nil
	request.StreamOptions = nil

	resp, err := c.send(ctx, request, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, chat.Errorf(chat.ErrorInternal, "failed to read response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &chat.Error{
			Code:              chat.ErrorCodeFromStatus(resp.StatusCode),
			Message:           fmt.Sprintf("chat completions API error: HTTP %d", resp.StatusCode),
			ProviderErrorJSON: string(body),
		}
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &chat.Error{
			Code:              chat.ErrorInternal,
			Message:           fmt.Sprintf("failed to parse response: %v", err),
			ProviderErrorJSON: string(body),
		}
	}

	return &result, nil
}

// StreamCompletion sends a streaming completion request and returns
// the raw SSE event source. The request is forced into streaming mode
// with usage reporting in the final chunk.
func (c *Client) StreamCompletion(ctx context.Context, request *Request) (*sse.EventSource, error) {
	streaming := true
	request.Stream = &streaming
	request.StreamOptions = &StreamOptions{IncludeUsage: true}

	resp, err := c.send(ctx, request, true)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &chat.Error{
			Code:              chat.ErrorCodeFromStatus(resp.StatusCode),
			Message:           fmt.Sprintf("chat completions API error: HTTP %d", resp.StatusCode),
			ProviderErrorJSON: string(body),
		}
	}

	return sse.New(resp.Body), nil
}

func (c *Client) send(ctx context.Context, request *Request, streaming bool) (*http.Response, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, chat.Errorf(chat.ErrorInternal, "failed to marshal request: %v", err)
	}

	url := c.baseURL + c.path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, chat.Errorf(chat.ErrorInternal, "failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if streaming {
		req.Header.Set("Accept", "text/event-stream")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	c.logger.Debug("sending chat completions request",
		zap.String("url", url),
		zap.String("model", request.Model),
		zap.Bool("streaming", streaming))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, chat.Errorf(chat.ErrorInternal, "request failed: %v", err)
	}

	return resp, nil
}
