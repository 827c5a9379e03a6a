// Package anthropic provides the Anthropic Claude adapter, built on
// the official Go SDK (Messages API).
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aescanero/llmgate/pkg/domain/chat"
	"go.uber.org/zap"
)

// DefaultMaxTokens is used when the request does not set a limit; the
// Messages API requires an explicit value.
const DefaultMaxTokens = 4096

// Config holds the Anthropic adapter configuration.
type Config struct {
	APIKey string
	// BaseURL overrides the default endpoint (proxies, test servers).
	BaseURL string
	Logger  *zap.Logger
}

// Client implements the LLM client port for Anthropic Claude.
type Client struct {
	client anthropic.Client
	logger *zap.Logger
}

// NewClient creates an Anthropic provider client.
func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client: anthropic.NewClient(opts...),
		logger: logger,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "anthropic"
}

// Send performs a single chat completion.
func (c *Client) Send(ctx context.Context, messages []chat.Message, config chat.Config) (*chat.Response, error) {
	params, err := buildParams(messages, nil, config)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending anthropic request", zap.String("model", config.Model))

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapSDKError(err)
	}

	return convertMessage(message), nil
}

// Continue resumes a conversation after tool execution.
func (c *Client) Continue(ctx context.Context, messages []chat.Message, toolResults []chat.ToolInvocation, config chat.Config) (*chat.Response, error) {
	params, err := buildParams(messages, toolResults, config)
	if err != nil {
		return nil, err
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapSDKError(err)
	}

	return convertMessage(message), nil
}

// Stream performs a streaming chat completion.
func (c *Client) Stream(ctx context.Context, messages []chat.Message, config chat.Config) (chat.Stream, error) {
	params, err := buildParams(messages, nil, config)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("starting anthropic stream", zap.String("model", config.Model))

	stream := c.client.Messages.NewStreaming(ctx, params)
	return newChatStream(stream), nil
}
