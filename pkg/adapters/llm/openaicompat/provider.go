package openaicompat

import (
	"context"

	"github.com/aescanero/llmgate/pkg/domain/chat"
	"go.uber.org/zap"
)

// Provider implements the LLM client port on top of the chat
// completions wire format. The openai, grok and openrouter adapters
// are instances of this provider with different endpoints.
type Provider struct {
	name   string
	client *Client
	logger *zap.Logger
}

// NewProvider creates a provider named name using the given wire
// client.
func NewProvider(name string, client *Client, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		name:   name,
		client: client,
		logger: logger,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Send performs a single chat completion.
func (p *Provider) Send(ctx context.Context, messages []chat.Message, config chat.Config) (*chat.Response, error) {
	request, err := BuildRequest(messages, config)
	if err != nil {
		return nil, err
	}

	response, err := p.client.Complete(ctx, request)
	if err != nil {
		return nil, err
	}

	return ConvertResponse(response)
}

// Continue resumes a conversation after tool execution.
func (p *Provider) Continue(ctx context.Context, messages []chat.Message, toolResults []chat.ToolInvocation, config chat.Config) (*chat.Response, error) {
	request, err := BuildRequest(messages, config)
	if err != nil {
		return nil, err
	}
	request.Messages = append(request.Messages, ToolResultsToMessages(toolResults)...)

	response, err := p.client.Complete(ctx, request)
	if err != nil {
		return nil, err
	}

	return ConvertResponse(response)
}

// Stream performs a streaming chat completion.
func (p *Provider) Stream(ctx context.Context, messages []chat.Message, config chat.Config) (chat.Stream, error) {
	request, err := BuildRequest(messages, config)
	if err != nil {
		return nil, err
	}

	source, err := p.client.StreamCompletion(ctx, request)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("stream established",
		zap.String("provider", p.name),
		zap.String("model", config.Model))

	return NewChatStream(source), nil
}
