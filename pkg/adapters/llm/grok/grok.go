// Package grok provides the xAI Grok adapter. Grok serves the OpenAI
// chat completions protocol on api.x.ai.
package grok

import (
	"net/http"

	"github.com/aescanero/llmgate/pkg/adapters/llm/openaicompat"
	"go.uber.org/zap"
)

// BaseURL is the xAI API endpoint.
const BaseURL = "https://api.x.ai"

// Config holds the Grok adapter configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a Grok provider client.
func NewClient(cfg Config) *openaicompat.Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	client := openaicompat.NewClient(openaicompat.ClientConfig{
		BaseURL:    baseURL,
		APIKey:     cfg.APIKey,
		HTTPClient: cfg.HTTPClient,
		Logger:     cfg.Logger,
	})

	return openaicompat.NewProvider("grok", client, cfg.Logger)
}
