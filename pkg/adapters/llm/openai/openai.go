// Package openai provides the OpenAI chat completions adapter.
package openai

import (
	"net/http"

	"github.com/aescanero/llmgate/pkg/adapters/llm/openaicompat"
	"go.uber.org/zap"
)

// BaseURL is the OpenAI API endpoint.
const BaseURL = "https://api.openai.com"

// Config holds the OpenAI adapter configuration.
type Config struct {
	APIKey string
	// BaseURL overrides the default endpoint (proxies, test servers).
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates an OpenAI provider client.
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

	return openaicompat.NewProvider("openai", client, cfg.Logger)
}
