// Package openrouter provides the OpenRouter adapter. OpenRouter
// serves the OpenAI chat completions protocol under /api and supports
// optional attribution headers for app rankings.
package openrouter

import (
	"net/http"

	"github.com/aescanero/llmgate/pkg/adapters/llm/openaicompat"
	"go.uber.org/zap"
)

// BaseURL is the OpenRouter API endpoint.
const BaseURL = "https://openrouter.ai"

// CompletionsPath is the chat completions path on OpenRouter.
const CompletionsPath = "/api/v1/chat/completions"

// Config holds the OpenRouter adapter configuration.
type Config struct {
	APIKey  string
	BaseURL string
	// Referer and Title populate the HTTP-Referer and X-Title
	// attribution headers.
	Referer    string
	Title      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates an OpenRouter provider client.
func NewClient(cfg Config) *openaicompat.Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	headers := make(map[string]string)
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.Title != "" {
		headers["X-Title"] = cfg.Title
	}

	client := openaicompat.NewClient(openaicompat.ClientConfig{
		BaseURL:    baseURL,
		Path:       CompletionsPath,
		APIKey:     cfg.APIKey,
		Headers:    headers,
		HTTPClient: cfg.HTTPClient,
		Logger:     cfg.Logger,
	})

	return openaicompat.NewProvider("openrouter", client, cfg.Logger)
}
