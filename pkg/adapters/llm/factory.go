package llm

import (
	"fmt"
	"net/http"
	"os"

	"github.com/aescanero/llmgate/pkg/adapters/llm/anthropic"
	"github.com/aescanero/llmgate/pkg/adapters/llm/grok"
	"github.com/aescanero/llmgate/pkg/adapters/llm/ollama"
	"github.com/aescanero/llmgate/pkg/adapters/llm/openai"
	"github.com/aescanero/llmgate/pkg/adapters/llm/openrouter"
	"github.com/aescanero/llmgate/pkg/domain/chat"
	"github.com/aescanero/llmgate/pkg/ports"
	"go.uber.org/zap"
)

// Supported provider names.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGrok       = "grok"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// API key environment variables, one per provider. Ollama needs no
// key; its endpoint comes from OLLAMA_BASE_URL.
const (
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	EnvGrokAPIKey       = "XAI_API_KEY"
	EnvOpenRouterAPIKey = "OPENROUTER_API_KEY"
	EnvOllamaBaseURL    = "OLLAMA_BASE_URL"
)

// Providers lists the supported provider names.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderAnthropic, ProviderGrok, ProviderOpenRouter, ProviderOllama}
}

// Config holds LLM client configuration.
type Config struct {
	Provider string
	// APIKey overrides the provider's environment variable.
	APIKey string
	// BaseURL overrides the provider's default endpoint.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates an LLM client for the configured provider.
func NewClient(cfg *Config) (ports.LLMClient, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		key, err := apiKey(cfg, EnvOpenAIAPIKey)
		if err != nil {
			return nil, err
		}
		return openai.NewClient(openai.Config{
			APIKey:     key,
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		}), nil

	case ProviderAnthropic:
		key, err := apiKey(cfg, EnvAnthropicAPIKey)
		if err != nil {
			return nil, err
		}
		return anthropic.NewClient(anthropic.Config{
			APIKey:  key,
			BaseURL: cfg.BaseURL,
			Logger:  cfg.Logger,
		}), nil

	case ProviderGrok:
		key, err := apiKey(cfg, EnvGrokAPIKey)
		if err != nil {
			return nil, err
		}
		return grok.NewClient(grok.Config{
			APIKey:     key,
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		}), nil

	case ProviderOpenRouter:
		key, err := apiKey(cfg, EnvOpenRouterAPIKey)
		if err != nil {
			return nil, err
		}
		return openrouter.NewClient(openrouter.Config{
			APIKey:     key,
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		}), nil

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv(EnvOllamaBaseURL)
		}
		return ollama.NewClient(ollama.Config{
			BaseURL:    baseURL,
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func apiKey(cfg *Config, envVar string) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", chat.Errorf(chat.ErrorAuthenticationFailed, "missing %s", envVar)
}
