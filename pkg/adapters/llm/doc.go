// Package llm provides LLM client implementations.
//
// The factory creates clients based on provider configuration.
// Supported providers:
//   - openai (default)
//   - anthropic
//   - grok
//   - openrouter
//   - ollama
//
// The package also carries the shared retry and rate limiting
// helpers used around provider calls.
package llm
