// Package openaicompat implements the OpenAI chat completions wire
// protocol: request building from the domain model, response and
// SSE stream decoding with tool-call argument fragment accumulation.
//
// Grok and OpenRouter expose the same protocol on their own hosts, so
// their adapters reuse this package with a different base URL and
// authentication environment.
package openaicompat
