package openaicompat

import "encoding/json"

// Wire types for the chat completions protocol.
// Based on https://platform.openai.com/docs/api-reference/chat/create

// Request is a chat completions request body.
type Request struct {
	Messages            []Message      `json:"messages"`
	Model               string         `json:"model"`
	FrequencyPenalty    *float64       `json:"frequency_penalty,omitempty"`
	MaxCompletionTokens *uint32        `json:"max_completion_tokens,omitempty"`
	N                   *uint32        `json:"n,omitempty"`
	PresencePenalty     *float64       `json:"presence_penalty,omitempty"`
	Seed                *uint32        `json:"seed,omitempty"`
	Stop                []string       `json:"stop,omitempty"`
	Stream              *bool          `json:"stream,omitempty"`
	StreamOptions       *StreamOptions `json:"stream_options,omitempty"`
	Temperature         *float64       `json:"temperature,omitempty"`
	ToolChoice          string         `json:"tool_choice,omitempty"`
	Tools               []Tool         `json:"tools,omitempty"`
	TopLogprobs         *uint8         `json:"top_logprobs,omitempty"`
	TopP                *float64       `json:"top_p,omitempty"`
	User                string         `json:"user,omitempty"`
}

// StreamOptions controls streaming behavior.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// Message is one conversation turn on the wire.
type Message struct {
	Role       string        `json:"role"`
	Content    []ContentPart `json:"content,omitempty"`
	Name       string        `json:"name,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

// ContentPart is a typed message content element.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image, either by URL or as a data: URL.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// Tool declares a callable function.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function describes a tool's name and JSON Schema parameters.
type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is a function call requested by the model. Index is only
// present in streaming deltas, where argument JSON arrives in
// fragments keyed by it.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type,omitempty"`
	Index    *int         `json:"index,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the called function name and its argument JSON.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response is a chat completions response body.
type Response struct {
	ID                string  `json:"id"`
	Created           int64   `json:"created"`
	Model             string  `json:"model"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage  `json:"usage"`
	SystemFingerprint string  `json:"system_fingerprint,omitempty"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int             `json:"index"`
	FinishReason string          `json:"finish_reason"`
	Message      ResponseMessage `json:"message"`
}

// ResponseMessage is the assistant message of a completion.
type ResponseMessage struct {
	Role      string     `json:"role"`
	Content   *string    `json:"content"`
	Refusal   *string    `json:"refusal,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Usage holds the token counts of a completion.
type Usage struct {
	PromptTokens     uint32 `json:"prompt_tokens"`
	CompletionTokens uint32 `json:"completion_tokens"`
	TotalTokens      uint32 `json:"total_tokens"`
}

// Chunk is one streaming response chunk.
type Chunk struct {
	ID      string        `json:"id"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage"`
}

// ChunkChoice is one alternative inside a streaming chunk.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta is the incremental payload of a streaming chunk.
type Delta struct {
	Role      string     `json:"role,omitempty"`
	Content   *string    `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}
