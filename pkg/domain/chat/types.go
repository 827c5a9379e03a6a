package chat

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ImageDetail controls the fidelity hint for image content.
type ImageDetail string

const (
	ImageDetailAuto ImageDetail = "auto"
	ImageDetailLow  ImageDetail = "low"
	ImageDetailHigh ImageDetail = "high"
)

// ImageURL references an image by URL.
type ImageURL struct {
	URL    string      `json:"url"`
	Detail ImageDetail `json:"detail,omitempty"`
}

// ImageSource holds inline image data.
type ImageSource struct {
	Data     []byte      `json:"data"`
	MimeType string      `json:"mime_type"`
	Detail   ImageDetail `json:"detail,omitempty"`
}

// ContentPart is one element of a message. Exactly one of the fields
// is set: Text, Image (URL reference) or InlineImage.
type ContentPart struct {
	Text        string       `json:"text,omitempty"`
	Image       *ImageURL    `json:"image,omitempty"`
	InlineImage *ImageSource `json:"inline_image,omitempty"`
}

// Text returns a content part holding plain text.
func Text(s string) ContentPart {
	return ContentPart{Text: s}
}

// Image returns a content part referencing an image by URL.
func Image(url string) ContentPart {
	return ContentPart{Image: &ImageURL{URL: url}}
}

// InlineImage returns a content part holding inline image data.
func InlineImage(data []byte, mimeType string) ContentPart {
	return ContentPart{InlineImage: &ImageSource{Data: data, MimeType: mimeType}}
}

// IsText reports whether the part is plain text.
func (p ContentPart) IsText() bool {
	return p.Image == nil && p.InlineImage == nil
}

// Message is a single conversation turn. An assistant turn that
// requested tools carries them in ToolCalls; the tool outcomes follow
// as a tool-role turn carrying ToolResults.
type Message struct {
	Role        Role          `json:"role"`
	Name        string        `json:"name,omitempty"`
	Content     []ContentPart `json:"content"`
	ToolCalls   []ToolCall    `json:"tool_calls,omitempty"`
	ToolResults []ToolResult  `json:"tool_results,omitempty"`
}

// ToolDefinition describes a tool the model may call.
// ParametersSchema is a JSON Schema document.
type ToolDefinition struct {
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	ParametersSchema string `json:"parameters_schema"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ArgumentsJSON string `json:"arguments_json"`
}

// ToolResult carries the outcome of executing a tool call.
// A result is either a success (ResultJSON set) or a failure
// (ErrorMessage set).
type ToolResult struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ResultJSON      string `json:"result_json,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
	ErrorCode       string `json:"error_code,omitempty"`
	ExecutionTimeMs uint64 `json:"execution_time_ms,omitempty"`
}

// IsError reports whether the result represents a tool failure.
func (r ToolResult) IsError() bool {
	return r.ErrorMessage != ""
}

// ToolInvocation pairs a tool call with its result, for continuing a
// conversation after tool execution.
type ToolInvocation struct {
	Call   ToolCall   `json:"call"`
	Result ToolResult `json:"result"`
}

// KV is a provider-specific option.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Config holds the per-request model parameters.
type Config struct {
	Model           string           `json:"model"`
	Temperature     *float64         `json:"temperature,omitempty"`
	MaxTokens       *uint32          `json:"max_tokens,omitempty"`
	StopSequences   []string         `json:"stop_sequences,omitempty"`
	Tools           []ToolDefinition `json:"tools,omitempty"`
	ToolChoice      string           `json:"tool_choice,omitempty"`
	ProviderOptions []KV             `json:"provider_options,omitempty"`
}

// ProviderOption returns the value of a provider option, if present.
func (c Config) ProviderOption(key string) (string, bool) {
	for _, kv := range c.ProviderOptions {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// FinishReason explains why generation stopped.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishToolCalls     FinishReason = "tool-calls"
	FinishContentFilter FinishReason = "content-filter"
	FinishError         FinishReason = "error"
	FinishOther         FinishReason = "other"
)

// Usage holds token accounting for a response.
type Usage struct {
	InputTokens  *uint32 `json:"input_tokens,omitempty"`
	OutputTokens *uint32 `json:"output_tokens,omitempty"`
	TotalTokens  *uint32 `json:"total_tokens,omitempty"`
}

// ResponseMetadata carries provider bookkeeping for a response.
type ResponseMetadata struct {
	FinishReason         FinishReason `json:"finish_reason,omitempty"`
	Usage                *Usage       `json:"usage,omitempty"`
	ProviderID           string       `json:"provider_id,omitempty"`
	Timestamp            string       `json:"timestamp,omitempty"`
	ProviderMetadataJSON string       `json:"provider_metadata_json,omitempty"`
}

// Response is a complete (non-streamed) model answer. A response with
// no content but one or more tool calls is a tool request: the caller
// is expected to execute the tools and continue the conversation.
type Response struct {
	ID        string           `json:"id"`
	Content   []ContentPart    `json:"content"`
	ToolCalls []ToolCall       `json:"tool_calls,omitempty"`
	Metadata  ResponseMetadata `json:"metadata"`
}

// IsToolRequest reports whether the response only requests tool calls.
func (r *Response) IsToolRequest() bool {
	return len(r.Content) == 0 && len(r.ToolCalls) > 0
}

// PlainText concatenates the text parts of the response content.
func (r *Response) PlainText() string {
	var out string
	for _, part := range r.Content {
		if part.IsText() {
			out += part.Text
		}
	}
	return out
}

// Uint32 returns a pointer to v. Helper for optional config fields.
func Uint32(v uint32) *uint32 { return &v }

// Float64 returns a pointer to v. Helper for optional config fields.
func Float64(v float64) *float64 { return &v }
