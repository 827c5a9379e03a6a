package ollama

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aescanero/llmgate/pkg/domain/chat"
	"github.com/google/uuid"
)

// wireRequest is an /api/chat request body.
type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Tools    []wireTool    `json:"tools,omitempty"`
	Options  *wireOptions  `json:"options,omitempty"`
}

// wireMessage is one conversation turn. Ollama takes content as a
// single string; images ride alongside as base64 blobs.
type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Images    []string       `json:"images,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// wireToolCall carries a function call. Unlike the OpenAI protocol,
// arguments arrive as a JSON object, not a string.
type wireToolCall struct {
	Function wireFunctionCall `json:"function"`
}

type wireFunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type wireOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  *uint32  `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
}

// wireResponse is an /api/chat response, both the non-streaming body
// and each NDJSON streaming line.
type wireResponse struct {
	Model           string      `json:"model"`
	CreatedAt       string      `json:"created_at"`
	Message         wireMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason,omitempty"`
	PromptEvalCount uint32      `json:"prompt_eval_count,omitempty"`
	EvalCount       uint32      `json:"eval_count,omitempty"`
}

func buildRequest(messages []chat.Message, config chat.Config) (*wireRequest, error) {
	wireMessages := make([]wireMessage, 0, len(messages))
	for _, message := range messages {
		if len(message.ToolResults) > 0 {
			wireMessages = append(wireMessages, toolResultMessages(message.ToolResults)...)
			continue
		}
		converted, err := convertMessage(message)
		if err != nil {
			return nil, err
		}
		wireMessages = append(wireMessages, converted)
	}

	tools := make([]wireTool, 0, len(config.Tools))
	for _, tool := range config.Tools {
		if !json.Valid([]byte(tool.ParametersSchema)) {
			return nil, chat.Errorf(chat.ErrorInternal,
				"failed to parse tool parameters for %s: invalid JSON", tool.Name)
		}
		tools = append(tools, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  json.RawMessage(tool.ParametersSchema),
			},
		})
	}

	options := &wireOptions{
		Temperature: config.Temperature,
		NumPredict:  config.MaxTokens,
		Stop:        config.StopSequences,
	}
	if v, ok := config.ProviderOption("top_p"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			options.TopP = &f
		}
	}
	if v, ok := config.ProviderOption("top_k"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			options.TopK = &n
		}
	}
	if v, ok := config.ProviderOption("seed"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			options.Seed = &n
		}
	}

	return &wireRequest{
		Model:    config.Model,
		Messages: wireMessages,
		Stream:   false,
		Tools:    tools,
		Options:  options,
	}, nil
}

func convertMessage(message chat.Message) (wireMessage, error) {
	var text strings.Builder
	var images []string

	for _, part := range message.Content {
		switch {
		case part.InlineImage != nil:
			images = append(images, base64.StdEncoding.EncodeToString(part.InlineImage.Data))
		case part.Image != nil:
			return wireMessage{}, chat.Errorf(chat.ErrorUnsupported,
				"ollama does not accept image URLs; inline the image data instead")
		default:
			text.WriteString(part.Text)
		}
	}

	var toolCalls []wireToolCall
	for _, call := range message.ToolCalls {
		toolCalls = append(toolCalls, wireToolCall{
			Function: wireFunctionCall{
				Name:      call.Name,
				Arguments: json.RawMessage(call.ArgumentsJSON),
			},
		})
	}

	return wireMessage{
		Role:      string(message.Role),
		Content:   text.String(),
		Images:    images,
		ToolCalls: toolCalls,
	}, nil
}

// toolResultMessages renders executed tool results as tool-role turns.
// Ollama has no call IDs, so only the content carries over.
func toolResultMessages(results []chat.ToolResult) []wireMessage {
	messages := make([]wireMessage, 0, len(results))
	for _, result := range results {
		content := result.ResultJSON
		if result.IsError() {
			content = result.ErrorMessage
		}
		messages = append(messages, wireMessage{
			Role:    "tool",
			Content: content,
		})
	}
	return messages
}

func toolResultsToMessages(toolResults []chat.ToolInvocation) []wireMessage {
	messages := make([]wireMessage, 0, 2*len(toolResults))
	for _, invocation := range toolResults {
		messages = append(messages, wireMessage{
			Role: "assistant",
			ToolCalls: []wireToolCall{{
				Function: wireFunctionCall{
					Name:      invocation.Call.Name,
					Arguments: json.RawMessage(invocation.Call.ArgumentsJSON),
				},
			}},
		})

		messages = append(messages, toolResultMessages([]chat.ToolResult{invocation.Result})...)
	}
	return messages
}

func convertResponse(response *wireResponse) *chat.Response {
	var content []chat.ContentPart
	if response.Message.Content != "" {
		content = append(content, chat.Text(response.Message.Content))
	}

	toolCalls := convertToolCalls(response.Message.ToolCalls)

	finishReason := convertDoneReason(response.DoneReason)
	if len(toolCalls) > 0 {
		finishReason = chat.FinishToolCalls
	}

	input := response.PromptEvalCount
	output := response.EvalCount
	total := input + output

	return &chat.Response{
		ID:        uuid.New().String(),
		Content:   content,
		ToolCalls: toolCalls,
		Metadata: chat.ResponseMetadata{
			FinishReason: finishReason,
			Usage: &chat.Usage{
				InputTokens:  &input,
				OutputTokens: &output,
				TotalTokens:  &total,
			},
			ProviderID: response.Model,
			Timestamp:  response.CreatedAt,
		},
	}
}

// convertToolCalls maps wire tool calls to the domain. Ollama does not
// assign call IDs, so fresh ones are generated.
func convertToolCalls(calls []wireToolCall) []chat.ToolCall {
	var result []chat.ToolCall
	for _, call := range calls {
		result = append(result, chat.ToolCall{
			ID:            "call_" + uuid.New().String(),
			Name:          call.Function.Name,
			ArgumentsJSON: string(call.Function.Arguments),
		})
	}
	return result
}

func convertDoneReason(reason string) chat.FinishReason {
	switch reason {
	case "stop":
		return chat.FinishStop
	case "length":
		return chat.FinishLength
	case "":
		return ""
	default:
		return chat.FinishOther
	}
}
