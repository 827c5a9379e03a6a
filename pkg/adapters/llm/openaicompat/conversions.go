package openaicompat

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aescanero/llmgate/pkg/domain/chat"
)

// BuildRequest converts domain messages and config into a wire
// request. Provider options map onto the protocol fields not covered
// by the common config (frequency_penalty, presence_penalty, n, seed,
// top_logprobs, top_p, user_id).
func BuildRequest(messages []chat.Message, config chat.Config) (*Request, error) {
	wireMessages := make([]Message, 0, len(messages))
	for _, message := range messages {
		if len(message.ToolResults) > 0 {
			wireMessages = append(wireMessages, toolResultMessages(message.ToolResults)...)
			continue
		}

		wire := Message{
			Role: string(message.Role),
			Name: message.Name,
		}
		if len(message.Content) > 0 {
			wire.Content = convertContentParts(message.Content)
		}
		for _, call := range message.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, ToolCall{
				ID:   call.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      call.Name,
					Arguments: call.ArgumentsJSON,
				},
			})
		}
		wireMessages = append(wireMessages, wire)
	}

	tools := make([]Tool, 0, len(config.Tools))
	for _, tool := range config.Tools {
		wireTool, err := toolDefinitionToTool(tool)
		if err != nil {
			return nil, err
		}
		tools = append(tools, wireTool)
	}

	request := &Request{
		Messages:            wireMessages,
		Model:               config.Model,
		MaxCompletionTokens: config.MaxTokens,
		Stop:                config.StopSequences,
		Temperature:         config.Temperature,
		ToolChoice:          config.ToolChoice,
		Tools:               tools,
	}

	if v, ok := config.ProviderOption("frequency_penalty"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			request.FrequencyPenalty = &f
		}
	}
	if v, ok := config.ProviderOption("presence_penalty"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			request.PresencePenalty = &f
		}
	}
	if v, ok := config.ProviderOption("n"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			u := uint32(n)
			request.N = &u
		}
	}
	if v, ok := config.ProviderOption("seed"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			u := uint32(n)
			request.Seed = &u
		}
	}
	if v, ok := config.ProviderOption("top_logprobs"); ok {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			u := uint8(n)
			request.TopLogprobs = &u
		}
	}
	if v, ok := config.ProviderOption("top_p"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			request.TopP = &f
		}
	}
	if v, ok := config.ProviderOption("user_id"); ok {
		request.User = v
	}

	return request, nil
}

// ToolResultsToMessages expands tool invocations into the assistant
// tool_calls message followed by the tool result message, as the
// protocol expects for continued conversations.
func ToolResultsToMessages(toolResults []chat.ToolInvocation) []Message {
	messages := make([]Message, 0, 2*len(toolResults))
	for _, invocation := range toolResults {
		messages = append(messages, Message{
			Role: "assistant",
			ToolCalls: []ToolCall{{
				ID:   invocation.Call.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      invocation.Call.Name,
					Arguments: invocation.Call.ArgumentsJSON,
				},
			}},
		})
		messages = append(messages, toolResultMessages([]chat.ToolResult{invocation.Result})...)
	}
	return messages
}

// toolResultMessages renders executed tool results as tool-role
// messages keyed by the originating call ID.
func toolResultMessages(results []chat.ToolResult) []Message {
	messages := make([]Message, 0, len(results))
	for _, result := range results {
		content := result.ResultJSON
		if result.IsError() {
			content = result.ErrorMessage
		}
		messages = append(messages, Message{
			Role:       "tool",
			ToolCallID: result.ID,
			Content:    []ContentPart{{Type: "text", Text: content}},
		})
	}
	return messages
}

// ConvertResponse maps a wire response onto the domain response. Only
// the first choice is considered.
func ConvertResponse(response *Response) (*chat.Response, error) {
	if len(response.Choices) == 0 {
		return nil, chat.NewError(chat.ErrorInternal, "no choices in response")
	}
	choice := response.Choices[0]

	var content []chat.ContentPart
	if choice.Message.Content != nil && *choice.Message.Content != "" {
		content = append(content, chat.Text(*choice.Message.Content))
	}

	var toolCalls []chat.ToolCall
	for _, call := range choice.Message.ToolCalls {
		toolCalls = append(toolCalls, chat.ToolCall{
			ID:            call.ID,
			Name:          call.Function.Name,
			ArgumentsJSON: call.Function.Arguments,
		})
	}

	return &chat.Response{
		ID:        response.ID,
		Content:   content,
		ToolCalls: toolCalls,
		Metadata: chat.ResponseMetadata{
			FinishReason: ConvertFinishReason(choice.FinishReason),
			Usage:        convertUsage(response.Usage),
			ProviderID:   response.ID,
			Timestamp:    strconv.FormatInt(response.Created, 10),
		},
	}, nil
}

// ConvertFinishReason maps a wire finish reason onto the domain enum.
func ConvertFinishReason(reason string) chat.FinishReason {
	switch reason {
	case "stop":
		return chat.FinishStop
	case "length":
		return chat.FinishLength
	case "tool_calls":
		return chat.FinishToolCalls
	case "content_filter":
		return chat.FinishContentFilter
	case "":
		return ""
	default:
		return chat.FinishOther
	}
}

func convertUsage(usage *Usage) *chat.Usage {
	if usage == nil {
		return nil
	}
	input := usage.PromptTokens
	output := usage.CompletionTokens
	total := usage.TotalTokens
	return &chat.Usage{
		InputTokens:  &input,
		OutputTokens: &output,
		TotalTokens:  &total,
	}
}

func toolDefinitionToTool(tool chat.ToolDefinition) (Tool, error) {
	if !json.Valid([]byte(tool.ParametersSchema)) {
		return Tool{}, chat.Errorf(chat.ErrorInternal,
			"failed to parse tool parameters for %s: invalid JSON", tool.Name)
	}
	return Tool{
		Type: "function",
		Function: Function{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  json.RawMessage(tool.ParametersSchema),
		},
	}, nil
}

func convertContentParts(parts []chat.ContentPart) []ContentPart {
	result := make([]ContentPart, 0, len(parts))
	for _, part := range parts {
		switch {
		case part.Image != nil:
			result = append(result, ContentPart{
				Type: "image_url",
				ImageURL: &ImageURL{
					URL:    part.Image.URL,
					Detail: string(part.Image.Detail),
				},
			})
		case part.InlineImage != nil:
			encoded := base64.StdEncoding.EncodeToString(part.InlineImage.Data)
			result = append(result, ContentPart{
				Type: "image_url",
				ImageURL: &ImageURL{
					URL:    fmt.Sprintf("data:%s;base64,%s", part.InlineImage.MimeType, encoded),
					Detail: string(part.InlineImage.Detail),
				},
			})
		default:
			result = append(result, ContentPart{Type: "text", Text: part.Text})
		}
	}
	return result
}
