package openaicompat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/llmgate/pkg/domain/chat"
)

func TestBuildRequest(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: []chat.ContentPart{chat.Text("be brief")}},
		{Role: chat.RoleUser, Content: []chat.ContentPart{chat.Text("hello")}},
	}
	config := chat.Config{
		Model:         "gpt-4o",
		Temperature:   chat.Float64(0.5),
		MaxTokens:     chat.Uint32(256),
		StopSequences: []string{"END"},
		ProviderOptions: []chat.KV{
			{Key: "seed", Value: "42"},
			{Key: "top_p", Value: "0.9"},
			{Key: "user_id", Value: "tester"},
		},
	}

	request, err := BuildRequest(messages, config)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", request.Model)
	assert.Equal(t, 0.5, *request.Temperature)
	assert.Equal(t, uint32(256), *request.MaxCompletionTokens)
	assert.Equal(t, []string{"END"}, request.Stop)
	assert.Equal(t, uint32(42), *request.Seed)
	assert.Equal(t, 0.9, *request.TopP)
	assert.Equal(t, "tester", request.User)

	require.Len(t, request.Messages, 2)
	assert.Equal(t, "system", request.Messages[0].Role)
	assert.Equal(t, "text", request.Messages[0].Content[0].Type)
	assert.Equal(t, "be brief", request.Messages[0].Content[0].Text)
}

func TestBuildRequestImages(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleUser, Content: []chat.ContentPart{
			chat.Image("https://example.com/cat.png"),
			chat.InlineImage([]byte("img"), "image/png"),
		}},
	}

	request, err := BuildRequest(messages, chat.Config{Model: "gpt-4o"})
	require.NoError(t, err)

	parts := request.Messages[0].Content
	require.Len(t, parts, 2)

	assert.Equal(t, "image_url", parts[0].Type)
	assert.Equal(t, "https://example.com/cat.png", parts[0].ImageURL.URL)

	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, "data:image/png;base64,aW1n", parts[1].ImageURL.URL)
}

func TestBuildRequestToolTurns(t *testing.T) {
	messages := []chat.Message{
		{Role: chat.RoleUser, Content: []chat.ContentPart{chat.Text("weather?")}},
		{Role: chat.RoleAssistant, ToolCalls: []chat.ToolCall{
			{ID: "call_1", Name: "get_weather", ArgumentsJSON: `{"city":"Malaga"}`},
		}},
		{Role: chat.RoleTool, ToolResults: []chat.ToolResult{
			{ID: "call_1", Name: "get_weather", ResultJSON: `{"temp":28}`},
		}},
	}

	request, err := BuildRequest(messages, chat.Config{Model: "gpt-4o"})
	require.NoError(t, err)
	require.Len(t, request.Messages, 3)

	call := request.Messages[1]
	assert.Equal(t, "assistant", call.Role)
	assert.Empty(t, call.Content)
	require.Len(t, call.ToolCalls, 1)
	assert.Equal(t, "call_1", call.ToolCalls[0].ID)
	assert.Equal(t, "function", call.ToolCalls[0].Type)
	assert.Equal(t, `{"city":"Malaga"}`, call.ToolCalls[0].Function.Arguments)

	result := request.Messages[2]
	assert.Equal(t, "tool", result.Role)
	assert.Equal(t, "call_1", result.ToolCallID)
	assert.Equal(t, `{"temp":28}`, result.Content[0].Text)
}

func TestBuildRequestInvalidToolSchema(t *testing.T) {
	config := chat.Config{
		Model: "gpt-4o",
		Tools: []chat.ToolDefinition{{Name: "broken", ParametersSchema: "{not json"}},
	}

	_, err := BuildRequest([]chat.Message{{Role: chat.RoleUser, Content: []chat.ContentPart{chat.Text("hi")}}}, config)
	require.Error(t, err)

	providerErr := chat.AsError(err)
	assert.Equal(t, chat.ErrorInternal, providerErr.Code)
	assert.Contains(t, providerErr.Message, "broken")
}

func TestToolResultsToMessages(t *testing.T) {
	invocations := []chat.ToolInvocation{
		{
			Call:   chat.ToolCall{ID: "call_1", Name: "get_weather", ArgumentsJSON: `{"city":"Malaga"}`},
			Result: chat.ToolResult{ID: "call_1", ResultJSON: `{"temp":28}`},
		},
		{
			Call:   chat.ToolCall{ID: "call_2", Name: "get_time", ArgumentsJSON: `{}`},
			Result: chat.ToolResult{ID: "call_2", ErrorMessage: "timeout"},
		},
	}

	messages := ToolResultsToMessages(invocations)
	require.Len(t, messages, 4)

	assert.Equal(t, "assistant", messages[0].Role)
	assert.Equal(t, "call_1", messages[0].ToolCalls[0].ID)
	assert.Equal(t, "function", messages[0].ToolCalls[0].Type)

	assert.Equal(t, "tool", messages[1].Role)
	assert.Equal(t, "call_1", messages[1].ToolCallID)
	assert.Equal(t, `{"temp":28}`, messages[1].Content[0].Text)

	assert.Equal(t, "tool", messages[3].Role)
	assert.Equal(t, "timeout", messages[3].Content[0].Text)
}

func TestConvertResponse(t *testing.T) {
	content := "the answer is 42"
	response := &Response{
		ID:      "chatcmpl-123",
		Created: 1700000000,
		Choices: []Choice{{
			Message: ResponseMessage{
				Role:    "assistant",
				Content: &content,
			},
			FinishReason: "stop",
		}},
		Usage: &Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	result, err := ConvertResponse(response)
	require.NoError(t, err)

	assert.Equal(t, "chatcmpl-123", result.ID)
	assert.Equal(t, "the answer is 42", result.PlainText())
	assert.Equal(t, chat.FinishStop, result.Metadata.FinishReason)
	assert.Equal(t, uint32(10), *result.Metadata.Usage.InputTokens)
	assert.Equal(t, uint32(5), *result.Metadata.Usage.OutputTokens)
	assert.Equal(t, "1700000000", result.Metadata.Timestamp)
}

func TestConvertResponseToolCalls(t *testing.T) {
	response := &Response{
		ID: "chatcmpl-456",
		Choices: []Choice{{
			Message: ResponseMessage{
				Role: "assistant",
				ToolCalls: []ToolCall{{
					ID:   "call_1",
					Type: "function",
					Function: FunctionCall{
						Name:      "get_weather",
						Arguments: `{"city":"Malaga"}`,
					},
				}},
			},
			FinishReason: "tool_calls",
		}},
	}

	result, err := ConvertResponse(response)
	require.NoError(t, err)

	assert.True(t, result.IsToolRequest())
	assert.Equal(t, chat.FinishToolCalls, result.Metadata.FinishReason)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "get_weather", result.ToolCalls[0].Name)
	assert.Equal(t, `{"city":"Malaga"}`, result.ToolCalls[0].ArgumentsJSON)
}

func TestConvertResponseNoChoices(t *testing.T) {
	_, err := ConvertResponse(&Response{ID: "empty"})
	require.Error(t, err)
	assert.Equal(t, chat.ErrorInternal, chat.AsError(err).Code)
}

func TestConvertFinishReason(t *testing.T) {
	assert.Equal(t, chat.FinishStop, ConvertFinishReason("stop"))
	assert.Equal(t, chat.FinishLength, ConvertFinishReason("length"))
	assert.Equal(t, chat.FinishToolCalls, ConvertFinishReason("tool_calls"))
	assert.Equal(t, chat.FinishContentFilter, ConvertFinishReason("content_filter"))
	assert.Equal(t, chat.FinishOther, ConvertFinishReason("weird"))
	assert.Equal(t, chat.FinishReason(""), ConvertFinishReason(""))
}
