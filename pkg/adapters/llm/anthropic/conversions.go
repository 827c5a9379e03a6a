package anthropic

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/aescanero/llmgate/pkg/domain/chat"
)

// buildParams converts domain messages and config into Messages API
// parameters. System messages are lifted into the system parameter;
// tool results expand into the assistant tool_use turn followed by
// the user tool_result turn.
func buildParams(messages []chat.Message, toolResults []chat.ToolInvocation, config chat.Config) (anthropic.MessageNewParams, error) {
	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam

	for _, message := range messages {
		if message.Role == chat.RoleSystem {
			system = append(system, anthropic.TextBlockParam{Text: textOf(message.Content)})
			continue
		}
		if len(message.ToolResults) > 0 {
			turns = append(turns, toolResultTurn(message.ToolResults))
			continue
		}

		blocks, err := convertContentParts(message.Content)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		for _, call := range message.ToolCalls {
			blocks = append(blocks, toolUseBlock(call))
		}

		role := anthropic.MessageParamRoleUser
		if message.Role == chat.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		turns = append(turns, anthropic.MessageParam{Role: role, Content: blocks})
	}

	turns = append(turns, toolResultsToTurns(toolResults)...)

	maxTokens := int64(DefaultMaxTokens)
	if config.MaxTokens != nil {
		maxTokens = int64(*config.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:         anthropic.Model(config.Model),
		MaxTokens:     maxTokens,
		Messages:      turns,
		System:        system,
		StopSequences: config.StopSequences,
	}
	if config.Temperature != nil {
		params.Temperature = anthropic.Float(*config.Temperature)
	}
	if v, ok := config.ProviderOption("top_p"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.TopP = anthropic.Float(f)
		}
	}
	if v, ok := config.ProviderOption("top_k"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.TopK = anthropic.Int(n)
		}
	}

	for _, tool := range config.Tools {
		converted, err := toolDefinitionToParam(tool)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		params.Tools = append(params.Tools, converted)
	}

	if config.ToolChoice != "" {
		params.ToolChoice = convertToolChoice(config.ToolChoice)
	}

	return params, nil
}

func toolResultsToTurns(toolResults []chat.ToolInvocation) []anthropic.MessageParam {
	var turns []anthropic.MessageParam
	for _, invocation := range toolResults {
		turns = append(turns, anthropic.MessageParam{
			Role:    anthropic.MessageParamRoleAssistant,
			Content: []anthropic.ContentBlockParamUnion{toolUseBlock(invocation.Call)},
		})
		turns = append(turns, toolResultTurn([]chat.ToolResult{invocation.Result}))
	}
	return turns
}

// toolUseBlock renders a tool call as a tool_use content block. The
// argument JSON is decoded because the Messages API takes an object.
func toolUseBlock(call chat.ToolCall) anthropic.ContentBlockParamUnion {
	var input interface{}
	if err := json.Unmarshal([]byte(call.ArgumentsJSON), &input); err != nil {
		input = map[string]interface{}{}
	}
	return anthropic.ContentBlockParamUnion{
		OfToolUse: &anthropic.ToolUseBlockParam{
			ID:    call.ID,
			Name:  call.Name,
			Input: input,
		},
	}
}

// toolResultTurn renders executed tool results as the user turn the
// Messages API expects after tool_use.
func toolResultTurn(results []chat.ToolResult) anthropic.MessageParam {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(results))
	for _, result := range results {
		content := result.ResultJSON
		if result.IsError() {
			content = result.ErrorMessage
		}
		blocks = append(blocks, anthropic.ContentBlockParamUnion{
			OfToolResult: &anthropic.ToolResultBlockParam{
				ToolUseID: result.ID,
				IsError:   anthropic.Bool(result.IsError()),
				Content: []anthropic.ToolResultBlockParamContentUnion{{
					OfText: &anthropic.TextBlockParam{Text: content},
				}},
			},
		})
	}
	return anthropic.MessageParam{
		Role:    anthropic.MessageParamRoleUser,
		Content: blocks,
	}
}

func toolDefinitionToParam(tool chat.ToolDefinition) (anthropic.ToolUnionParam, error) {
	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(tool.ParametersSchema), &schema); err != nil {
		return anthropic.ToolUnionParam{}, chat.Errorf(chat.ErrorInternal,
			"failed to parse tool parameters for %s: %v", tool.Name, err)
	}

	param := anthropic.ToolParam{
		Name: tool.Name,
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
		},
	}
	if tool.Description != "" {
		param.Description = anthropic.String(tool.Description)
	}

	return anthropic.ToolUnionParam{OfTool: &param}, nil
}

func convertToolChoice(choice string) anthropic.ToolChoiceUnionParam {
	switch choice {
	case "auto":
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	case "none":
		return anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	case "any", "required":
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
	default:
		return anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: choice}}
	}
}

func convertContentParts(parts []chat.ContentPart) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, part := range parts {
		switch {
		case part.Image != nil:
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfImage: &anthropic.ImageBlockParam{
					Source: anthropic.ImageBlockParamSourceUnion{
						OfURL: &anthropic.URLImageSourceParam{URL: part.Image.URL},
					},
				},
			})
		case part.InlineImage != nil:
			encoded := base64.StdEncoding.EncodeToString(part.InlineImage.Data)
			blocks = append(blocks, anthropic.NewImageBlockBase64(part.InlineImage.MimeType, encoded))
		default:
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		}
	}
	return blocks, nil
}

func convertMessage(message *anthropic.Message) *chat.Response {
	var content []chat.ContentPart
	var toolCalls []chat.ToolCall

	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content = append(content, chat.Text(variant.Text))
		case anthropic.ToolUseBlock:
			arguments, _ := json.Marshal(variant.Input)
			toolCalls = append(toolCalls, chat.ToolCall{
				ID:            variant.ID,
				Name:          variant.Name,
				ArgumentsJSON: string(arguments),
			})
		}
	}

	input := uint32(message.Usage.InputTokens)
	output := uint32(message.Usage.OutputTokens)
	total := input + output

	return &chat.Response{
		ID:        message.ID,
		Content:   content,
		ToolCalls: toolCalls,
		Metadata: chat.ResponseMetadata{
			FinishReason: convertStopReason(string(message.StopReason)),
			Usage: &chat.Usage{
				InputTokens:  &input,
				OutputTokens: &output,
				TotalTokens:  &total,
			},
			ProviderID: message.ID,
		},
	}
}

func convertStopReason(reason string) chat.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return chat.FinishStop
	case "max_tokens":
		return chat.FinishLength
	case "tool_use":
		return chat.FinishToolCalls
	case "refusal":
		return chat.FinishContentFilter
	case "":
		return ""
	default:
		return chat.FinishOther
	}
}

// wrapSDKError maps SDK errors to typed provider errors.
func wrapSDKError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &chat.Error{
			Code:              chat.ErrorCodeFromStatus(apiErr.StatusCode),
			Message:           fmt.Sprintf("anthropic API error: HTTP %d", apiErr.StatusCode),
			ProviderErrorJSON: apiErr.RawJSON(),
		}
	}
	return chat.Errorf(chat.ErrorInternal, "request failed: %v", err)
}

func textOf(parts []chat.ContentPart) string {
	var b strings.Builder
	for _, part := range parts {
		if part.IsText() {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
