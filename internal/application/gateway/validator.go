package gateway

import (
	"encoding/json"

	"github.com/aescanero/llmgate/pkg/domain/chat"
)

// Validator validates chat requests before they reach a provider
type Validator struct{}

// NewValidator creates a new request validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the messages and config of a chat request
func (v *Validator) Validate(messages []chat.Message, config chat.Config) error {
	if err := v.ValidateMessages(messages); err != nil {
		return err
	}
	return v.ValidateConfig(config)
}

// ValidateMessages validates the conversation turns
func (v *Validator) ValidateMessages(messages []chat.Message) error {
	if len(messages) == 0 {
		return chat.NewError(chat.ErrorInvalidRequest, "at least one message is required")
	}

	for i, msg := range messages {
		switch msg.Role {
		case chat.RoleUser, chat.RoleAssistant, chat.RoleSystem, chat.RoleTool:
		default:
			return chat.Errorf(chat.ErrorInvalidRequest, "message %d: unknown role %q", i, msg.Role)
		}

		// Tool request and tool result turns legitimately carry no content
		if len(msg.Content) == 0 && len(msg.ToolCalls) == 0 && len(msg.ToolResults) == 0 {
			return chat.Errorf(chat.ErrorInvalidRequest, "message %d: content is empty", i)
		}
	}

	return nil
}

// ValidateConfig validates the model parameters
func (v *Validator) ValidateConfig(config chat.Config) error {
	if config.Model == "" {
		return chat.NewError(chat.ErrorInvalidRequest, "model is required")
	}

	if config.Temperature != nil {
		if *config.Temperature < 0 || *config.Temperature > 2 {
			return chat.Errorf(chat.ErrorInvalidRequest, "temperature %g out of range [0, 2]", *config.Temperature)
		}
	}

	if config.MaxTokens != nil && *config.MaxTokens == 0 {
		return chat.NewError(chat.ErrorInvalidRequest, "max_tokens must be positive")
	}

	toolNames := make(map[string]bool, len(config.Tools))
	for _, tool := range config.Tools {
		if tool.Name == "" {
			return chat.NewError(chat.ErrorInvalidRequest, "tool name is required")
		}
		if toolNames[tool.Name] {
			return chat.Errorf(chat.ErrorInvalidRequest, "duplicate tool name: %s", tool.Name)
		}
		toolNames[tool.Name] = true

		if !json.Valid([]byte(tool.ParametersSchema)) {
			return chat.Errorf(chat.ErrorInvalidRequest, "tool %s: parameters schema is not valid JSON", tool.Name)
		}
	}

	switch config.ToolChoice {
	case "", "auto", "none", "required":
	default:
		// A named tool choice must reference a declared tool
		if !toolNames[config.ToolChoice] {
			return chat.Errorf(chat.ErrorInvalidRequest, "tool choice %q does not match any tool", config.ToolChoice)
		}
	}

	return nil
}
