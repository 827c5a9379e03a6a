package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPrompt(t *testing.T) {
	original := []Message{
		{Role: RoleUser, Content: []ContentPart{Text("what is the weather in Malaga?")}},
	}
	partial := []StreamDelta{
		{Content: []ContentPart{Text("The weather in ")}},
		{ToolCalls: []ToolCall{{ID: "call_1", Name: "get_weather", ArgumentsJSON: `{"city":"Malaga"}`}}},
	}

	prompt := RetryPrompt(original, partial)
	require.Len(t, prompt, 4)

	assert.Equal(t, RoleSystem, prompt[0].Role)
	assert.Contains(t, prompt[0].Content[0].Text, "interrupted")

	assert.Equal(t, RoleUser, prompt[1].Role)
	assert.Equal(t, original[0], prompt[2])

	last := prompt[3]
	assert.Equal(t, RoleUser, last.Role)
	require.Len(t, last.Content, 3)
	assert.Contains(t, last.Content[0].Text, "partial response")
	assert.Equal(t, "The weather in ", last.Content[1].Text)
	assert.Contains(t, last.Content[2].Text, `name="get_weather"`)
}
