package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentPartHelpers(t *testing.T) {
	text := Text("hello")
	assert.True(t, text.IsText())
	assert.Equal(t, "hello", text.Text)

	image := Image("https://example.com/cat.png")
	assert.False(t, image.IsText())
	assert.Equal(t, "https://example.com/cat.png", image.Image.URL)

	inline := InlineImage([]byte{0xff, 0xd8}, "image/jpeg")
	assert.False(t, inline.IsText())
	assert.Equal(t, "image/jpeg", inline.InlineImage.MimeType)
}

func TestConfigProviderOption(t *testing.T) {
	config := Config{
		Model: "gpt-4o",
		ProviderOptions: []KV{
			{Key: "seed", Value: "42"},
			{Key: "top_p", Value: "0.9"},
		},
	}

	value, ok := config.ProviderOption("seed")
	assert.True(t, ok)
	assert.Equal(t, "42", value)

	_, ok = config.ProviderOption("missing")
	assert.False(t, ok)
}

func TestResponseIsToolRequest(t *testing.T) {
	toolRequest := &Response{
		ToolCalls: []ToolCall{{ID: "call_1", Name: "get_weather", ArgumentsJSON: "{}"}},
	}
	assert.True(t, toolRequest.IsToolRequest())

	mixed := &Response{
		Content:   []ContentPart{Text("checking the weather")},
		ToolCalls: []ToolCall{{ID: "call_1", Name: "get_weather", ArgumentsJSON: "{}"}},
	}
	assert.False(t, mixed.IsToolRequest())

	plain := &Response{Content: []ContentPart{Text("hi")}}
	assert.False(t, plain.IsToolRequest())
}

func TestResponsePlainText(t *testing.T) {
	response := &Response{
		Content: []ContentPart{
			Text("hello "),
			Image("https://example.com/cat.png"),
			Text("world"),
		},
	}
	assert.Equal(t, "hello world", response.PlainText())
}

func TestToolResultIsError(t *testing.T) {
	assert.False(t, ToolResult{ID: "call_1", ResultJSON: `{"ok":true}`}.IsError())
	assert.True(t, ToolResult{ID: "call_1", ErrorMessage: "boom"}.IsError())
}
