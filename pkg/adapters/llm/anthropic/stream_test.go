package anthropic

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/llmgate/pkg/domain/chat"
)

// sseStream feeds raw event-stream text through the SDK decoder so the
// adapter sees the same events a live response produces.
func sseStream(body string) *chatStream {
	res := &http.Response{
		Header: http.Header{"Content-Type": []string{"text/event-stream"}},
		Body:   io.NopCloser(strings.NewReader(body)),
	}
	decoder := ssestream.NewDecoder(res)
	return newChatStream(ssestream.NewStream[anthropic.MessageStreamEventUnion](decoder, nil))
}

func TestChatStreamText(t *testing.T) {
	stream := sseStream(strings.Join([]string{
		"event: message_start",
		`data: {"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[],"usage":{"input_tokens":10,"output_tokens":0}}}`,
		"",
		"event: content_block_start",
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		"",
		"event: content_block_delta",
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"the answer"}}`,
		"",
		"event: content_block_delta",
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" is 42"}}`,
		"",
		"event: content_block_stop",
		`data: {"type":"content_block_stop","index":0}`,
		"",
		"event: message_delta",
		`data: {"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":5}}`,
		"",
		"event: message_stop",
		`data: {"type":"message_stop"}`,
		"",
	}, "\n") + "\n")
	defer stream.Close()

	first, err := stream.Recv()
	require.NoError(t, err)
	require.NotNil(t, first.Delta)
	assert.Equal(t, "the answer", first.Delta.Content[0].Text)

	second, err := stream.Recv()
	require.NoError(t, err)
	require.NotNil(t, second.Delta)
	assert.Equal(t, " is 42", second.Delta.Content[0].Text)

	finish, err := stream.Recv()
	require.NoError(t, err)
	require.NotNil(t, finish.Finish)
	assert.Equal(t, chat.FinishStop, finish.Finish.FinishReason)
	assert.Equal(t, uint32(10), *finish.Finish.Usage.InputTokens)
	assert.Equal(t, uint32(5), *finish.Finish.Usage.OutputTokens)
	assert.Equal(t, uint32(15), *finish.Finish.Usage.TotalTokens)
	assert.Equal(t, "msg_01", finish.Finish.ProviderID)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestChatStreamToolUse(t *testing.T) {
	stream := sseStream(strings.Join([]string{
		"event: message_start",
		`data: {"type":"message_start","message":{"id":"msg_02","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[],"usage":{"input_tokens":4,"output_tokens":0}}}`,
		"",
		"event: content_block_start",
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather","input":{}}}`,
		"",
		"event: content_block_delta",
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"city\":"}}`,
		"",
		"event: content_block_delta",
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"\"Malaga\"}"}}`,
		"",
		"event: content_block_stop",
		`data: {"type":"content_block_stop","index":0}`,
		"",
		"event: message_delta",
		`data: {"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":2}}`,
		"",
		"event: message_stop",
		`data: {"type":"message_stop"}`,
		"",
	}, "\n") + "\n")
	defer stream.Close()

	// Each fragment yields the accumulated argument snapshot
	first, err := stream.Recv()
	require.NoError(t, err)
	require.Len(t, first.Delta.ToolCalls, 1)
	assert.Equal(t, "toolu_1", first.Delta.ToolCalls[0].ID)
	assert.Equal(t, "get_weather", first.Delta.ToolCalls[0].Name)
	assert.Equal(t, `{"city":`, first.Delta.ToolCalls[0].ArgumentsJSON)

	second, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, `{"city":"Malaga"}`, second.Delta.ToolCalls[0].ArgumentsJSON)

	finish, err := stream.Recv()
	require.NoError(t, err)
	require.NotNil(t, finish.Finish)
	assert.Equal(t, chat.FinishToolCalls, finish.Finish.FinishReason)

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestChatStreamError(t *testing.T) {
	stream := sseStream(strings.Join([]string{
		"event: error",
		`data: {"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
		"",
	}, "\n") + "\n")
	defer stream.Close()

	_, err := stream.Recv()
	require.Error(t, err)
	assert.Equal(t, chat.ErrorInternal, chat.AsError(err).Code)
}
