package openaicompat

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aescanero/llmgate/pkg/adapters/llm/sse"
	"github.com/aescanero/llmgate/pkg/domain/chat"
)

// jsonFragment accumulates the argument JSON of one streamed tool
// call. Arguments arrive in fragments keyed by the tool call index.
type jsonFragment struct {
	id   string
	name string
	json strings.Builder
}

// chatStream adapts an SSE chat completions stream to chat.Stream.
type chatStream struct {
	source       *sse.EventSource
	fragments    map[int]*jsonFragment
	finishReason chat.FinishReason
	finished     bool
}

// NewChatStream wraps a raw SSE event source as a domain stream.
func NewChatStream(source *sse.EventSource) chat.Stream {
	return &chatStream{
		source:    source,
		fragments: make(map[int]*jsonFragment),
	}
}

func (s *chatStream) Recv() (*chat.StreamEvent, error) {
	if s.finished {
		return nil, io.EOF
	}

	for {
		event, err := s.source.Next()
		if err == io.EOF {
			s.finished = true
			if s.finishReason != "" {
				// Stream ended without a usage chunk
				return &chat.StreamEvent{Finish: &chat.ResponseMetadata{
					FinishReason: s.finishReason,
				}}, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, chat.Errorf(chat.ErrorInternal, "stream read failed: %v", err)
		}

		if strings.HasPrefix(event.Data, "[DONE]") {
			s.finished = true
			return nil, io.EOF
		}

		streamEvent, err := s.decode(event.Data)
		if err != nil {
			return nil, err
		}
		if streamEvent != nil {
			return streamEvent, nil
		}
	}
}

func (s *chatStream) decode(data string) (*chat.StreamEvent, error) {
	var chunk Chunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return nil, chat.Errorf(chat.ErrorInternal, "failed to parse stream chunk: %v", err)
	}

	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]

		if choice.FinishReason != nil {
			s.finishReason = ConvertFinishReason(*choice.FinishReason)
		}

		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			return &chat.StreamEvent{Delta: &chat.StreamDelta{
				Content: []chat.ContentPart{chat.Text(*choice.Delta.Content)},
			}}, nil
		}

		if len(choice.Delta.ToolCalls) > 0 {
			var calls []chat.ToolCall
			for _, call := range choice.Delta.ToolCalls {
				index := 0
				if call.Index != nil {
					index = *call.Index
				}

				fragment, ok := s.fragments[index]
				if !ok {
					fragment = &jsonFragment{id: call.ID, name: call.Function.Name}
					s.fragments[index] = fragment
				}
				if call.ID != "" {
					fragment.id = call.ID
				}
				if call.Function.Name != "" {
					fragment.name = call.Function.Name
				}
				fragment.json.WriteString(call.Function.Arguments)

				if fragment.id != "" && fragment.name != "" {
					calls = append(calls, chat.ToolCall{
						ID:            fragment.id,
						Name:          fragment.name,
						ArgumentsJSON: fragment.json.String(),
					})
				}
			}
			if len(calls) > 0 {
				return &chat.StreamEvent{Delta: &chat.StreamDelta{ToolCalls: calls}}, nil
			}
		}
	}

	if chunk.Usage != nil {
		s.finished = true
		return &chat.StreamEvent{Finish: &chat.ResponseMetadata{
			FinishReason: s.finishReason,
			Usage:        convertUsage(chunk.Usage),
			ProviderID:   chunk.ID,
			Timestamp:    strconv.FormatInt(chunk.Created, 10),
		}}, nil
	}

	return nil, nil
}

func (s *chatStream) Close() error {
	if err := s.source.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}
