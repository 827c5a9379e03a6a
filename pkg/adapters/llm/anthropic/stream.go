package anthropic

import (
	"io"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/aescanero/llmgate/pkg/domain/chat"
)

// blockState tracks one streamed tool_use content block; the argument
// JSON arrives as input_json_delta fragments keyed by block index.
type blockState struct {
	id   string
	name string
	json strings.Builder
}

// chatStream adapts the Messages API event stream to chat.Stream.
type chatStream struct {
	stream       *ssestream.Stream[anthropic.MessageStreamEventUnion]
	blocks       map[int64]*blockState
	providerID   string
	inputTokens  uint32
	outputTokens uint32
	finishReason chat.FinishReason
	finished     bool
}

func newChatStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion]) *chatStream {
	return &chatStream{
		stream: stream,
		blocks: make(map[int64]*blockState),
	}
}

func (s *chatStream) Recv() (*chat.StreamEvent, error) {
	if s.finished {
		return nil, io.EOF
	}

	for s.stream.Next() {
		event := s.stream.Current()

		switch variant := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			s.providerID = variant.Message.ID
			s.inputTokens = uint32(variant.Message.Usage.InputTokens)

		case anthropic.ContentBlockStartEvent:
			if variant.ContentBlock.Type == "tool_use" {
				s.blocks[variant.Index] = &blockState{
					id:   variant.ContentBlock.ID,
					name: variant.ContentBlock.Name,
				}
			}

		case anthropic.ContentBlockDeltaEvent:
			switch variant.Delta.Type {
			case "text_delta":
				if variant.Delta.Text != "" {
					return &chat.StreamEvent{Delta: &chat.StreamDelta{
						Content: []chat.ContentPart{chat.Text(variant.Delta.Text)},
					}}, nil
				}
			case "input_json_delta":
				block, ok := s.blocks[variant.Index]
				if !ok {
					continue
				}
				block.json.WriteString(variant.Delta.PartialJSON)
				return &chat.StreamEvent{Delta: &chat.StreamDelta{
					ToolCalls: []chat.ToolCall{{
						ID:            block.id,
						Name:          block.name,
						ArgumentsJSON: block.json.String(),
					}},
				}}, nil
			}

		case anthropic.MessageDeltaEvent:
			s.finishReason = convertStopReason(string(variant.Delta.StopReason))
			s.outputTokens = uint32(variant.Usage.OutputTokens)

		case anthropic.MessageStopEvent:
			s.finished = true
			total := s.inputTokens + s.outputTokens
			input := s.inputTokens
			output := s.outputTokens
			return &chat.StreamEvent{Finish: &chat.ResponseMetadata{
				FinishReason: s.finishReason,
				Usage: &chat.Usage{
					InputTokens:  &input,
					OutputTokens: &output,
					TotalTokens:  &total,
				},
				ProviderID: s.providerID,
			}}, nil
		}
	}

	if err := s.stream.Err(); err != nil {
		return nil, wrapSDKError(err)
	}

	s.finished = true
	return nil, io.EOF
}

func (s *chatStream) Close() error {
	return s.stream.Close()
}
