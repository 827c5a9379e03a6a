package ollama

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/aescanero/llmgate/pkg/domain/chat"
)

// chatStream adapts Ollama's NDJSON streaming to chat.Stream. Each
// line is a complete wireResponse; the final line has done=true and
// carries the eval counts.
type chatStream struct {
	body     io.ReadCloser
	scanner  *bufio.Scanner
	finished bool
}

func newChatStream(body io.ReadCloser) *chatStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &chatStream{
		body:    body,
		scanner: scanner,
	}
}

func (s *chatStream) Recv() (*chat.StreamEvent, error) {
	if s.finished {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var response wireResponse
		if err := json.Unmarshal(line, &response); err != nil {
			return nil, chat.Errorf(chat.ErrorInternal, "failed to parse stream line: %v", err)
		}

		if response.Done {
			s.finished = true
			input := response.PromptEvalCount
			output := response.EvalCount
			total := input + output
			return &chat.StreamEvent{Finish: &chat.ResponseMetadata{
				FinishReason: convertDoneReason(response.DoneReason),
				Usage: &chat.Usage{
					InputTokens:  &input,
					OutputTokens: &output,
					TotalTokens:  &total,
				},
				ProviderID: response.Model,
				Timestamp:  response.CreatedAt,
			}}, nil
		}

		delta := &chat.StreamDelta{}
		if response.Message.Content != "" {
			delta.Content = []chat.ContentPart{chat.Text(response.Message.Content)}
		}
		delta.ToolCalls = convertToolCalls(response.Message.ToolCalls)

		if len(delta.Content) > 0 || len(delta.ToolCalls) > 0 {
			return &chat.StreamEvent{Delta: delta}, nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		return nil, chat.Errorf(chat.ErrorInternal, "stream read failed: %v", err)
	}

	s.finished = true
	return nil, io.EOF
}

func (s *chatStream) Close() error {
	return s.body.Close()
}
