package chat

import "fmt"

// StreamDelta is an incremental piece of a streamed response.
type StreamDelta struct {
	Content   []ContentPart `json:"content,omitempty"`
	ToolCalls []ToolCall    `json:"tool_calls,omitempty"`
}

// StreamEvent is one element of a response stream. Exactly one of
// Delta or Finish is set.
type StreamEvent struct {
	Delta  *StreamDelta      `json:"delta,omitempty"`
	Finish *ResponseMetadata `json:"finish,omitempty"`
}

// Stream yields the events of a streaming chat response.
//
// Recv blocks until the next event is available. After the finish
// event has been delivered, Recv returns io.EOF. Provider failures are
// returned as *Error.
type Stream interface {
	Recv() (*StreamEvent, error)
	Close() error
}

// RetryPrompt builds the message list used to resume a chat whose
// streamed response was interrupted. The model is instructed to
// continue from where it left off, given the original question and the
// partial response received so far. Tool call fragments are rendered
// as inline markers so the model can see them.
func RetryPrompt(original []Message, partial []StreamDelta) []Message {
	extended := make([]Message, 0, len(original)+3)

	extended = append(extended, Message{
		Role: RoleSystem,
		Content: []ContentPart{Text(
			"You were asked the same question previously, but the response was interrupted before completion. " +
				"Please continue your response from where you left off. " +
				"Do not include the part of the response that was already seen.")},
	})
	extended = append(extended, Message{
		Role:    RoleUser,
		Content: []ContentPart{Text("Here is the original question:")},
	})
	extended = append(extended, original...)

	partialContent := []ContentPart{Text("Here is the partial response that was successfully received:")}
	for _, delta := range partial {
		partialContent = append(partialContent, delta.Content...)
		for _, call := range delta.ToolCalls {
			partialContent = append(partialContent, Text(fmt.Sprintf(
				"<tool-call id=%q name=%q arguments=%q/>",
				call.ID, call.Name, call.ArgumentsJSON)))
		}
	}
	extended = append(extended, Message{
		Role:    RoleUser,
		Content: partialContent,
	})

	return extended
}
