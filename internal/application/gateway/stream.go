package gateway

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/aescanero/llmgate/pkg/domain/chat"
	"github.com/aescanero/llmgate/pkg/domain/session"
)

// managedStream wraps a provider stream and persists each delta to the
// session transcript. If the stream is interrupted, the saved deltas
// allow ResumeStream to continue the response.
type managedStream struct {
	inner   chat.Stream
	manager *Manager
	session *session.Session
	config  chat.Config
	closed  bool
}

func (s *managedStream) Recv() (*chat.StreamEvent, error) {
	event, err := s.inner.Recv()
	if err != nil {
		if err == io.EOF {
			return nil, err
		}
		s.manager.metrics.RecordStreamEvent(s.manager.client.Name(), "error")
		s.persist()
		return nil, err
	}

	switch {
	case event.Delta != nil:
		s.manager.metrics.RecordStreamEvent(s.manager.client.Name(), "delta")
		s.session.PartialDeltas = append(s.session.PartialDeltas, *event.Delta)
		s.persist()

	case event.Finish != nil:
		s.manager.metrics.RecordStreamEvent(s.manager.client.Name(), "finish")
		s.manager.recordUsage(s.config.Model, event.Finish.Usage)
		s.finalize()
	}

	return event, nil
}

func (s *managedStream) Close() error {
	if !s.closed {
		s.closed = true
		s.manager.metrics.DecActiveStreams()
	}
	return s.inner.Close()
}

// finalize folds the accumulated deltas into an assistant message and
// clears the partial state. Tool call deltas arrive as accumulated
// snapshots, so the last one per call ID wins.
func (s *managedStream) finalize() {
	var content []chat.ContentPart
	var toolCalls []chat.ToolCall
	seen := make(map[string]int)

	for _, delta := range s.session.PartialDeltas {
		content = append(content, delta.Content...)
		for _, call := range delta.ToolCalls {
			if i, ok := seen[call.ID]; ok {
				toolCalls[i] = call
				continue
			}
			seen[call.ID] = len(toolCalls)
			toolCalls = append(toolCalls, call)
		}
	}

	if len(content) > 0 || len(toolCalls) > 0 {
		s.session.Messages = append(s.session.Messages, chat.Message{
			Role:      chat.RoleAssistant,
			Content:   content,
			ToolCalls: toolCalls,
		})
	}
	s.session.PartialDeltas = nil
	s.persist()
}

func (s *managedStream) persist() {
	if err := s.manager.saveSession(context.Background(), s.session); err != nil {
		s.manager.logger.Error("failed to save stream state",
			zap.String("session_id", s.session.ID),
			zap.Error(err))
	}
}
