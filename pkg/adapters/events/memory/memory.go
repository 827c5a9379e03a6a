package memory

import (
	"context"
	"sync"

	"github.com/aescanero/llmgate/pkg/ports"
	"go.uber.org/zap"
)

// InMemoryEventBus implements EventBus with in-process dispatch.
// This is for testing and single-node deployments.
type InMemoryEventBus struct {
	subscribers map[string][]ports.EventHandler
	logger      *zap.Logger
	mu          sync.RWMutex
	closed      bool
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]ports.EventHandler),
		logger:      logger,
	}
}

// Publish delivers an event to all handlers subscribed to the topic.
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	e.mu.RLock()
	handlers := make([]ports.EventHandler, len(e.subscribers[topic]))
	copy(handlers, e.subscribers[topic])
	closed := e.closed
	e.mu.RUnlock()

	if closed {
		return nil
	}

	e.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("topic", topic),
		zap.Int("handlers", len(handlers)))

	for _, handler := range handlers {
		go func(h ports.EventHandler) {
			if err := h(ctx, event); err != nil {
				e.logger.Error("handler error",
					zap.String("event_id", event.ID),
					zap.String("topic", topic),
					zap.Error(err))
			}
		}(handler)
	}

	return nil
}

// Subscribe registers a handler for events on a topic.
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers[topic] = append(e.subscribers[topic], handler)

	e.logger.Debug("subscribed to topic",
		zap.String("topic", topic),
		zap.Int("handlers", len(e.subscribers[topic])))

	return nil
}

// Unsubscribe removes all handlers for a topic.
func (e *InMemoryEventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.subscribers, topic)
	return nil
}

// Close stops the bus. Further publishes are dropped.
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.subscribers = make(map[string][]ports.EventHandler)
	return nil
}
