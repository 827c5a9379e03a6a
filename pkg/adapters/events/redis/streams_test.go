package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/llmgate/pkg/ports"
)

func newTestBus(t *testing.T) (*StreamsEventBus, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bus, err := NewStreamsEventBus(client, "test-group", "test-consumer", zap.NewNop())
	require.NoError(t, err)
	return bus, client
}

func TestPublishWritesToStream(t *testing.T) {
	bus, client := newTestBus(t)
	ctx := context.Background()

	event := ports.Event{
		ID:        "e1",
		Type:      ports.EventTypeJobSubmitted,
		Timestamp: time.Now().UTC(),
		JobID:     "j1",
	}
	require.NoError(t, bus.Publish(ctx, "job.events", event))

	messages, err := client.XRange(ctx, "llmgate:events:job.events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)

	var stored ports.Event
	require.NoError(t, json.Unmarshal([]byte(messages[0].Values["data"].(string)), &stored))
	assert.Equal(t, "e1", stored.ID)
	assert.Equal(t, ports.EventTypeJobSubmitted, stored.Type)
	assert.Equal(t, "j1", stored.JobID)
}

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	bus, _ := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ports.Event, 1)
	require.NoError(t, bus.Subscribe(ctx, "job.events", func(ctx context.Context, event ports.Event) error {
		received <- event
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, "job.events", ports.Event{ID: "e2", Type: ports.EventTypeJobSubmitted}))

	select {
	case got := <-received:
		assert.Equal(t, "e2", got.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}
