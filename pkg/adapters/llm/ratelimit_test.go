package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBurst(t *testing.T) {
	limiter := NewRateLimiter(1, 3)

	assert.True(t, limiter.TryAcquire())
	assert.True(t, limiter.TryAcquire())
	assert.True(t, limiter.TryAcquire())
	assert.False(t, limiter.TryAcquire())
}

func TestRateLimiterRefills(t *testing.T) {
	limiter := NewRateLimiter(100, 1)

	require.True(t, limiter.TryAcquire())
	require.False(t, limiter.TryAcquire())

	time.Sleep(50 * time.Millisecond)
	assert.True(t, limiter.TryAcquire())
}

func TestRateLimiterWaitCancelled(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	require.True(t, limiter.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterAvailable(t *testing.T) {
	limiter := NewRateLimiter(1, 5)
	assert.InDelta(t, 5, limiter.Available(), 0.01)

	limiter.TryAcquire()
	assert.InDelta(t, 4, limiter.Available(), 0.01)
}
