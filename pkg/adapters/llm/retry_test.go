package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/llmgate/pkg/domain/chat"
)

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
		RetryIf:        DefaultRetryable,
	}
}

func TestRetrySucceedsAfterTransientErrors(t *testing.T) {
	attempts := 0
	result, err := Retry(context.Background(), fastRetryConfig(3), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", chat.NewError(chat.ErrorRateLimitExceeded, "slow down")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), fastRetryConfig(3), func(ctx context.Context) (string, error) {
		attempts++
		return "", chat.NewError(chat.ErrorInvalidRequest, "bad request")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, chat.ErrorInvalidRequest, chat.AsError(err).Code)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), fastRetryConfig(2), func(ctx context.Context) (string, error) {
		attempts++
		return "", chat.NewError(chat.ErrorInternal, "flaky")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, fastRetryConfig(5), func(ctx context.Context) (string, error) {
		return "", chat.NewError(chat.ErrorInternal, "flaky")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultRetryable(t *testing.T) {
	assert.False(t, DefaultRetryable(nil))
	assert.False(t, DefaultRetryable(context.Canceled))
	assert.False(t, DefaultRetryable(context.DeadlineExceeded))
	assert.False(t, DefaultRetryable(errors.New("unknown")))
	assert.True(t, DefaultRetryable(chat.NewError(chat.ErrorRateLimitExceeded, "x")))
	assert.True(t, DefaultRetryable(chat.NewError(chat.ErrorInternal, "x")))
	assert.False(t, DefaultRetryable(chat.NewError(chat.ErrorAuthenticationFailed, "x")))
}
