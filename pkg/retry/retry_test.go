package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	config := DefaultConfig()
	config.InitialDelay = time.Millisecond
	config.MaxDelay = 2 * time.Millisecond
	config.Jitter = false
	return config
}

func TestDoWithResult_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(), "test", func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	cause := errors.New("still down")
	err := Do(context.Background(), fastConfig(), "test", func() error {
		calls++
		return cause
	})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 4, calls, "first attempt plus MaxRetries")
}

func TestDo_NonRetryable(t *testing.T) {
	config := fastConfig()
	config.RetryableErrors = IsRetryable

	calls := 0
	err := Do(context.Background(), config, "test", func() error {
		calls++
		return context.DeadlineExceeded
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), "test", func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay_Capped(t *testing.T) {
	config := Config{InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, calculateDelay(0, config))
	assert.Equal(t, 2*time.Second, calculateDelay(1, config))
	assert.Equal(t, 3*time.Second, calculateDelay(5, config))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(errors.New("503")))
}
