package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig() Config {
	return Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestRetrier_SucceedsAfterFailures(t *testing.T) {
	// Arrange
	r := New(fastConfig(), nil)
	calls := 0

	// Act
	err := r.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("store timeout")
		}
		return nil
	})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_ExhaustsBudget(t *testing.T) {
	r := New(fastConfig(), nil)
	cause := errors.New("store timeout")
	calls := 0

	err := r.Execute(context.Background(), func(context.Context) error {
		calls++
		return cause
	})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestRetrier_PermanentStopsImmediately(t *testing.T) {
	r := New(fastConfig(), nil)
	cause := errors.New("illegal transition")
	calls := 0

	err := r.Execute(context.Background(), func(context.Context) error {
		calls++
		return Permanent(cause)
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_ContextCancelledBetweenAttempts(t *testing.T) {
	r := New(Config{MaxRetries: 5, BaseDelay: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	err := r.Execute(ctx, func(context.Context) error {
		cancel()
		return errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetrier_DelayCapped(t *testing.T) {
	r := New(Config{BaseDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2}, nil)

	assert.Equal(t, time.Second, r.delay(0))
	assert.Equal(t, 2*time.Second, r.delay(1))
	assert.Equal(t, 3*time.Second, r.delay(5))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("x")))
	assert.False(t, IsRetryable(Permanent(errors.New("x"))))
	assert.False(t, IsRetryable(context.Canceled))
	assert.Nil(t, Permanent(nil))
}
