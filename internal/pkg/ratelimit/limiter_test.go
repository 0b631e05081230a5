package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestLimiter(max int, interval time.Duration) (*WindowLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewWindowLimiter(max, interval)
	l.now = clock.Now
	return l, clock
}

func TestWindowLimiter_EleventhCallInWindowDenied(t *testing.T) {
	// Arrange
	l, clock := newTestLimiter(10, 10*time.Second)
	ctx := context.Background()

	// Act
	for i := 0; i < 10; i++ {
		d, err := l.Allow(ctx, "conn-1")
		require.NoError(t, err)
		require.True(t, d.Allowed, "call %d should be allowed", i+1)
		clock.t = clock.t.Add(500 * time.Millisecond)
	}
	d, err := l.Allow(ctx, "conn-1")

	// Assert
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestWindowLimiter_ResetsAfterInterval(t *testing.T) {
	l, clock := newTestLimiter(10, 10*time.Second)
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		_, _ = l.Allow(ctx, "conn-1")
	}

	// exactly one interval later the window is still open
	clock.t = clock.t.Add(10 * time.Second)
	d, _ := l.Allow(ctx, "conn-1")
	assert.False(t, d.Allowed)

	clock.t = clock.t.Add(time.Millisecond)
	d, _ = l.Allow(ctx, "conn-1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 9, d.Remaining)
}

func TestWindowLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Second)
	ctx := context.Background()

	first, _ := l.Allow(ctx, "conn-1")
	second, _ := l.Allow(ctx, "conn-1")
	other, _ := l.Allow(ctx, "conn-2")

	assert.True(t, first.Allowed)
	assert.False(t, second.Allowed)
	assert.True(t, other.Allowed)
}

func TestWindowLimiter_ForgetAndPrune(t *testing.T) {
	l, clock := newTestLimiter(1, time.Second)
	ctx := context.Background()
	_, _ = l.Allow(ctx, "conn-1")
	_, _ = l.Allow(ctx, "conn-2")

	l.Forget("conn-1")
	d, _ := l.Allow(ctx, "conn-1")
	assert.True(t, d.Allowed)

	clock.t = clock.t.Add(2 * time.Second)
	assert.Equal(t, 2, l.Prune())
}
