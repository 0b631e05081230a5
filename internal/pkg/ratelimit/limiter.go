package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter throttles calls per key
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Pruner is implemented by limiters that keep their buckets in process memory
type Pruner interface {
	Prune() int
}

type bucket struct {
	count       int
	windowStart time.Time
}

// WindowLimiter keeps a request count and a window start per key in memory.
// The count resets on the first call made more than interval after the
// window started.
type WindowLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	max      int
	interval time.Duration
	now      func() time.Time
}

// NewWindowLimiter creates an in-memory limiter allowing max calls per interval
func NewWindowLimiter(max int, interval time.Duration) *WindowLimiter {
	return &WindowLimiter{
		buckets:  make(map[string]*bucket),
		max:      max,
		interval: interval,
		now:      time.Now,
	}
}

// Allow never returns an error; the signature matches Limiter
func (l *WindowLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{windowStart: now}
		l.buckets[key] = b
	}
	if now.Sub(b.windowStart) > l.interval {
		b.count = 0
		b.windowStart = now
	}

	d := Decision{Limit: l.max, ResetAt: b.windowStart.Add(l.interval)}
	if b.count >= l.max {
		return d, nil
	}
	b.count++
	d.Allowed = true
	d.Remaining = l.max - b.count
	return d, nil
}

// Forget drops the bucket of a closed connection
func (l *WindowLimiter) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Prune drops buckets whose window has elapsed and returns how many were removed
func (l *WindowLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.windowStart) > l.interval {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}
