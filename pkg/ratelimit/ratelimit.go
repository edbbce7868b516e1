// Package ratelimit enforces the upstream request spacing. The API allows
// roughly 1000 requests per day and asks clients to keep at least two
// seconds between calls, so the limiter here is a simple fixed-delay gate
// shared by every request the executor dispatches.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the minimum spacing between upstream requests.
const DefaultDelay = 2 * time.Second

// Limiter gates requests so that consecutive calls are separated by at
// least a fixed delay.
type Limiter interface {
	// Wait blocks until the next request may be dispatched, or until ctx
	// is cancelled.
	Wait(ctx context.Context) error

	// Reserve returns how long a caller would have to wait right now.
	Reserve() time.Duration

	// Reset clears the limiter state so the next call proceeds immediately.
	Reset()
}

// FixedDelay enforces a fixed delay between requests.
type FixedDelay struct {
	delay       time.Duration
	lastRequest time.Time
	mu          sync.Mutex
}

// NewFixedDelay creates a fixed-delay limiter. A non-positive delay falls
// back to DefaultDelay.
func NewFixedDelay(delay time.Duration) *FixedDelay {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &FixedDelay{delay: delay}
}

// Wait blocks until the fixed delay since the previous request has elapsed.
func (fd *FixedDelay) Wait(ctx context.Context) error {
	fd.mu.Lock()
	wait, now := fd.reserve(time.Now())
	fd.lastRequest = now.Add(wait)
	fd.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reserve returns the time a caller would wait without consuming a slot.
func (fd *FixedDelay) Reserve() time.Duration {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	wait, _ := fd.reserve(time.Now())
	return wait
}

func (fd *FixedDelay) reserve(now time.Time) (time.Duration, time.Time) {
	if fd.lastRequest.IsZero() {
		return 0, now
	}

	elapsed := now.Sub(fd.lastRequest)
	if elapsed >= fd.delay {
		return 0, now
	}

	return fd.delay - elapsed, now
}

// Reset clears the last request time.
func (fd *FixedDelay) Reset() {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.lastRequest = time.Time{}
}
