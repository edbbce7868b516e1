package client

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petfinder_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "petfinder_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{1, 5, 10, 20, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petfinder_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryPolicy holds the configuration for retry behaviour. The backoff is
// linear in the attempt number: attempt i (0-based) waits Step*(i+1) before
// the next try, with a larger step for rate-limit responses.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts per call.
	MaxAttempts int

	// RateLimitStep is the backoff step after a 429 response.
	RateLimitStep time.Duration

	// TransientStep is the backoff step after any other retriable fault.
	TransientStep time.Duration
}

// DefaultRetryPolicy returns the upstream-mandated retry configuration:
// three attempts, 10s rate-limit steps, 5s transient steps.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		RateLimitStep: 10 * time.Second,
		TransientStep: 5 * time.Second,
	}
}

func (p RetryPolicy) applyDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.RateLimitStep <= 0 {
		p.RateLimitStep = def.RateLimitStep
	}
	if p.TransientStep <= 0 {
		p.TransientStep = def.TransientStep
	}
	return p
}

// Backoff returns the wait before the next attempt after a failure of the
// given class on the given 0-based attempt.
func (p RetryPolicy) Backoff(class ErrorClass, attempt int) time.Duration {
	step := p.TransientStep
	if class == ErrorClassRateLimit {
		step = p.RateLimitStep
	}
	return step * time.Duration(attempt+1)
}

// sleep waits for d with context cancellation support.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
