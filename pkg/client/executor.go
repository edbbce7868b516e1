// Package client provides the authenticated Petfinder HTTP executor with
// rate limiting, bounded retries, and credential refresh.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/shelterdata/petfinder-collector/pkg/auth"
	"github.com/shelterdata/petfinder-collector/pkg/logging"
	"github.com/shelterdata/petfinder-collector/pkg/ratelimit"
)

// TokenLeeway is how long before its actual expiry a credential is treated
// as stale, to avoid races against request latency.
const TokenLeeway = 5 * time.Minute

// Prometheus metrics for executor operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petfinder_requests_total",
		Help: "Total Petfinder requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "petfinder_request_duration_seconds",
		Help:    "Petfinder request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petfinder_errors_total",
		Help: "Total Petfinder errors by class",
	}, []string{"class"})
)

// Config holds the executor configuration.
type Config struct {
	// Auth provides and refreshes the bearer credential (required).
	Auth *auth.Manager

	// BaseURL of the API, e.g. "https://api.petfinder.com/v2" (required).
	BaseURL string

	// Limiter spaces out requests. Defaults to a 2s fixed-delay limiter.
	Limiter ratelimit.Limiter

	// Retry is the per-call retry policy. Zero fields get defaults.
	Retry RetryPolicy

	// HTTPClient used for requests. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// Executor issues authenticated GET requests against the API with the
// mandated inter-request delay and bounded retries.
type Executor struct {
	httpClient *http.Client
	auth       *auth.Manager
	baseURL    string
	limiter    ratelimit.Limiter
	retry      RetryPolicy
	logger     zerolog.Logger
}

// New creates a request executor.
func New(cfg Config) (*Executor, error) {
	if cfg.Auth == nil {
		return nil, fmt.Errorf("auth manager is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewFixedDelay(ratelimit.DefaultDelay)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Executor{
		httpClient: httpClient,
		auth:       cfg.Auth,
		baseURL:    cfg.BaseURL,
		limiter:    limiter,
		retry:      cfg.Retry.applyDefaults(),
		logger:     logging.NewLogger("executor"),
	}, nil
}

// Get performs an authenticated GET against path (e.g. "/animals") with the
// given query parameters. It waits out the inter-request delay before every
// attempt, refreshes the credential when it is stale or rejected, backs off
// on 429, and retries transient faults up to the policy's attempt budget.
// On success the response body is open and owned by the caller.
func (e *Executor) Get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	endpoint := path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Refresh the credential once per call, before dispatch, when less
	// than the leeway of validity remains.
	cred := e.auth.Token()
	if !cred.Valid(TokenLeeway) {
		e.logger.Debug().Str("endpoint", endpoint).Msg("Credential stale, refreshing")
		var err error
		cred, err = e.auth.Authenticate(ctx)
		if err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassAuth)).Inc()
			return nil, err
		}
	}

	var lastErr error
	var lastClass ErrorClass

	for attempt := 0; attempt < e.retry.MaxAttempts; attempt++ {
		// Mandated spacing between requests, regardless of outcome.
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}

		if attempt > 0 {
			retriesTotal.WithLabelValues(string(lastClass)).Inc()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if params != nil {
			req.URL.RawQuery = params.Encode()
		}
		req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			lastErr = err
			lastClass = classify(nil, err)
			errorsTotal.WithLabelValues(string(lastClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()

			e.logger.Error().Err(err).
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Msg("HTTP request failed")

			if attempt == e.retry.MaxAttempts-1 {
				return nil, fmt.Errorf("request %s: %w", endpoint, err)
			}
			if err := e.backoff(ctx, lastClass, attempt); err != nil {
				return nil, err
			}
			continue
		}

		requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		class := classify(resp, nil)
		errorsTotal.WithLabelValues(string(class)).Inc()
		lastClass = class
		lastErr = &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
		resp.Body.Close()

		switch class {
		case ErrorClassRateLimit:
			wait := e.retry.Backoff(class, attempt)
			e.logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Dur("backoff", wait).
				Msg("Rate limited, backing off")
			retryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())
			if err := sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
			}

		case ErrorClassAuth:
			e.logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Msg("Credential rejected, re-authenticating")
			cred, err = e.auth.Authenticate(ctx)
			if err != nil {
				return nil, err
			}

		default:
			e.logger.Warn().
				Str("endpoint", endpoint).
				Int("status_code", resp.StatusCode).
				Int("attempt", attempt+1).
				Msg("Request error")
			if attempt == e.retry.MaxAttempts-1 {
				return nil, lastErr
			}
			if err := e.backoff(ctx, class, attempt); err != nil {
				return nil, err
			}
		}
	}

	retryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	e.logger.Error().
		Str("endpoint", endpoint).
		Int("max_attempts", e.retry.MaxAttempts).
		Msg("Retry attempts exhausted")

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, e.retry.MaxAttempts, lastErr)
}

func (e *Executor) backoff(ctx context.Context, class ErrorClass, attempt int) error {
	wait := e.retry.Backoff(class, attempt)
	retryBackoffSeconds.WithLabelValues(string(class)).Observe(wait.Seconds())

	e.logger.Debug().
		Str("error_class", string(class)).
		Int("attempt", attempt+1).
		Dur("backoff", wait).
		Msg("Retrying request after backoff")

	if err := sleep(ctx, wait); err != nil {
		return fmt.Errorf("%w: %v", ErrContextCancelled, err)
	}
	return nil
}
