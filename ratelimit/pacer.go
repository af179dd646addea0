// Package ratelimit salvages the legacy vendor-side rate limiting primitive
// (§9 Open Question decision: "the LLM collaborator's pacing logic is kept,
// generalized from its original vector-RAG call site") into a small
// general-purpose pacer the LLM collaborator wraps around Generate calls.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/livepeer/clipper-core/config"
)

// RateLimitedError marks a collaborator failure that Pacer should treat as a
// 429-equivalent and retry, rather than surface immediately.
type RateLimitedError struct{ Err error }

func (e RateLimitedError) Error() string { return "rate limited: " + e.Err.Error() }
func (e RateLimitedError) Unwrap() error { return e.Err }

// Pacer enforces a request rate ceiling before each Do call, then retries a
// bounded number of times on RateLimitedError with a fixed backoff plus a
// minimum spacing before each retry, the way the original RAG pacing loop did.
type Pacer struct {
	limiter    *rate.Limiter
	minSpacing time.Duration
	maxRetries int
	retryWait  time.Duration
}

// NewPacer builds a Pacer from the configured LLM rate limiting parameters.
func NewPacer() *Pacer {
	return &Pacer{
		limiter:    rate.NewLimiter(rate.Every(time.Minute/config.RateLimiterRequestsPerMinute), 1),
		minSpacing: config.RateLimiterMinSpacing,
		maxRetries: config.RateLimiterMaxRetries,
		retryWait:  config.RateLimiterRetryWait,
	}
}

// Do waits once for the request-per-minute budget before calling fn, then
// retries on RateLimitedError up to maxRetries times, sleeping the minimum
// spacing before each retry; the retries do not wait on the limiter again.
func (p *Pacer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.retryWait), uint64(p.maxRetries)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		if attempt > 0 {
			time.Sleep(p.minSpacing)
		}
		attempt++

		err := fn(ctx)
		if err == nil {
			return nil
		}

		var rle RateLimitedError
		if errors.As(err, &rle) {
			return err
		}
		return backoff.Permanent(err)
	}, bo)
}
