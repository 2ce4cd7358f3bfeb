package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/reportgest/internal/fetch"
	"github.com/dgallion1/reportgest/internal/metrics"
)

const (
	// DefaultMaxAttempts applies when a caller passes no attempt limit.
	DefaultMaxAttempts = 3

	maxBackoff = 30 * time.Second
)

// IsRetryable reports whether err marks a transient fetch failure.
func IsRetryable(err error) bool {
	var retryErr *fetch.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry n (0-indexed): 1s doubling per
// attempt, capped at maxBackoff, plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	base := maxBackoff
	if attempt < 5 {
		base = min(time.Second<<attempt, maxBackoff)
	}
	return base + rand.N(base/2)
}

// Retrieve fetches url, retrying retryable failures up to attempts times.
// A nil backoff uses Backoff. onAttempt, if non-nil, is called before each
// attempt.
func Retrieve(ctx context.Context, f Fetcher, url string, attempts int, backoff func(int) time.Duration, m *metrics.Metrics, log *slog.Logger, onAttempt func(int)) (*fetch.Document, error) {
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	if backoff == nil {
		backoff = Backoff
	}
	if log == nil {
		log = slog.Default()
	}

	var lastErr error
	for attempt := range attempts {
		if onAttempt != nil {
			onAttempt(attempt)
		}
		start := time.Now()
		doc, err := f.Get(ctx, url)
		m.ObserveFetch(time.Since(start).Seconds(), err)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == attempts-1 {
			break
		}
		wait := backoff(attempt)
		log.Warn("retryable fetch error", "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
