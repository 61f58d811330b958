package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
// The base doubles from 1s and stops at 30s.
func Backoff(attempt int) time.Duration {
	const maxBase = 30 * time.Second
	base := maxBase
	if attempt < 5 {
		base = time.Duration(1<<uint(max(attempt, 0))) * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const DefaultMaxRetries = 3

// Retrying retries a Completer on RetryableError. Other errors are returned
// immediately.
type Retrying struct {
	Next       Completer
	MaxRetries int
	Log        *slog.Logger

	// backoff is swapped out in tests.
	backoff func(attempt int) time.Duration
}

// NewRetrying wraps next with maxRetries retries after the first attempt.
func NewRetrying(next Completer, maxRetries int, log *slog.Logger) *Retrying {
	if log == nil {
		log = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrying{Next: next, MaxRetries: maxRetries, Log: log, backoff: Backoff}
}

func (r *Retrying) Complete(ctx context.Context, chunk string) (string, error) {
	backoff := r.backoff
	if backoff == nil {
		backoff = Backoff
	}

	var lastErr error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		reply, err := r.Next.Complete(ctx, chunk)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == r.MaxRetries {
			break
		}
		wait := backoff(attempt)
		r.Log.Warn("retryable completion error", "attempt", attempt, "wait_ms", wait.Milliseconds(), "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// Model reports the wrapped client's model when it exposes one.
func (r *Retrying) Model() string {
	if m, ok := r.Next.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

// Stats reports the wrapped client's latency stats when it records them.
func (r *Retrying) Stats() *CallStats {
	if s, ok := r.Next.(StatsProvider); ok {
		return s.Stats()
	}
	return nil
}
