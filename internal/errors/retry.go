package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig configures exponential-backoff retries.
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the initial one.
	MaxRetries int

	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the wait between retries.
	MaxDelay time.Duration

	// Multiplier grows the delay after each retry.
	Multiplier float64

	// Jitter randomizes each wait into [delay/2, delay).
	Jitter bool
}

// DefaultRetryConfig returns retry defaults tuned for local database
// contention (another process holding the sync lock or a busy writer).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
		Jitter:       false,
	}
}

// Retry runs fn with exponential backoff until it succeeds, the
// retries are exhausted, or the context is cancelled.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := RetryWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithResult is Retry for functions that also return a value.
// A LoomError that declares itself non-retryable (validation,
// consistency, cancellation) fails immediately; waiting would not
// change the outcome.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var le *LoomError
		if stderrors.As(err, &le) && !le.Retryable {
			return zero, err
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		wait := delay
		if cfg.Jitter {
			wait = delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return zero, fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}
