package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	attempts := 0

	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	// Given: a function that fails twice then succeeds
	attempts := 0

	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	sentinel := errors.New("still locked")

	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return sentinel
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "failed after 3 retries")
	// Initial attempt plus MaxRetries.
	assert.Equal(t, 4, attempts)
}

func TestRetry_CancelledContextStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastRetryConfig()
	cfg.InitialDelay = time.Minute

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- Retry(ctx, cfg, func() error {
			return errors.New("locked")
		})
	}()

	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), 10*time.Second)
	case <-time.After(10 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestRetry_AlreadyCancelledContextNeverRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0

	err := Retry(ctx, fastRetryConfig(), func() error {
		attempts++
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}

func TestRetry_NonRetryableLoomErrorFailsImmediately(t *testing.T) {
	// Given: a consistency failure, which retrying cannot fix
	attempts := 0

	err := Retry(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return ConsistencyError("tag counts diverged", nil)
	})

	// Then: exactly one attempt, original code preserved
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, ErrCodeConsistency, GetCode(err))
}

func TestRetryWithResult_ReturnsValue(t *testing.T) {
	attempts := 0

	result, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("locked")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithResult_NonRetryableLoomErrorFailsImmediately(t *testing.T) {
	attempts := 0

	_, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (string, error) {
		attempts++
		return "", ValidationError("library root must not be empty", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, ErrCodeInvalidInput, GetCode(err))
}

func TestRetryWithResult_ExhaustionReturnsZeroValue(t *testing.T) {
	result, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (string, error) {
		return "partial", errors.New("locked")
	})

	require.Error(t, err)
	assert.Empty(t, result)
}

func TestRetry_JitterStaysWithinDelayBounds(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:   2,
		InitialDelay: 2 * time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       true,
	}

	start := time.Now()
	err := Retry(context.Background(), cfg, func() error {
		return errors.New("locked")
	})

	require.Error(t, err)
	// Jittered waits land in [delay/2, delay), so two waits stay well
	// under a second.
	assert.Less(t, time.Since(start), time.Second)
}

func TestDefaultRetryConfig_TunedForLocalContention(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 8*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
}
