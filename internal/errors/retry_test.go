package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffBounds(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 10 * time.Second}

	for attempt := 0; attempt < 6; attempt++ {
		base := cfg.BaseDelay * (1 << attempt)
		if base > cfg.MaxDelay {
			base = cfg.MaxDelay
		}
		require.Equal(t, base, cfg.Backoff(attempt), "attempt %d", attempt)

		for i := 0; i < 50; i++ {
			d := cfg.Jittered(attempt)
			require.GreaterOrEqual(t, d, base, "attempt %d", attempt)
			require.Less(t, d, base+base/4+1, "attempt %d", attempt)
		}
	}
}

func TestBackoffCappedAtMaxDelay(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: 1 * time.Second, MaxDelay: 2 * time.Second}
	require.Equal(t, 1*time.Second, cfg.Backoff(0))
	require.Equal(t, 2*time.Second, cfg.Backoff(1))
	require.Equal(t, 2*time.Second, cfg.Backoff(5))
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	var attempts []int
	result, err := RetryWithResult(context.Background(), cfg, nil,
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", NewTransient(fmt.Errorf("boom %d", calls), "")
			}
			return "ok", nil
		},
		func(attempt int, err error) { attempts = append(attempts, attempt) })

	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 3, calls)
	require.Equal(t, []int{0, 1, 2}, attempts)
}

func TestRetryStopsImmediatelyOnAuthError(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	_, err := RetryWithResult(context.Background(), cfg, nil,
		func(ctx context.Context) (string, error) {
			calls++
			return "", NewAuth(fmt.Errorf("401"), "bad key")
		}, nil)

	require.Error(t, err)
	require.True(t, IsAuth(err))
	require.Equal(t, 1, calls)
}

func TestRetryExhaustsBudgetAndReturnsLastError(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	_, err := RetryWithResult(context.Background(), cfg, nil,
		func(ctx context.Context) (string, error) {
			calls++
			return "", NewTransient(fmt.Errorf("attempt %d failed", calls), "")
		}, nil)

	require.Error(t, err)
	require.Equal(t, 3, calls)
	require.Contains(t, err.Error(), "attempt 3 failed")
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := RetryWithResult(ctx, cfg, nil,
			func(ctx context.Context) (string, error) {
				return "", NewTransient(fmt.Errorf("transient"), "")
			}, nil)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}
