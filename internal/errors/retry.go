package errors

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"antfarm/internal/logging"
)

// RetryConfig configures retry behavior for model-provider calls.
type RetryConfig struct {
	MaxAttempts int           // total attempts, including the first (default: 3)
	BaseDelay   time.Duration // base delay for exponential backoff (default: 250ms)
	MaxDelay    time.Duration // cap on the pre-jitter delay (default: 2s)
}

// DefaultRetryConfig returns the defaults used by the model runners.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 250 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 2 * time.Second
	}
	return c
}

// Backoff returns the pre-jitter delay for attempt k (0-indexed):
// min(MaxDelay, BaseDelay * 2^k).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	c = c.normalized()
	if attempt < 0 {
		attempt = 0
	}
	delay := c.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// Jittered returns Backoff(attempt) plus a uniform jitter in [0, delay/4).
func (c RetryConfig) Jittered(attempt int) time.Duration {
	delay := c.Backoff(attempt)
	quarter := int64(delay) / 4
	if quarter <= 0 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(quarter))
}

// RetryWithResult runs fn until it succeeds, returns a non-transient error, or
// the attempt budget is exhausted. Authentication failures propagate
// immediately. The last error is returned when the budget runs out.
//
// onAttempt, when non-nil, observes every attempt outcome (for metrics).
func RetryWithResult[T any](
	ctx context.Context,
	config RetryConfig,
	logger logging.Logger,
	fn func(ctx context.Context) (T, error),
	onAttempt func(attempt int, err error),
) (T, error) {
	config = config.normalized()
	logger = logging.OrNop(logger)

	var zero T
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("retry cancelled: %w", err)
		}

		result, err := fn(ctx)
		if onAttempt != nil {
			onAttempt(attempt, err)
		}
		if err == nil {
			if attempt > 0 {
				logger.Info("retry succeeded on attempt %d/%d", attempt+1, config.MaxAttempts)
			}
			return result, nil
		}

		lastErr = err
		if !IsTransient(err) {
			logger.Debug("error is not transient, stopping retries: %v", err)
			return zero, err
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := config.Jittered(attempt)
		logger.Debug("attempt %d/%d failed (%v), backing off %v", attempt+1, config.MaxAttempts, err, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("retry cancelled during backoff: %w", ctx.Err())
		}
	}

	logger.Warn("retry budget (%d attempts) exhausted: %v", config.MaxAttempts, lastErr)
	return zero, lastErr
}
