// Package resilience provides retry and circuit-breaker primitives for
// wrapping RPC calls, grounded on the health/backoff conventions the RPC
// layer this SDK is modeled on already uses. The chain adapters in this
// module do not call them.
package resilience

import (
	"context"
	"time"

	"github.com/drxa/sdk/pkg/walleterr"
)

// BackoffStrategy selects how the delay between retry attempts grows.
type BackoffStrategy int

const (
	BackoffFixed BackoffStrategy = iota
	BackoffLinear
	BackoffExponential
)

// maxBackoff caps any computed delay regardless of strategy or attempt
// count, so a misconfigured policy never stalls a caller for minutes.
const maxBackoff = 30 * time.Second

// RetryPolicy configures withRetry's attempt count and delay schedule.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Strategy    BackoffStrategy
	OnRetry     func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy is a sane default: 3 attempts, exponential backoff
// starting at 250ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 250 * time.Millisecond, Strategy: BackoffExponential}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	var d time.Duration
	switch p.Strategy {
	case BackoffLinear:
		d = p.BaseDelay * time.Duration(attempt+1)
	case BackoffExponential:
		d = p.BaseDelay * time.Duration(1<<uint(attempt))
	default:
		d = p.BaseDelay
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// WithRetry calls fn up to policy.MaxAttempts times, stopping as soon as fn
// succeeds or returns a non-retryable *walleterr.Error. ctx cancellation is
// honored between attempts.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !walleterr.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts-1 {
			break
		}

		d := policy.delay(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, lastErr, d)
		}

		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return walleterr.NonRetry(walleterr.CodeAllAttemptsFailed,
		"all retry attempts failed", lastErr).
		WithContext(map[string]any{"attempts": policy.MaxAttempts})
}
