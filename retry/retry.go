// Package retry provides a small combinator wrapping fallible remote calls
// with deterministic exponential backoff. It is generic over the wrapped
// operation's result type and over which errors are considered transient, so
// call sites compose a Policy instead of hand-rolling loops.
package retry

import (
	"context"
	"time"
)

// Policy configures Do. The zero value performs a single attempt.
type Policy struct {
	// MaxAttempts is the total attempt budget including the first call.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt. Attempt k waits
	// BaseDelay * Multiplier^(k-1).
	BaseDelay time.Duration

	// Multiplier scales the delay between consecutive attempts. Values below
	// 1 are treated as 1 (constant delay).
	Multiplier float64

	// Retryable decides whether an error is worth another attempt. A nil
	// predicate retries every error. Returning false aborts immediately and
	// the error is returned unchanged.
	Retryable func(error) bool

	// Sleep is the wait function between attempts, overridable in tests. A
	// nil value uses a context-aware time.After wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Delay returns the backoff before attempt+1 given a completed attempt
// (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * mult)
	}
	return d
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do invokes op until it succeeds, a non-retryable error occurs, the attempt
// budget is exhausted, or ctx is cancelled while waiting. On exhaustion the
// last observed error is returned unchanged so callers can classify it.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if p.Retryable != nil && !p.Retryable(err) {
			break
		}
		if attempt == attempts {
			break
		}
		if serr := p.sleep(ctx, p.Delay(attempt)); serr != nil {
			return zero, serr
		}
	}
	return zero, lastErr
}
