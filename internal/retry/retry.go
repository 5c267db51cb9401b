package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how an external call is retried: attempt ceiling,
// base delay (doubled per attempt when Backoff is set) and a per-attempt
// timeout the call is raced against.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // Exponential backoff
	Timeout     time.Duration
}

// Do runs fn under the policy. Each attempt is raced against the policy
// timeout; a timed-out attempt counts as a failed one.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := runOnce(ctx, policy.Timeout, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			return fmt.Errorf("failed after %d attempts: %w", policy.MaxAttempts, err)
		}

		delay := policy.Delay
		if policy.Backoff {
			delay = policy.Delay << (attempt - 1)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// runOnce races fn against the timeout. The losing goroutine keeps running
// until its own call returns; its result is discarded.
func runOnce(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(attemptCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		return fmt.Errorf("timed out after %s: %w", timeout, attemptCtx.Err())
	}
}
