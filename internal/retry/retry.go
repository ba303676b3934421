package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds a retry loop: at most MaxAttempts calls, Delay between them.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do calls op until it succeeds or MaxAttempts calls have failed.
// onFailure, when set, runs after every failed attempt (before the delay),
// which is where callers hang side effects such as debug screenshots.
// The last error is returned; ctx cancellation interrupts the delay.
func Do(ctx context.Context, p Policy, op func(attempt int) error, onFailure func(attempt int, err error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if onFailure != nil {
			onFailure(attempt, err)
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(p.Delay):
		}
	}
	return lastErr
}
