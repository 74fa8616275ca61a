package application

import (
	"context"
	"time"
)

// backoffDelay returns the wait before the next attempt: base doubled per
// failed attempt (base 1s yields 2s after the first failure, 4s after the
// second).
func backoffDelay(base time.Duration, failedAttempts int) time.Duration {
	delay := base
	for i := 0; i < failedAttempts; i++ {
		delay *= 2
	}
	return delay
}

// sleep waits for the delay or until the context is done, whichever comes
// first.
func sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
