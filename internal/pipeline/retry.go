package pipeline

import (
	"context"
	"math/rand"
	"time"
)

// maxRetryDelay caps the backoff so a long queue outage does not grow the
// wait between polls unbounded.
const maxRetryDelay = 30 * time.Second

// withRetry runs fn up to maxRetries+1 times with exponential backoff. Each
// wait is jittered to half-to-full of the current delay so consumers backing
// off from the same outage do not retry in lockstep.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		wait := delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
