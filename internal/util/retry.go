package util

import (
	"context"
	"time"
)

// Retry runs fn until it succeeds, up to maxAttempts times, doubling the
// delay between attempts from baseDelay. It returns the last error when every
// attempt fails, or the context error if ctx is cancelled while waiting.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		// No backoff sleep once the attempt budget is spent.
		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
