package loader

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// BackoffFunc returns the delay before retry number attempt (1-based)
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff waits step × attempt: 5s, 10s, 15s… for step = 5s
func LinearBackoff(step time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return step * time.Duration(attempt)
	}
}

// RetryPolicy bounds how often a page load is attempted
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc
}

// DefaultBackoffStep is the linear backoff unit between page-load attempts
const DefaultBackoffStep = 5 * time.Second

// DefaultRetryPolicy makes three attempts with 5s linear backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: LinearBackoff(DefaultBackoffStep)}
}

// Sleeper pauses between attempts. Tests swap in a fake.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper sleeps on the wall clock, returning early if ctx is done
type RealSleeper struct{}

// Sleep waits for d or until ctx is cancelled
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do calls fn until it succeeds or MaxAttempts is reached, sleeping
// Backoff(n) after the n-th failure. It returns the last error.
func (p RetryPolicy) Do(ctx context.Context, sleeper Sleeper, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if sleeper == nil {
		sleeper = RealSleeper{}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(attempt); lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if err := sleeper.Sleep(ctx, delay); err != nil {
			return errors.Wrap(err, "retry aborted")
		}
	}
	return errors.Wrapf(lastErr, "giving up after %d attempts", attempts)
}
