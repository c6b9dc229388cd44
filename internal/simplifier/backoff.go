package simplifier

import (
	"context"
	"time"
)

// Backoff controls retry pacing after rate-limit responses. Growth is
// additive: base, base+step, base+2*step, ...
type Backoff struct {
	Base       time.Duration
	Step       time.Duration
	MaxRetries int
}

func DefaultBackoff() Backoff {
	return Backoff{
		Base:       20 * time.Second,
		Step:       20 * time.Second,
		MaxRetries: 3,
	}
}

// DelayFor returns the wait before retry attempt n (0-based).
func (b Backoff) DelayFor(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return b.Base + time.Duration(attempt)*b.Step
}

// Wait blocks for the attempt's delay or until the context is done.
func (b Backoff) Wait(ctx context.Context, attempt int) error {
	delay := b.DelayFor(attempt)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
