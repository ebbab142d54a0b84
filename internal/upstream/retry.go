package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// Policy controls how Do paces repeated attempts against one model. Sleeper
// is injectable so tests can observe delays without waiting them out.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	Sleeper     func(context.Context, time.Duration) error
}

// DefaultPolicy returns the standard pacing: up to four attempts with an
// exponential delay of 1s, 2s, 4s capped at 60s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		MaxDelay:    60 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2.0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 60 * time.Second
	}
	if p.Sleeper == nil {
		p.Sleeper = sleepContext
	}
	return p
}

// Do runs attempt until it succeeds, fails permanently, the context is
// cancelled, or MaxAttempts is reached. It returns the final outcome along
// with the number of attempts actually made. Only transient failures are
// retried; the last error is wrapped with the attempt count on exhaustion.
func (p Policy) Do(ctx context.Context, attempt func(context.Context) (*Outcome, error)) (*Outcome, int, error) {
	policy := p.normalized()

	var lastErr error
	attempts := 0
	for attempts < policy.MaxAttempts {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return nil, attempts, fmt.Errorf("%w (last failure: %v)", err, lastErr)
			}
			return nil, attempts, err
		}

		attempts++
		outcome, err := attempt(ctx)
		if err == nil {
			return outcome, attempts, nil
		}
		lastErr = err

		if !Transient(err) {
			return nil, attempts, err
		}
		if attempts >= policy.MaxAttempts {
			break
		}

		delay := policy.delayFor(attempts, err)
		if err := policy.Sleeper(ctx, delay); err != nil {
			return nil, attempts, fmt.Errorf("%w (last failure: %v)", err, lastErr)
		}
	}

	return nil, attempts, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// delayFor computes the backoff before the next attempt. A provider supplied
// Retry-After on a 429 overrides the exponential schedule, still subject to
// the cap.
func (p Policy) delayFor(completed int, err error) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < completed; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 429 && statusErr.RetryAfter > 0 {
		delay = statusErr.RetryAfter
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return delay
}

// Transient reports whether err is worth another attempt against the same
// model. Rate limits, server errors, timeouts, and connection failures are
// transient; any other client error is permanent. Cancellation is never
// transient.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == 429:
			return true
		case statusErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
