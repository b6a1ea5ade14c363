package llm

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimitExceeded is returned when a caller would have to queue longer
// than the limiter's bounded wait for a token.
var ErrRateLimitExceeded = errors.New("llm: rate limit exceeded")

// rpsLimiter is a lightweight token-bucket limiter that throttles to at most
// R requests per second with an optional burst capacity. Callers wait for a
// token up to maxWait, then fail with ErrRateLimitExceeded instead of queuing
// unboundedly.
type rpsLimiter struct {
	tokens  chan struct{}
	stopCh  chan struct{}
	maxWait time.Duration
}

// newRPSLimiter creates a limiter allowing up to rps events per second with a
// burst capacity of 'burst'. If rps <= 0 the limiter is disabled (Acquire is
// a no-op). maxWait <= 0 means wait only for the context.
func newRPSLimiter(rps float64, burst int, maxWait time.Duration) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	l := &rpsLimiter{
		tokens:  make(chan struct{}, burst),
		stopCh:  make(chan struct{}),
		maxWait: maxWait,
	}
	// Pre-fill bucket to allow an initial burst.
	for i := 0; i < burst; i++ {
		l.tokens <- struct{}{}
	}
	period := time.Duration(float64(time.Second) / rps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case l.tokens <- struct{}{}:
				default:
					// bucket full; drop token
				}
			case <-l.stopCh:
				return
			}
		}
	}()
	return l
}

// Acquire blocks until a token is available, the bounded wait elapses, or the
// context is canceled.
func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	var deadline <-chan time.Time
	if l.maxWait > 0 {
		t := time.NewTimer(l.maxWait)
		defer t.Stop()
		deadline = t.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return context.Canceled
	case <-deadline:
		return ErrRateLimitExceeded
	case <-l.tokens:
		return nil
	}
}

// Stop terminates the limiter's refill goroutine.
func (l *rpsLimiter) Stop() {
	if l == nil {
		return
	}
	close(l.stopCh)
}
