// Package ratelimit spaces outbound requests by a minimum interval.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between successive Wait calls.
//
// The first Wait never blocks. Every later Wait blocks until at least the
// interval has passed since the previous Wait returned. A non-positive
// interval disables throttling. Limiter is meant for one sequential caller.
type Limiter struct {
	interval time.Duration
	// bucket is nil until the first Wait returns.
	bucket *rate.Limiter
}

// New creates a Limiter with the given minimum interval.
func New(interval time.Duration) *Limiter {
	return &Limiter{interval: interval}
}

// Wait blocks until the next request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return nil
	}
	if l.bucket != nil {
		if err := l.bucket.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	l.restart(time.Now())
	return nil
}

// restart empties the bucket at now, so the next token is due one interval
// after this return no matter how late the previous wakeup was.
func (l *Limiter) restart(now time.Time) {
	l.bucket = rate.NewLimiter(rate.Every(l.interval), 1)
	l.bucket.AllowN(now, 1)
}
