// Package retry is the shared retryable-operation primitive used by the
// chain RPC client and the stream reconnection loop. One implementation
// instead of slightly different loops per caller.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Backoff yields the delay before a given attempt. Attempt numbering starts
// at 1 (the delay before the first retry).
type Backoff interface {
	// Delay returns the wait before retry number attempt.
	Delay(attempt int) time.Duration
}

// Exponential grows the delay by Multiplier per attempt, capped at Max, with
// optional proportional jitter.
type Exponential struct {
	Initial       time.Duration
	Max           time.Duration
	Multiplier    float64
	JitterPercent float64 // 0.2 = up to +20%
}

// Delay implements Backoff.
func (e Exponential) Delay(attempt int) time.Duration {
	d := float64(e.Initial)
	for i := 1; i < attempt; i++ {
		d *= e.Multiplier
		if time.Duration(d) >= e.Max {
			d = float64(e.Max)
			break
		}
	}
	if e.JitterPercent > 0 {
		d *= 1.0 + rand.Float64()*e.JitterPercent
	}
	if capped := float64(e.Max) * (1.0 + e.JitterPercent); d > capped {
		d = capped
	}
	return time.Duration(d)
}

// Linear grows the delay as Base × min(attempt, CounterCap). Growth is
// bounded, not unbounded: past CounterCap the delay stays flat.
type Linear struct {
	Base       time.Duration
	CounterCap int
}

// Delay implements Backoff.
func (l Linear) Delay(attempt int) time.Duration {
	n := attempt
	if l.CounterCap > 0 && n > l.CounterCap {
		n = l.CounterCap
	}
	if n < 1 {
		n = 1
	}
	return l.Base * time.Duration(n)
}

// Permanent wraps an error to stop retrying immediately.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// Stop marks err as non-retryable.
func Stop(err error) error {
	return &Permanent{Err: err}
}

// Do runs op up to maxAttempts times, sleeping per backoff between attempts.
// It returns nil on the first success, the context error if cancelled during
// a wait, the unwrapped error when op signals Stop, and the last error once
// the budget is spent.
func Do(ctx context.Context, maxAttempts int, backoff Backoff, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(err, &perm) {
			return perm.Err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff.Delay(attempt)):
		}
	}
	return lastErr
}
