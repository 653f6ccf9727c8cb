// Package resilience retries calls to the record store on transient
// failures.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy describes how many times a call is attempted and how long to wait
// between attempts.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	// Initial is the wait before the first retry.
	Initial time.Duration
	// Max caps any single wait.
	Max time.Duration
	// Factor grows the wait after each retry.
	Factor float64
	// Jitter spreads each wait by ±Jitter of its value.
	Jitter float64

	// Retryable overrides IsTransient when set.
	Retryable func(error) bool
	// Notify runs before each wait.
	Notify func(attempt int, err error)
}

// DefaultPolicy is used by the API client when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Initial:  500 * time.Millisecond,
		Max:      30 * time.Second,
		Factor:   2,
		Jitter:   0.25,
	}
}

// NewPolicy builds a policy from config values. Zero values keep the
// defaults.
func NewPolicy(attempts, initialMs int) Policy {
	p := DefaultPolicy()
	if attempts > 0 {
		p.Attempts = attempts
	}
	if initialMs > 0 {
		p.Initial = time.Duration(initialMs) * time.Millisecond
	}
	return p
}

// Do calls fn until it succeeds, fails permanently, or the policy is
// exhausted. The last error is returned. Cancelling ctx stops waiting.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	_, err := Call(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call is Do for functions that return a value.
func Call[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	p = p.normalized()
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !retryable(err) || attempt >= p.Attempts {
			return zero, err
		}
		if p.Notify != nil {
			p.Notify(attempt, err)
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.normalized()
	d := float64(p.Initial) * math.Pow(p.Factor, float64(attempt-1))
	d = math.Min(d, float64(p.Max))
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	return time.Duration(math.Max(d, 0))
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.Initial <= 0 {
		p.Initial = def.Initial
	}
	if p.Max <= 0 {
		p.Max = def.Max
	}
	if p.Factor <= 0 {
		p.Factor = def.Factor
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

// LogRetries returns a Notify hook that logs through the global logger.
func LogRetries(operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("resilience: retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
