// Package retry wraps cenkalti/backoff behind a single combinator so retry
// policies are configured in one place instead of per call site.
package retry

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded exponential backoff: the operation runs once,
// then up to MaxRetries more times, with the delay doubling from BaseDelay
// between attempts.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultPolicy matches the pipeline defaults: 3 retries starting at 1s.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second}
}

// backOff builds the underlying deterministic exponential policy. The
// randomization factor is zeroed so delays are exactly base, 2*base, 4*base...
func (p Policy) backOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 10 * time.Minute // effectively uncapped for our retry counts
	bo.MaxElapsedTime = 0
	bo.Reset()
	return backoff.WithMaxRetries(bo, uint64(p.MaxRetries))
}

// Delays returns the sequence of sleeps the policy would issue between
// attempts, in order.
func (p Policy) Delays() []time.Duration {
	delays := make([]time.Duration, 0, p.MaxRetries)
	d := p.BaseDelay
	for i := 0; i < p.MaxRetries; i++ {
		delays = append(delays, d)
		d *= 2
	}
	return delays
}

// Do runs op under the policy, sleeping between attempts without holding any
// resources. It returns nil on the first success, the last error once
// retries are exhausted, or the context error if ctx is done during a sleep.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	return backoff.Retry(func() error {
		return op(ctx)
	}, backoff.WithContext(p.backOff(), ctx))
}

// Permanent marks an error as non-retryable; Do stops immediately and
// returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
