// Package retry runs an operation a bounded number of times with
// exponential backoff between attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// Once makes a single attempt with no waiting.
var Once = Policy{Attempts: 1}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		b.InitialInterval = p.Initial
	}
	if p.Max > 0 {
		b.MaxInterval = p.Max
	}
	b.MaxElapsedTime = 0

	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Do calls op until it succeeds, returns a Permanent error, the context is
// done, or the attempts are used up. The last error is returned.
func Do(ctx context.Context, p Policy, op func() error) error {
	return backoff.Retry(op, p.backOff(ctx))
}

// Permanent stops Do from retrying err.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
