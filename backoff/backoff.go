// Package backoff wraps cenkalti/backoff/v5 into a small builder so
// call sites configure retry policy once (initial interval,
// randomization, multiplier, max tries) and execute without repeating
// the option list.
package backoff

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Wrapper holds a configured exponential backoff policy bound to a
// context, ready to retry any operation against it.
type Wrapper struct {
	ctx     context.Context
	options []backoff.RetryOption
}

// New builds a Wrapper. initialInterval is the delay before the first
// retry, used as given; randomizationFactor and
// multiplier tune the exponential curve as in backoff.ExponentialBackOff.
func New(ctx context.Context, initialInterval time.Duration, randomizationFactor, multiplier float64, maxTries uint) *Wrapper {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.RandomizationFactor = randomizationFactor
	exp.Multiplier = multiplier

	return &Wrapper{
		ctx:     ctx,
		options: []backoff.RetryOption{backoff.WithBackOff(exp), backoff.WithMaxTries(maxTries)},
	}
}

// WithNotify attaches a callback invoked before each retry.
func (w *Wrapper) WithNotify(n backoff.Notify) *Wrapper {
	w.options = append(w.options, backoff.WithNotify(n))
	return w
}

// Retry runs op under the configured policy. A permanent error
// (backoff.Permanent) stops retrying immediately.
func (w *Wrapper) Retry(op backoff.Operation[any]) (any, error) {
	return backoff.Retry(w.ctx, op, w.options...)
}
