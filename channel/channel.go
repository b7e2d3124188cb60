// Package channel holds small channel-combinator helpers used to wire
// up the bounded worker pool (workerpool) that dispatches subscription
// fan-out and replication pushes off the record write path.
package channel

import (
	"context"
)

// Or merges multiple done-signal channels into one that closes as
// soon as any input channel closes. Each input carries no value, so
// struct{} is used to keep the per-signal memory cost at zero.
func Or(channels ...<-chan struct{}) <-chan struct{} {
	switch len(channels) {
	case 0:
		return nil
	case 1:
		return channels[0]
	}

	orDone := make(chan struct{})
	go func() {
		defer close(orDone)

		switch len(channels) {
		case 2:
			select {
			case <-channels[0]:
			case <-channels[1]:
			}
		default:
			select {
			case <-channels[0]:
			case <-channels[1]:
			case <-channels[2]:
			case <-Or(append(channels[3:], orDone)...):
			}
		}
	}()

	return orDone
}

// OrDone relays values from c onto the returned channel until either c
// closes or ctx is done.
func OrDone[T any](ctx context.Context, c <-chan T) <-chan T {
	valStream := make(chan T)
	go func() {
		defer close(valStream)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-c:
				if ok == false {
					return
				}
				select {
				case valStream <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return valStream
}

// Tee splits in into two output channels, duplicating every value onto
// both while honoring ctx cancellation.
func Tee[T any](ctx context.Context, in <-chan T) (<-chan T, <-chan T) {
	out1 := make(chan T, 1)
	out2 := make(chan T, 1)

	go func() {
		defer close(out1)
		defer close(out2)

		for {
			var v T
			var ok bool

			select {
			case <-ctx.Done():
				return
			case v, ok = <-in:
				if !ok {
					return
				}
			}

			o1, o2 := out1, out2
			for i := 0; i < 2; i++ {
				select {
				case <-ctx.Done():
					return
				case o1 <- v:
					o1 = nil
				case o2 <- v:
					o2 = nil
				}
			}
		}
	}()

	return out1, out2
}

// Bridge multiplexes values from a stream of channels onto a single
// output channel, honoring ctx cancellation.
func Bridge[T any](ctx context.Context, chanStream <-chan <-chan T) <-chan T {
	valStream := make(chan T)

	go func() {
		defer close(valStream)
		for {
			var stream <-chan T
			select {
			case maybeStream, ok := <-chanStream:
				if !ok {
					return
				}
				stream = maybeStream
			case <-ctx.Done():
				return
			}
			for val := range OrDone(ctx, stream) {
				valStream <- val
			}
		}
	}()

	return valStream
}
