package backoff

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrapperRetry_SucceedsOnThirdAttempt(t *testing.T) {
	ctx := context.Background()
	var counter int32

	op := func() (any, error) {
		if atomic.AddInt32(&counter, 1) < 3 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}

	var notified int32
	w := New(ctx, 0, 0, 1, 5).WithNotify(func(error, time.Duration) {
		atomic.AddInt32(&notified, 1)
	})

	result, err := w.Retry(op)
	assert.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, int32(3), counter)
	assert.Equal(t, int32(2), notified)
}

func TestWrapperRetry_ExhaustsMaxTries(t *testing.T) {
	ctx := context.Background()
	var counter int32

	op := func() (any, error) {
		atomic.AddInt32(&counter, 1)
		return nil, errors.New("always fails")
	}

	var lastErr error
	w := New(ctx, 0, 0, 1, 3).WithNotify(func(err error, _ time.Duration) {
		lastErr = err
	})

	_, err := w.Retry(op)
	assert.Error(t, err)
	// v5's WithMaxTries(n) executes the operation at most n times, so
	// maxTries=3 here yields 3 calls.
	assert.Equal(t, int32(3), counter)
	assert.EqualError(t, lastErr, "always fails")
}
