// Package bus implements the downstream delivery client the
// Subscription Manager uses to push a matched batch to a subscriber's
// endpoint (spec §4.7), retried once per flush via an exponential
// backoff.
package bus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cenkaltibackoff "github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"sls/backoff"
	"sls/record"
)

// DefaultAttemptTimeout bounds a single delivery attempt.
const DefaultAttemptTimeout = 8 * time.Second

// envelope is the wire shape POSTed to a subscriber's endpoint.
type envelope struct {
	SubscriptionID string          `json:"subscription-id"`
	Records        []record.Record `json:"batch"`
}

// Client pushes subscription batches over HTTP.
type Client struct {
	http            *http.Client
	attemptTimeout  time.Duration
	initialInterval time.Duration
	maxTries        uint
	log             *logrus.Entry
}

func New(httpClient *http.Client, log *logrus.Entry) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultAttemptTimeout}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		http:            httpClient,
		attemptTimeout:  DefaultAttemptTimeout,
		initialInterval: 200 * time.Millisecond,
		maxTries:        2, // one retry per flush, per spec §4.7
		log:             log,
	}
}

// Push delivers batch to endpoint, retrying once on failure.
func (c *Client) Push(ctx context.Context, endpoint, subscriptionID string, batch []record.Record) error {
	body, err := json.Marshal(envelope{SubscriptionID: subscriptionID, Records: batch})
	if err != nil {
		return errors.Wrap(err, "marshal subscription envelope")
	}

	op := func() (any, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
		return nil, c.attempt(attemptCtx, endpoint, body)
	}

	w := backoff.New(ctx, c.initialInterval, 0.5, 1.5, c.maxTries).WithNotify(func(err error, wait time.Duration) {
		c.log.WithError(err).WithField("retry-in", wait).Debug("retrying subscription delivery")
	})
	if _, err := w.Retry(op); err != nil {
		return errors.Wrapf(err, "push batch to subscription %s", subscriptionID)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build delivery request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "delivery request failed")
	}
	defer func() {
		drainBody(resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("subscriber returned %d", resp.StatusCode)
	}
	// Client-side rejection or a redirect: not worth retrying within
	// this flush. A 3xx only succeeds if something along the way
	// follows it, which is not this method's job to assume.
	return cenkaltibackoff.Permanent(fmt.Errorf("subscriber rejected batch with %d", resp.StatusCode))
}

// drainBody reads the body to completion so the underlying connection
// can be reused by the transport's pool.
func drainBody(body io.Reader) {
	_, _ = io.Copy(io.Discard, body)
}
