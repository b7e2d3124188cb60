// Package subscription implements the sLS Subscription Manager (spec
// §4.7): saved-query registration, per-subscription queuing, and
// flush-policy fan-out to downstream delivery endpoints.
package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sls/query"
	"sls/record"
	"sls/workerpool"
)

// DefaultPoolSize is the worker count a Manager falls back to when no
// pool is supplied, sized for a single-node deployment with a handful
// of subscribers.
const DefaultPoolSize = 4

// DefaultPoolQueueDepth bounds how many pending flushes a Manager's
// fallback pool will hold before dropping new ones.
const DefaultPoolQueueDepth = 256

// DefaultFlushThreshold is the queued-item count that triggers an
// immediate flush, per spec §4.7 ("size threshold default 10").
const DefaultFlushThreshold = 10

// DefaultFlushInterval is the time-based flush trigger used when the
// size threshold is not reached.
const DefaultFlushInterval = 5 * time.Second

// maxConsecutiveFailures is how many flush failures in a row retire a
// subscription.
const maxConsecutiveFailures = 3

// Pusher delivers one batch to a subscriber's endpoint. Implemented by
// package bus.
type Pusher interface {
	Push(ctx context.Context, endpoint string, subscriptionID string, batch []record.Record) error
}

// Definition is the caller-supplied subscription request.
type Definition struct {
	ID       string
	Query    *query.Query
	Endpoint string
}

type subscriber struct {
	def     Definition
	matcher record.Matcher

	mu                  sync.Mutex
	queue               []record.Record
	lastFlushedAt        time.Time
	queuedCount         int
	consecutiveFailures int
	inFlight            bool
	retired             bool
}

// Manager fans registered record events out to subscribers according
// to their saved query and flush policy. Flushes run on a bounded
// worker pool rather than inline with the Register/Renew/Delete call
// that triggered them.
type Manager struct {
	pusher         Pusher
	flushThreshold int
	flushInterval  time.Duration
	pool           *workerpool.Pool
	log            *logrus.Entry

	mu   sync.RWMutex
	subs map[string]*subscriber
}

// New builds a Manager. pool is the worker pool flushes dispatch
// through; a nil pool gets a Manager-owned fallback sized
// DefaultPoolSize/DefaultPoolQueueDepth, so tests and callers that
// don't care about sizing can pass nil.
func New(pusher Pusher, flushThreshold int, flushInterval time.Duration, pool *workerpool.Pool, log *logrus.Entry) *Manager {
	if flushThreshold <= 0 {
		flushThreshold = DefaultFlushThreshold
	}
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if pool == nil {
		pool = workerpool.New(DefaultPoolSize, DefaultPoolQueueDepth, log)
	}
	return &Manager{
		pusher:         pusher,
		flushThreshold: flushThreshold,
		flushInterval:  flushInterval,
		pool:           pool,
		log:            log,
		subs:           make(map[string]*subscriber),
	}
}

// Subscribe registers a new saved query. Re-registering an existing
// ID replaces its query and endpoint but keeps its queue.
func (m *Manager) Subscribe(def Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, exists := m.subs[def.ID]
	if !exists {
		sub = &subscriber{lastFlushedAt: time.Now()}
		m.subs[def.ID] = sub
	}
	sub.mu.Lock()
	sub.def = def
	sub.matcher = query.Compile(def.Query)
	sub.retired = false
	sub.consecutiveFailures = 0
	sub.mu.Unlock()
}

// Unsubscribe retires a subscription immediately.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
}

// Notify implements registration.Notifier and edit.Notifier: it is
// the fan-out entry point called whenever a record is registered,
// renewed, or deleted. Matching is in-memory and cheap; any resulting
// flush is handed to the worker pool rather than run inline, so Notify
// never blocks the write path that called it.
func (m *Manager) Notify(ctx context.Context, rec record.Record) {
	m.mu.RLock()
	matched := make([]*subscriber, 0, len(m.subs))
	for _, sub := range m.subs {
		sub.mu.Lock()
		if !sub.retired && sub.matcher.Match(rec) {
			matched = append(matched, sub)
		}
		sub.mu.Unlock()
	}
	m.mu.RUnlock()

	for _, sub := range matched {
		m.enqueue(sub, rec)
	}
}

func (m *Manager) enqueue(sub *subscriber, rec record.Record) {
	sub.mu.Lock()
	sub.queue = append(sub.queue, rec)
	sub.queuedCount++
	shouldFlush := len(sub.queue) >= m.flushThreshold && !sub.inFlight
	sub.mu.Unlock()

	if shouldFlush {
		// Dispatched work may outlive the request that triggered it,
		// so it does not inherit the caller's context.
		m.pool.Submit(func() { m.flush(context.Background(), sub) })
	}
}

// RunMaintenance should be driven by the Maintenance Scheduler at a
// tick no coarser than flushInterval; it flushes any subscription
// whose queue is non-empty and has aged past flushInterval.
func (m *Manager) RunMaintenance(ctx context.Context) {
	m.mu.RLock()
	subs := make([]*subscriber, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	now := time.Now()
	for _, sub := range subs {
		sub.mu.Lock()
		due := len(sub.queue) > 0 && !sub.inFlight && now.Sub(sub.lastFlushedAt) >= m.flushInterval
		sub.mu.Unlock()
		if due {
			s := sub
			m.pool.Submit(func() { m.flush(ctx, s) })
		}
	}
}

// flush delivers the current queue in admission order and retires the
// subscription after maxConsecutiveFailures consecutive failures.
func (m *Manager) flush(ctx context.Context, sub *subscriber) {
	sub.mu.Lock()
	if sub.inFlight || len(sub.queue) == 0 {
		sub.mu.Unlock()
		return
	}
	sub.inFlight = true
	batch := sub.queue
	sub.queue = nil
	def := sub.def
	sub.mu.Unlock()

	err := m.pusher.Push(ctx, def.Endpoint, def.ID, batch)

	sub.mu.Lock()
	sub.inFlight = false
	sub.lastFlushedAt = time.Now()
	if err != nil {
		sub.consecutiveFailures++
		// Put the batch back in front of anything enqueued meanwhile
		// so admission order across a retirement boundary is preserved.
		sub.queue = append(batch, sub.queue...)
		if sub.consecutiveFailures >= maxConsecutiveFailures {
			sub.retired = true
			m.log.WithField("subscription", def.ID).Warn("subscription retired after repeated delivery failures")
		}
	} else {
		sub.consecutiveFailures = 0
	}
	retired := sub.retired
	sub.mu.Unlock()

	if retired {
		m.Unsubscribe(def.ID)
	}
	if err != nil {
		m.log.WithError(err).WithField("subscription", def.ID).Warn("flush failed")
	}
}
