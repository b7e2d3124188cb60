package replication

import (
	"context"

	"github.com/sirupsen/logrus"

	"sls/record"
	"sls/workerpool"
)

// DefaultPoolSize is the worker count a Fanout falls back to when no
// pool is supplied.
const DefaultPoolSize = 2

// DefaultPoolQueueDepth bounds how many pending replication sends a
// Fanout's fallback pool holds before dropping new ones.
const DefaultPoolQueueDepth = 256

// notifiee is the Subscription Manager's Notify method, restated here
// to avoid importing sls/subscription (which would cycle back through
// sls/registration).
type notifiee interface {
	Notify(ctx context.Context, rec record.Record)
}

// Fanout composes the Subscription Manager's fan-out with cross-cache
// replication behind a single Notifier, so the Registration and Edit
// Services have exactly one hook to call regardless of how many
// downstream consumers a mutation feeds. The replication send runs on
// a bounded worker pool rather than inline with the write.
type Fanout struct {
	next notifiee
	repl Replicator
	pool *workerpool.Pool
	log  *logrus.Entry
}

// NewFanout wires subs as the primary Notifier and repl as the
// replication sink. repl may be nil, in which case Fanout behaves
// exactly like subs alone. pool may be nil, in which case Fanout
// builds its own sized from DefaultPoolSize/DefaultPoolQueueDepth.
func NewFanout(subs notifiee, repl Replicator, pool *workerpool.Pool, log *logrus.Entry) *Fanout {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if pool == nil {
		pool = workerpool.New(DefaultPoolSize, DefaultPoolQueueDepth, log)
	}
	return &Fanout{next: subs, repl: repl, pool: pool, log: log}
}

// Notify forwards rec to the Subscription Manager inline (matching is
// cheap, in-memory work), then submits the replication send to the
// worker pool so a slow or unreachable peer cache cannot stall the
// record write path.
func (f *Fanout) Notify(ctx context.Context, rec record.Record) {
	if f.next != nil {
		f.next.Notify(ctx, rec)
	}
	if f.repl == nil {
		return
	}
	update := Update{Op: opForState(rec.State), Record: rec}
	f.pool.Submit(func() {
		acks := f.repl.SendUpdates([]Update{update})
		if len(acks) > 0 && acks[0].Err != nil {
			f.log.WithError(acks[0].Err).WithField("uri", rec.URI).Warn("replication send failed")
		}
	})
}

func opForState(s record.State) Op {
	switch s {
	case record.Renew:
		return OpRenew
	case record.Delete:
		return OpDelete
	default:
		return OpRegister
	}
}
