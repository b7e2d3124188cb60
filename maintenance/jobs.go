package maintenance

import (
	"context"
	"time"

	"sls/edit"
	"sls/lease"
	"sls/record"
	"sls/replication"
	"sls/store"
	"sls/subscription"
)

// DefaultReplicationSyncInterval bounds how often inbound replicated
// updates are drained and applied to the live Store.
const DefaultReplicationSyncInterval = 2 * time.Second

// DefaultPruneInterval bounds how often expired records are swept from
// the live Store.
const DefaultPruneInterval = 30 * time.Second

// DefaultFlushSweepInterval matches subscription.DefaultFlushInterval
// so time-triggered flushes fire close to their configured deadline.
const DefaultFlushSweepInterval = subscription.DefaultFlushInterval

// PruneExpiredJob builds the Job that, for each lease that has lapsed,
// transitions its record to Expired in the live Store, releases the
// lease, archives the now-expired record, and finally prunes any
// record that has sat Expired past threshold. interval overrides
// DefaultPruneInterval when positive.
func PruneExpiredJob(st store.Store, leases *lease.Manager, archive edit.Archiver, threshold time.Duration, interval time.Duration) Job {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	return Job{
		Name:     "prune-expired",
		Interval: interval,
		Run: func(ctx context.Context) error {
			now := time.Now()
			for _, uri := range leases.ExpiredURIs(now) {
				leases.ReleaseLease(uri)

				rec, found, err := st.GetByURI(ctx, uri)
				if err != nil || !found {
					continue
				}
				rec.State = record.Expired
				if _, err := st.Update(ctx, uri, rec); err != nil {
					continue
				}
				if archive != nil {
					_ = archive.Archive(rec)
				}
			}
			_, err := st.PruneExpired(ctx, now, threshold)
			return err
		},
	}
}

// FlushSubscriptionsJob builds the Job that sweeps every subscription
// whose queue has aged past its flush interval. interval overrides
// DefaultFlushSweepInterval when positive.
func FlushSubscriptionsJob(subs *subscription.Manager, interval time.Duration) Job {
	if interval <= 0 {
		interval = DefaultFlushSweepInterval
	}
	return Job{
		Name:     "flush-subscriptions",
		Interval: interval,
		Run: func(ctx context.Context) error {
			subs.RunMaintenance(ctx)
			return nil
		},
	}
}

// ReplicationSyncJob builds the Job that drains updates observed by
// repl (either a peer's Redis stream entries, or this node's own
// locally-queued mutations when repl has no peers) and applies them to
// the live Store, making cross-cache propagation (spec §1) an actual
// scheduled effect rather than a write-only queue. interval overrides
// DefaultReplicationSyncInterval when positive.
func ReplicationSyncJob(repl replication.Replicator, st store.Store, interval time.Duration) Job {
	if interval <= 0 {
		interval = DefaultReplicationSyncInterval
	}
	return Job{
		Name:     "replication-sync",
		Interval: interval,
		Run: func(ctx context.Context) error {
			for _, u := range repl.GetUpdates() {
				if err := applyReplicatedUpdate(ctx, st, u); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// applyReplicatedUpdate upserts a peer's mutation into st, bypassing
// the Lease Manager: lease bookkeeping is local to the node that
// originated the mutation, not replicated.
func applyReplicatedUpdate(ctx context.Context, st store.Store, u replication.Update) error {
	if u.Op == replication.OpDelete {
		_, _, err := st.Delete(ctx, u.Record.URI)
		return err
	}
	if _, err := st.Update(ctx, u.Record.URI, u.Record); err != nil {
		if _, insErr := st.Insert(ctx, u.Record); insErr != nil {
			return insErr
		}
	}
	return nil
}
