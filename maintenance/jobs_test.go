package maintenance

import (
	"context"
	"testing"
	"time"

	"sls/lease"
	"sls/record"
	"sls/replication"
	"sls/store"
	"sls/subscription"
)

type fakeArchiver struct {
	archived []record.Record
}

func (f *fakeArchiver) Archive(rec record.Record) error {
	f.archived = append(f.archived, rec)
	return nil
}

func TestPruneExpiredJob_ReleasesLeaseArchivesAndPrunes(t *testing.T) {
	st := store.NewMemory()
	leases := lease.New(0, time.Minute)
	ctx := context.Background()

	leases.RequestLease("a", time.Millisecond)
	st.Insert(ctx, record.Record{URI: "a", ExpiresAt: time.Now().Add(-time.Hour)})
	archiver := &fakeArchiver{}

	job := PruneExpiredJob(st, leases, archiver, time.Nanosecond, 0)
	time.Sleep(2 * time.Millisecond)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(archiver.archived) != 1 || archiver.archived[0].State != record.Expired {
		t.Errorf("expected expired record archived, got %+v", archiver.archived)
	}
	if _, granted := leases.RequestLease("b", 0); !granted {
		t.Error("expected lease slot reclaimed")
	}
	// With a 1ns threshold the same Run that marked the record Expired
	// also prunes it from the live Store.
	if _, found, _ := st.GetByURI(ctx, "a"); found {
		t.Error("expected pruned record to be gone from the live store")
	}
}

func TestPruneExpiredJob_MarksLiveRecordExpiredBeforePruneThresholdElapses(t *testing.T) {
	st := store.NewMemory()
	leases := lease.New(0, time.Minute)
	ctx := context.Background()

	leases.RequestLease("a", time.Millisecond)
	st.Insert(ctx, record.Record{URI: "a", State: record.Renew, ExpiresAt: time.Now().Add(-time.Hour)})

	// A prune threshold long enough that PruneExpired will not have
	// removed the row yet, so the live Store is observed mid-window.
	job := PruneExpiredJob(st, leases, nil, 2*time.Hour, 0)
	time.Sleep(2 * time.Millisecond)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec, found, err := st.GetByURI(ctx, "a")
	if err != nil || !found {
		t.Fatalf("expected record still present in the live store, found=%v err=%v", found, err)
	}
	if rec.State != record.Expired {
		t.Errorf("State = %v, want Expired", rec.State)
	}
}

type fakePusher struct {
	pushed int
}

func (f *fakePusher) Push(context.Context, string, string, []record.Record) error {
	f.pushed++
	return nil
}

func TestFlushSubscriptionsJob_RunsMaintenance(t *testing.T) {
	pusher := &fakePusher{}
	subs := subscription.New(pusher, 100, time.Millisecond, nil, nil)
	subs.Subscribe(subscription.Definition{ID: "s1", Query: nil, Endpoint: "http://example/s1"})
	subs.Notify(context.Background(), record.Record{})
	time.Sleep(5 * time.Millisecond)

	job := FlushSubscriptionsJob(subs, 0)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestReplicationSyncJob_AppliesRegisterAndDelete(t *testing.T) {
	st := store.NewMemory()
	repl := replication.NewMemory(8, 5*time.Millisecond)
	ctx := context.Background()

	st.Insert(ctx, record.Record{URI: "existing", Type: "widget"})
	repl.SendUpdates([]replication.Update{
		{Op: replication.OpRegister, Record: record.Record{URI: "new", Type: "gadget"}},
		{Op: replication.OpDelete, Record: record.Record{URI: "existing"}},
	})

	job := ReplicationSyncJob(repl, st, 0)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, found, _ := st.GetByURI(ctx, "new"); !found {
		t.Error("expected replicated register to insert the new record")
	}
	if _, found, _ := st.GetByURI(ctx, "existing"); found {
		t.Error("expected replicated delete to remove the existing record")
	}
}

func TestReplicationSyncJob_RenewFallsBackToInsertWhenUnknown(t *testing.T) {
	st := store.NewMemory()
	repl := replication.NewMemory(8, 5*time.Millisecond)
	ctx := context.Background()

	repl.SendUpdates([]replication.Update{
		{Op: replication.OpRenew, Record: record.Record{URI: "unknown", Type: "widget"}},
	})

	job := ReplicationSyncJob(repl, st, 0)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, found, _ := st.GetByURI(ctx, "unknown"); !found {
		t.Error("expected unknown renew to fall back to insert")
	}
}
