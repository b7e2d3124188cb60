package lookup

import (
	"context"
	"testing"

	"sls/query"
	"sls/record"
	"sls/store"
)

func seed(t *testing.T, s store.Store, uris ...string) {
	t.Helper()
	for _, u := range uris {
		if _, err := s.Insert(context.Background(), record.Record{URI: u, Type: "widget"}); err != nil {
			t.Fatalf("seed insert %s: %v", u, err)
		}
	}
}

func TestFind_DefaultsToLiveNamespace(t *testing.T) {
	live := store.NewMemory()
	seed(t, live, "a", "b")
	svc := New(live, nil)

	got, err := svc.Find(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want 2", len(got))
	}
}

func TestFind_ArchiveNamespaceRequiresConfiguredArchive(t *testing.T) {
	svc := New(store.NewMemory(), nil)
	_, err := svc.Find(context.Background(), NamespaceArchive, nil)
	if err == nil {
		t.Error("expected error when no archive is configured")
	}
}

func TestFind_UnknownNamespaceRejected(t *testing.T) {
	svc := New(store.NewMemory(), nil)
	_, err := svc.Find(context.Background(), Namespace("bogus"), nil)
	if err == nil {
		t.Error("expected error for unknown namespace")
	}
}

func TestFind_AppliesQuerySkipAndLimit(t *testing.T) {
	live := store.NewMemory()
	seed(t, live, "a", "b", "c")
	svc := New(live, nil)

	q := &query.Query{Skip: 1, MaxResults: 1}
	got, err := svc.Find(context.Background(), NamespaceLive, q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].URI != "b" {
		t.Errorf("got %+v", got)
	}
}

func TestGet_FromArchive(t *testing.T) {
	archive := store.NewArchive(nil, "")
	archive.Archive(record.Record{URI: "a", Type: "widget", State: record.Delete})
	svc := New(store.NewMemory(), archive)

	got, err := svc.Get(context.Background(), NamespaceArchive, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Type != "widget" {
		t.Errorf("got %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := New(store.NewMemory(), nil)
	_, err := svc.Get(context.Background(), NamespaceLive, "missing")
	if err == nil {
		t.Error("expected not-found error")
	}
}
