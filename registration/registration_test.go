package registration

import (
	"context"
	"testing"
	"time"

	"sls/auth"
	"sls/lease"
	"sls/record"
	"sls/store"
	"sls/uri"
)

type fakeNotifier struct {
	notified int
}

func (f *fakeNotifier) Notify(context.Context, record.Record) { f.notified++ }

func TestRegister_Success(t *testing.T) {
	st := store.NewMemory()
	leases := lease.New(0, time.Minute)
	notify := &fakeNotifier{}
	svc := New(st, leases, auth.None{}, uri.New("cache"), notify, nil)

	got, err := svc.Register(context.Background(), Proposed{
		Type:  "widget",
		Attrs: map[string]record.Value{"color": record.String("red")},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got.URI == "" || got.State != record.Register {
		t.Errorf("got %+v", got)
	}
	if notify.notified != 1 {
		t.Errorf("expected one notification, got %d", notify.notified)
	}
}

func TestRegister_RequiresType(t *testing.T) {
	svc := New(store.NewMemory(), lease.New(0, time.Minute), auth.None{}, uri.New(""), nil, nil)
	_, err := svc.Register(context.Background(), Proposed{Attrs: map[string]record.Value{"a": record.String("b")}})
	if err == nil {
		t.Error("expected error for missing type")
	}
}

func TestRegister_RequiresAtLeastOneAttr(t *testing.T) {
	svc := New(store.NewMemory(), lease.New(0, time.Minute), auth.None{}, uri.New(""), nil, nil)
	_, err := svc.Register(context.Background(), Proposed{Type: "widget"})
	if err == nil {
		t.Error("expected error for empty attrs")
	}
}

func TestRegister_DeniedOverCapacity(t *testing.T) {
	st := store.NewMemory()
	leases := lease.New(1, time.Minute)
	svc := New(st, leases, auth.None{}, uri.New(""), nil, nil)

	attrs := map[string]record.Value{"a": record.String("b")}
	if _, err := svc.Register(context.Background(), Proposed{Type: "widget", Attrs: attrs}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), Proposed{Type: "widget", Attrs: attrs}); err == nil {
		t.Error("expected the second registration to be denied once capacity is exhausted")
	}
}
