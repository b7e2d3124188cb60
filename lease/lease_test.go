package lease

import (
	"testing"
	"time"
)

func TestRequestLease_GrantsUnderCapacity(t *testing.T) {
	m := New(2, time.Minute)

	if _, granted := m.RequestLease("a", 0); !granted {
		t.Fatal("expected a to be granted")
	}
	if _, granted := m.RequestLease("b", 0); !granted {
		t.Fatal("expected b to be granted")
	}
	if _, granted := m.RequestLease("c", 0); granted {
		t.Fatal("expected c to be denied once capacity is exhausted")
	}
	if got := m.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
}

func TestRequestLease_RenewalBypassesCapacity(t *testing.T) {
	m := New(1, time.Minute)

	if _, granted := m.RequestLease("a", 0); !granted {
		t.Fatal("expected initial admission to succeed")
	}
	if _, granted := m.RequestLease("a", 0); !granted {
		t.Error("expected renewal of an already-leased uri to succeed regardless of capacity")
	}
}

func TestReleaseLease_FreesCapacity(t *testing.T) {
	m := New(1, time.Minute)
	m.RequestLease("a", 0)
	m.ReleaseLease("a")

	if _, granted := m.RequestLease("b", 0); !granted {
		t.Error("expected capacity to be reclaimed after release")
	}
}

func TestReleaseLease_Idempotent(t *testing.T) {
	m := New(0, time.Minute)
	m.ReleaseLease("never-leased") // must not panic
}

func TestExpiredURIs(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := New(0, time.Minute).WithClock(func() time.Time { return now })

	m.RequestLease("short", time.Second)
	m.RequestLease("long", time.Hour)

	later := now.Add(2 * time.Second)
	expired := m.ExpiredURIs(later)
	if len(expired) != 1 || expired[0] != "short" {
		t.Errorf("got %v, want [short]", expired)
	}
	if _, _, ok := m.NextExpiry(); !ok {
		t.Error("expected \"long\" to still be tracked")
	}
}

func TestNextExpiry_EmptyManager(t *testing.T) {
	m := New(0, time.Minute)
	if _, _, ok := m.NextExpiry(); ok {
		t.Error("expected no next expiry on an empty manager")
	}
}
