package bus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"sls/record"
)

func TestPush_Success(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(nil, nil)
	err := c.Push(context.Background(), srv.URL, "sub-1", []record.Record{{URI: "a"}})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected one delivery attempt, got %d", calls)
	}
}

func TestPush_RetriesOnceOn5xxThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(nil, nil)
	err := c.Push(context.Background(), srv.URL, "sub-1", []record.Record{{URI: "a"}})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected exactly one retry (2 attempts), got %d", calls)
	}
}

func TestPush_3xxIsPermanentAndNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer srv.Close()

	c := New(nil, nil)
	err := c.Push(context.Background(), srv.URL, "sub-1", []record.Record{{URI: "a"}})
	if err == nil {
		t.Fatal("expected an error for a 3xx response from a client that does not follow redirects")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected a 3xx to short-circuit retries, got %d attempts", calls)
	}
}

func TestPush_4xxIsPermanentAndNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(nil, nil)
	err := c.Push(context.Background(), srv.URL, "sub-1", []record.Record{{URI: "a"}})
	if err == nil {
		t.Fatal("expected an error for a 4xx response")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected a 4xx to short-circuit retries, got %d attempts", calls)
	}
}
