package channel

import (
	"context"
	"testing"
	"time"
)

// Test_Or checks that the merged channel closes once any one of its
// inputs closes.
func Test_Or(t *testing.T) {
	a := make(chan struct{})
	b := make(chan struct{})
	c := make(chan struct{})

	done := Or(a, b, c)

	select {
	case <-done:
		t.Fatal("done should not be closed yet")
	case <-time.After(200 * time.Millisecond):
		// OK
	}

	close(c)
	select {
	case <-done:
		close(a)
		close(b)
		t.Logf("done closed after closing c")
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for done to close after closing an input")
	}
}

// Test_OrDone checks that values are relayed and that context
// cancellation unblocks a stuck send.
func Test_OrDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	out := OrDone[int](ctx, in)

	go func() {
		in <- 1
		in <- 2
	}()

	select {
	case v := <-out:
		if v != 1 {
			t.Fatalf("expected 1, got %d", v)
		}
		t.Logf("first value received")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout: expected first value")
	}

	select {
	case v := <-out:
		if v != 2 {
			t.Fatalf("expected 2, got %d", v)
		}
		t.Logf("second value received")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout: expected second value")
	}

	// A further send with nobody reading out exercises the case
	// where OrDone is blocked on the outbound send when ctx is
	// canceled.
	go func() { in <- 999 }()

	time.Sleep(200 * time.Millisecond)

	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Fatal("expected out to be closed after ctx cancel")
		}
		t.Logf("out closed after ctx cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout: expected out to close after ctx cancel")
	}
}

// TestTee_minimumCoverage checks that Tee duplicates every input value
// onto both outputs and closes both once the input closes.
func TestTee_minimumCoverage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	out1, out2 := Tee[int](ctx, in)

	go func() {
		defer close(in)
		in <- 10
		in <- 20
		in <- 30
	}()

	expectedAddNum := 3
	got1 := make([]int, 0, expectedAddNum)
	got2 := make([]int, 0, expectedAddNum)

	deadline := time.After(2 * time.Second)
	for len(got1) < 3 || len(got2) < 3 {
		select {
		case v, ok := <-out1:
			if !ok {
				if len(got1) < expectedAddNum {
					t.Fatalf("out1 closed early: got=%v", got1)
				}
			} else {
				got1 = append(got1, v)
			}
		case v, ok := <-out2:
			if !ok {
				if len(got2) < expectedAddNum {
					t.Fatalf("out2 closed early: got=%v", got2)
				}
			} else {
				got2 = append(got2, v)
			}
		case <-deadline:
			t.Fatalf("timeout: got1=%v got2=%v", got1, got2)
		}
	}

	want := []int{10, 20, 30}
	for i := range want {
		if got1[i] != want[i] {
			t.Fatalf("out1[%d]: want %d, got %d (got1=%v)", i, want[i], got1[i], got1)
		}
		if got2[i] != want[i] {
			t.Fatalf("out2[%d]: want %d, got %d (got2=%v)", i, want[i], got2[i], got2)
		}
	}

	waitClosed := func(ch <-chan int, name string) {
		t.Helper()
		select {
		case _, ok := <-ch:
			if ok {
				for range ch {
				}
			}
		case <-time.After(200 * time.Millisecond):
		}

		select {
		case _, ok := <-ch:
			if ok {
				for range ch {
				}
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("timeout: %s should close after input closes", name)
		}
	}

	waitClosed(out1, "out1")
	waitClosed(out2, "out2")
}
