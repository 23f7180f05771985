package session

import (
	"sync"
	"testing"
	"time"
)

func TestDebouncerCoalescesToNewest(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var fired []int
	record := func(n int) func() {
		return func() {
			mu.Lock()
			fired = append(fired, n)
			mu.Unlock()
		}
	}

	d.Trigger(record(1))
	d.Trigger(record(2))
	d.Trigger(record(3))

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 || fired[0] != 3 {
		t.Fatalf("expected only the newest trigger to fire, got %v", fired)
	}
}

func TestDebouncerZeroWindowRunsInline(t *testing.T) {
	d := newDebouncer(0)
	ran := false
	d.Trigger(func() { ran = true })
	if !ran {
		t.Fatal("zero-window trigger did not run inline")
	}
}

func TestDebouncerCancelDropsPending(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)

	fired := make(chan struct{}, 1)
	d.Trigger(func() { fired <- struct{}{} })
	d.Cancel()
	d.Cancel()

	select {
	case <-fired:
		t.Fatal("cancelled trigger fired")
	case <-time.After(50 * time.Millisecond):
	}
}
