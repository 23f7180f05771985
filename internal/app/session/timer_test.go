package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCountdownTicksToZero(t *testing.T) {
	c := NewCountdown(5 * time.Millisecond)

	var mu sync.Mutex
	var ticks []int
	var zeros int32
	done := make(chan struct{})

	c.Start(3,
		func(n int) {
			mu.Lock()
			ticks = append(ticks, n)
			mu.Unlock()
		},
		func() {
			atomic.AddInt32(&zeros, 1)
			close(done)
		},
	)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onZero never fired")
	}

	// Give a stale goroutine a chance to misbehave before asserting.
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	want := []int{2, 1, 0}
	if len(ticks) != len(want) {
		t.Fatalf("expected %d ticks, got %v", len(want), ticks)
	}
	for i, n := range want {
		if ticks[i] != n {
			t.Fatalf("tick %d: expected %d, got %d", i, n, ticks[i])
		}
	}
	if n := atomic.LoadInt32(&zeros); n != 1 {
		t.Fatalf("expected onZero exactly once, got %d", n)
	}
	if c.Running() {
		t.Fatal("countdown still running after zero")
	}
	if c.Remaining() != 0 {
		t.Fatalf("expected remaining 0, got %d", c.Remaining())
	}
}

func TestCountdownCancelIsIdempotent(t *testing.T) {
	c := NewCountdown(5 * time.Millisecond)

	var zeros int32
	c.Start(100, nil, func() { atomic.AddInt32(&zeros, 1) })

	c.Cancel()
	c.Cancel() // safe on an already-stopped countdown
	time.Sleep(30 * time.Millisecond)

	if n := atomic.LoadInt32(&zeros); n != 0 {
		t.Fatalf("cancelled countdown fired onZero %d times", n)
	}
	if c.Running() {
		t.Fatal("countdown still running after cancel")
	}
}

func TestCountdownExtendAddsRemaining(t *testing.T) {
	c := NewCountdown(10 * time.Millisecond)

	done := make(chan struct{})
	c.Start(2, nil, func() { close(done) })
	c.Extend(2)

	start := time.Now()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onZero never fired")
	}

	// 4 ticks at 10ms each; anything under 3 ticks' worth means the
	// extension was lost.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("countdown finished too early: %v", elapsed)
	}
}

func TestCountdownExtendWhenStoppedIsNoop(t *testing.T) {
	c := NewCountdown(5 * time.Millisecond)
	c.Extend(10)
	if c.Remaining() != 0 {
		t.Fatalf("extend on stopped countdown changed remaining to %d", c.Remaining())
	}
}

func TestCountdownRestartCancelsOldRun(t *testing.T) {
	c := NewCountdown(5 * time.Millisecond)

	var firstZero int32
	c.Start(1000, nil, func() { atomic.AddInt32(&firstZero, 1) })

	done := make(chan struct{})
	c.Start(2, nil, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second run never finished")
	}
	time.Sleep(30 * time.Millisecond)

	if n := atomic.LoadInt32(&firstZero); n != 0 {
		t.Fatalf("first run fired onZero after being replaced, %d times", n)
	}
}

func TestCountdownStartAtZeroFiresImmediately(t *testing.T) {
	c := NewCountdown(time.Hour)

	done := make(chan struct{})
	c.Start(0, nil, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("onZero never fired for zero start")
	}
}
