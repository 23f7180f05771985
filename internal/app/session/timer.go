package session

import (
	"sync"
	"time"
)

// Countdown decrements once per tick interval from a start value to zero.
// onTick fires after every decrement with the new value, onZero fires
// exactly once when the value reaches zero, and the countdown stops on its
// own; it never goes negative. Only one run is live at a time: Start
// cancels a previous run first, and a generation counter keeps a stale
// run's ticks from landing after Cancel. Without that guard, re-entering
// the breathing phase while an old countdown is still ticking would
// decrement twice per interval.
type Countdown struct {
	mu        sync.Mutex
	interval  time.Duration
	remaining int
	gen       uint64
	stop      chan struct{}
	running   bool
}

// NewCountdown creates a countdown ticking once per interval.
// An interval <= 0 falls back to one second.
func NewCountdown(interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{interval: interval}
}

// Start begins a fresh run from initial. A run already in progress is
// cancelled first. Starting at zero or below fires onZero immediately.
func (c *Countdown) Start(initial int, onTick func(int), onZero func()) {
	c.mu.Lock()
	c.cancelLocked()
	c.remaining = initial
	c.gen++
	gen := c.gen

	if initial <= 0 {
		c.remaining = 0
		c.mu.Unlock()
		if onZero != nil {
			go onZero()
		}
		return
	}

	stop := make(chan struct{})
	c.stop = stop
	c.running = true
	c.mu.Unlock()

	go c.run(gen, stop, onTick, onZero)
}

func (c *Countdown) run(gen uint64, stop chan struct{}, onTick func(int), onZero func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if gen != c.gen || !c.running {
				c.mu.Unlock()
				return
			}
			c.remaining--
			n := c.remaining
			if n <= 0 {
				c.remaining = 0
				c.running = false
				c.stop = nil
			}
			c.mu.Unlock()

			if onTick != nil {
				onTick(n)
			}
			if n <= 0 {
				if onZero != nil {
					onZero()
				}
				return
			}
		}
	}
}

// Extend adds delta units to a running countdown without restarting the
// tick cadence. A no-op when stopped.
func (c *Countdown) Extend(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running && delta > 0 {
		c.remaining += delta
	}
}

// Cancel stops ticking immediately. Safe to call on an already-stopped
// countdown.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

func (c *Countdown) cancelLocked() {
	if c.running {
		c.running = false
		close(c.stop)
		c.stop = nil
	}
	// Invalidate callbacks from any run already past its select.
	c.gen++
}

// Remaining returns the current value.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether a run is in progress.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
