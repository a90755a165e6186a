package testutil

import (
	"sync"
	"time"

	"github.com/echoverse/echoverse/internal/ports"
)

// tickTimeout bounds how long Tick waits for a receiver.
const tickTimeout = time.Second

// ManualTicker is a ports.Ticker that only fires when told to.
type ManualTicker struct {
	Interval time.Duration

	c        chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

func newManualTicker(d time.Duration) *ManualTicker {
	return &ManualTicker{
		Interval: d,
		c:        make(chan time.Time),
		stopped:  make(chan struct{}),
	}
}

// C implements ports.Ticker.
func (t *ManualTicker) C() <-chan time.Time { return t.c }

// Stop implements ports.Ticker.
func (t *ManualTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Stopped reports whether Stop has been called.
func (t *ManualTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// Tick delivers one tick and returns once a receiver took it.
// It returns false if the ticker is stopped or nobody received within a second.
func (t *ManualTicker) Tick() bool {
	if t.Stopped() {
		return false
	}
	select {
	case t.c <- time.Now():
		return true
	case <-t.stopped:
		return false
	case <-time.After(tickTimeout):
		return false
	}
}

// ManualClock hands out ManualTickers and remembers them.
type ManualClock struct {
	mu      sync.Mutex
	tickers []*ManualTicker
}

// NewManualClock creates an empty ManualClock.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// NewTicker satisfies ports.TickerFactory.
func (c *ManualClock) NewTicker(d time.Duration) ports.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := newManualTicker(d)
	c.tickers = append(c.tickers, t)
	return t
}

// Created returns the number of tickers handed out so far.
func (c *ManualClock) Created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// Active returns the tickers that have not been stopped.
func (c *ManualClock) Active() []*ManualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	var active []*ManualTicker
	for _, t := range c.tickers {
		if !t.Stopped() {
			active = append(active, t)
		}
	}
	return active
}

// Tick fires the single active ticker. It returns false when none is active.
func (c *ManualClock) Tick() bool {
	active := c.Active()
	if len(active) == 0 {
		return false
	}
	return active[len(active)-1].Tick()
}

// TickN fires the active ticker n times and returns how many ticks were delivered.
func (c *ManualClock) TickN(n int) int {
	delivered := 0
	for i := 0; i < n; i++ {
		if !c.Tick() {
			break
		}
		delivered++
	}
	return delivered
}

var _ ports.TickerFactory = (&ManualClock{}).NewTicker
