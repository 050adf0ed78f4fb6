package sched

import "sync"

// FakeClock is a manually advanced Clock for tests and the simulator.
// SleepMs advances virtual time instead of parking, which models the
// hard suspend: nothing else observes the skipped interval.
type FakeClock struct {
	mu  sync.Mutex
	now int64
}

func NewFakeClock(startMs int64) *FakeClock { return &FakeClock{now: startMs} }

func (c *FakeClock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) SleepMs(ms int64) { c.AdvanceMs(ms) }

func (c *FakeClock) AdvanceMs(ms int64) {
	c.mu.Lock()
	if ms > 0 {
		c.now += ms
	}
	c.mu.Unlock()
}
