// Package sched drives the role state machines: a single-threaded,
// non-blocking round-robin runner. Every machine exposes Poll(nowMs) and
// expresses waits as elapsed-time checks against captured timestamps, so a
// poll never occupies the thread for more than a short bounded time. The
// only blocking point in the whole system is the Indicator sleep machine's
// suspend hook, which parks the runner's goroutine wholesale.
package sched

import (
	"context"
	"time"

	"lightlink-go/x/timex"
)

// Task is one cooperatively scheduled state machine.
type Task interface {
	Name() string
	// Poll advances the machine. nowMs is passed in rather than read inside
	// so tests can feed synthetic timestamps.
	Poll(nowMs int64)
}

// Clock abstracts time for the runner and the suspend point.
type Clock interface {
	NowMs() int64
	// SleepMs parks the caller. Used for the idle gap between iterations
	// and, on hosts, to stand in for the hardware light-sleep primitive.
	SleepMs(ms int64)
}

// WallClock is the real-time Clock.
type WallClock struct{}

func (WallClock) NowMs() int64 { return timex.NowMs() }
func (WallClock) SleepMs(ms int64) {
	if ms > 0 {
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
}

// Runner polls each task once per iteration, in registration order.
type Runner struct {
	clock  Clock
	idleMs int64
	tasks  []Task
}

func NewRunner(clock Clock) *Runner {
	// 10ms idle matches the polling cadence the protocol timings assume.
	return &Runner{clock: clock, idleMs: 10}
}

func (r *Runner) Add(t Task) { r.tasks = append(r.tasks, t) }

// Step runs one round-robin iteration with a single timestamp for all
// tasks, so a slow poll cannot skew its successors within the iteration.
func (r *Runner) Step() {
	now := r.clock.NowMs()
	for _, t := range r.tasks {
		t.Poll(now)
	}
}

// Run iterates until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			println("Info: scheduler stopping")
			return
		default:
		}
		r.Step()
		r.clock.SleepMs(r.idleMs)
	}
}
