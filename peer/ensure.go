// Package peer manages the single remote peer record each role keeps with
// its local transport. Registration can take several scheduler ticks, so it
// is a small state machine of its own rather than a blocking call.
package peer

import (
	"lightlink-go/link"
	"lightlink-go/transport"
)

type Phase uint8

const (
	PhaseInit Phase = iota
	PhaseAttempting
	PhaseRetryWait
	PhaseDone
)

// Config bounds the registration retries. Zero fields take defaults.
type Config struct {
	MaxAttempts  int   // add attempts before giving up (default 3)
	RetryDelayMs int64 // wait between attempts (default 500)

	// Persistent never gives up: initial bring-up keeps retrying forever,
	// while steady-state re-registration completes unsuccessfully and lets
	// the outer machine absorb the next send failure.
	Persistent bool
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelayMs <= 0 {
		c.RetryDelayMs = 500
	}
	return c
}

// Ensure registers addr with the transport: delete any stale record for a
// different address, add, then verify the transport reports the peer.
// Calling it for an already registered address is a no-op success.
type Ensure struct {
	radio transport.Radio
	addr  transport.Addr
	stale transport.Addr
	cfg   Config

	phase    Phase
	attempts int
	wait     link.Wait
	ok       bool
}

// NewEnsure prepares registration of addr. stale names the previously
// registered address to replace; pass the zero Addr when there is none.
func NewEnsure(radio transport.Radio, addr, stale transport.Addr, cfg Config) *Ensure {
	return &Ensure{radio: radio, addr: addr, stale: stale, cfg: cfg.withDefaults()}
}

func (e *Ensure) Addr() transport.Addr { return e.addr }

// Done reports whether the machine reached a terminal state.
func (e *Ensure) Done() bool { return e.phase == PhaseDone }

// OK reports whether the peer is verified registered. Only meaningful once
// Done.
func (e *Ensure) OK() bool { return e.ok }

// Poll advances the machine one step; returns Done().
func (e *Ensure) Poll(nowMs int64) bool {
	switch e.phase {
	case PhaseInit:
		if e.radio.HasPeer(e.addr) {
			e.ok = true
			e.phase = PhaseDone
			break
		}
		// Replace-by-delete-then-add; the record is never mutated in place.
		if !e.stale.IsZero() && e.stale != e.addr && e.radio.HasPeer(e.stale) {
			if err := e.radio.DelPeer(e.stale); err != nil {
				println("Error: peer delete failed:", err.Error())
			}
		}
		e.phase = PhaseAttempting

	case PhaseAttempting:
		e.attempts++
		if e.tryAdd() {
			e.ok = true
			e.phase = PhaseDone
			println("Info: peer registered:", e.addr.String())
			break
		}
		if !e.cfg.Persistent && e.attempts >= e.cfg.MaxAttempts {
			println("Error: peer registration gave up for", e.addr.String())
			e.phase = PhaseDone
			break
		}
		println("Info: peer add failed, will retry:", e.addr.String())
		e.wait.Start(nowMs)
		e.phase = PhaseRetryWait

	case PhaseRetryWait:
		if e.wait.Elapsed(nowMs, e.cfg.RetryDelayMs) {
			e.wait.Clear()
			e.phase = PhaseAttempting
		}
	}
	return e.phase == PhaseDone
}

// tryAdd performs one add-and-verify round, with the single immediate
// verification retry the transport contract allows for.
func (e *Ensure) tryAdd() bool {
	if e.radio.AddPeer(e.addr) == nil && e.radio.HasPeer(e.addr) {
		return true
	}
	return e.radio.AddPeer(e.addr) == nil && e.radio.HasPeer(e.addr)
}
