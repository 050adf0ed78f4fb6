// Package commander implements the command-dispatch role: cycle a target
// output index, announce it until the Indicator confirms, and force-advance
// when confirmation never comes, so permanent packet loss can stall the
// cycle for at most RetryCeiling retry intervals.
package commander

import (
	"lightlink-go/errcode"
	"lightlink-go/link"
	"lightlink-go/peer"
	"lightlink-go/transport"
	"lightlink-go/wire"
)

// Config tunes the dispatch session. Zero fields take the defaults the
// deployed pair runs with.
type Config struct {
	Outputs         int   // number of target indices (default 3)
	RetryIntervalMs int64 // gap between command sends (default 500)
	RetryCeiling    int   // sends before force-advance (default 12)
	HoldMs          int64 // dwell on an acknowledged index (default 10000)

	// Strict requires the acknowledged value to echo the outstanding
	// index. Off by default: any ack confirms, trading a cross-check for
	// tolerance of reordered redundant acks.
	Strict bool

	Peer peer.Config
}

func (c Config) withDefaults() Config {
	if c.Outputs <= 0 {
		c.Outputs = 3
	}
	if c.RetryIntervalMs <= 0 {
		c.RetryIntervalMs = 500
	}
	if c.RetryCeiling <= 0 {
		c.RetryCeiling = 12
	}
	if c.HoldMs <= 0 {
		c.HoldMs = 10000
	}
	return c
}

// Dispatch is the Commander's session: created once at startup, mutated
// every tick, never destroyed. It cycles targetIndex forward for the
// process lifetime.
type Dispatch struct {
	cfg    Config
	radio  transport.Radio
	target transport.Addr
	mbox   link.Mailbox

	// ensure is non-nil while peer registration is in flight. The first
	// registration is persistent (bring-up retries forever); steady-state
	// re-registrations are bounded and complete unsuccessfully, letting
	// the next send failure drive another round.
	ensure *peer.Ensure

	idx      int
	retries  int
	acked    bool
	sendWait link.Wait
	lastOKMs int64
}

// New prepares a session targeting the Indicator at target. The radio must
// already be initialized; call Bind to attach the receive callback.
func New(radio transport.Radio, target transport.Addr, cfg Config) *Dispatch {
	d := &Dispatch{cfg: cfg.withDefaults(), radio: radio, target: target}
	pc := d.cfg.Peer
	pc.Persistent = true
	d.ensure = peer.NewEnsure(radio, target, transport.Addr{}, pc)
	return d
}

func (d *Dispatch) Name() string { return "dispatch" }

// Bind registers the receive callback with the radio. Call again after any
// transport rebuild.
func (d *Dispatch) Bind() { d.radio.OnReceive(d.handleFrame) }

// Index returns the current target index.
func (d *Dispatch) Index() int { return d.idx }

// Acked reports whether the outstanding command has been confirmed.
func (d *Dispatch) Acked() bool { return d.acked }

// handleFrame runs on the transport's delivery path. It only decodes and
// posts to the mailbox; all session writes happen in Poll.
func (d *Dispatch) handleFrame(from transport.Addr, payload []byte) {
	msg, err := wire.Decode(payload)
	if err != nil {
		return // noise
	}
	d.mbox.Post(from, msg)
}

// Poll advances the session.
func (d *Dispatch) Poll(nowMs int64) {
	d.consume(nowMs)

	if d.acked {
		if nowMs-d.lastOKMs >= d.cfg.HoldMs {
			println("Info: moving to next index")
			d.advance(nowMs)
		}
		return
	}

	if d.ensure != nil {
		if d.ensure.Poll(nowMs) {
			d.ensure = nil // complete either way; sends surface the truth
		}
		return
	}

	if !d.sendWait.Elapsed(nowMs, d.cfg.RetryIntervalMs) {
		return
	}
	if d.retries >= d.cfg.RetryCeiling {
		println("Info: forcing progression after maximum retries")
		d.advance(nowMs)
		return
	}
	d.sendCommand()
	d.retries++
	d.sendWait.Start(nowMs)
}

// consume drains the mailbox written by the receive callback.
func (d *Dispatch) consume(nowMs int64) {
	ev, ok := d.mbox.Take()
	if !ok {
		return
	}
	switch ev.Msg.Kind {
	case wire.KindAck:
		if d.acked {
			return // redundant ack
		}
		if d.cfg.Strict && int(ev.Msg.Value) != d.idx {
			println("Info: ignoring ack for stale index", ev.Msg.Value)
			return
		}
		println("Info: received acknowledgment for index", ev.Msg.Value)
		d.acked = true
		d.lastOKMs = nowMs
	case wire.KindDiscovery:
		println("Info: received discovery response from", ev.From.String())
	default:
		println("Error: unknown message kind", uint8(ev.Msg.Kind))
	}
}

// advance moves to the next index and forces peer re-registration, so a
// wedged transport-side peer record cannot outlive one cycle.
func (d *Dispatch) advance(nowMs int64) {
	d.idx = (d.idx + 1) % d.cfg.Outputs
	d.acked = false
	d.retries = 0
	d.sendWait.Start(nowMs)
	d.lastOKMs = nowMs
	d.invalidatePeer()
}

func (d *Dispatch) invalidatePeer() {
	if err := d.radio.DelPeer(d.target); err != nil {
		println("Error: peer delete failed:", err.Error())
	}
	d.ensure = peer.NewEnsure(d.radio, d.target, transport.Addr{}, d.cfg.Peer)
}

func (d *Dispatch) sendCommand() {
	b := wire.Encode(wire.Message{Kind: wire.KindCommand, Value: uint8(d.idx)})
	println("Info: sending command for index", d.idx)
	if err := d.radio.Send(d.target, b[:]); err != nil {
		println("Error: send failed:", err.Error())
		// Absorbed: the retry cadence carries on. A missing peer record is
		// the one condition worth repairing here.
		if errcode.Of(err) == errcode.PeerMissing || !d.radio.HasPeer(d.target) {
			d.ensure = peer.NewEnsure(d.radio, d.target, transport.Addr{}, d.cfg.Peer)
		}
	}
}
