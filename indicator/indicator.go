// Package indicator implements the receiving role: activate the commanded
// output, acknowledge redundantly, and duty-cycle into low-power sleep
// between active windows. All cross-machine state lives in the Indicator
// context; the transport callback and the scheduler-polled machines meet
// only at the mailbox and the guarded activation path.
package indicator

import (
	"sync"

	"lightlink-go/errcode"
	"lightlink-go/link"
	"lightlink-go/output"
	"lightlink-go/peer"
	"lightlink-go/sched"
	"lightlink-go/store"
	"lightlink-go/transport"
	"lightlink-go/wire"
)

// SuspendFunc parks the whole node for ms and returns the timestamp after
// resuming. On hardware this is the light-sleep primitive; hosts and tests
// stand it in with a clock.
type SuspendFunc func(ms int64) int64

// Config tunes the role. Zero fields take the deployed defaults.
type Config struct {
	Channel uint8 // radio channel (default 6)

	AckRedundancy int   // acks per command (default 3)
	AckSpacingMs  int64 // gap between redundant acks (default 20)

	AwakeMs        int64 // short listen window (default 300)
	SleepMs        int64 // suspension length (default 1700)
	PostCommandMs  int64 // stay-awake window after activity (default 3000)
	ExtendedMs     int64 // forced long window length (default 10000)
	MaxSleepCycles int   // sleep rounds before a forced long window (default 10)

	Peer peer.Config
}

func (c Config) withDefaults() Config {
	if c.Channel == 0 {
		c.Channel = 6
	}
	if c.AckRedundancy <= 0 {
		c.AckRedundancy = 3
	}
	if c.AckSpacingMs <= 0 {
		c.AckSpacingMs = 20
	}
	if c.AwakeMs <= 0 {
		c.AwakeMs = 300
	}
	if c.SleepMs <= 0 {
		c.SleepMs = 1700
	}
	if c.PostCommandMs <= 0 {
		c.PostCommandMs = 3000
	}
	if c.ExtendedMs <= 0 {
		c.ExtendedMs = 10000
	}
	if c.MaxSleepCycles <= 0 {
		c.MaxSleepCycles = 10
	}
	return c
}

// Indicator is the role context. One instance per node, polled by the
// scheduler; handleFrame is the only entry point running off the poll path.
type Indicator struct {
	cfg     Config
	radio   transport.Radio
	bank    output.Bank
	st      store.Store
	clock   sched.Clock
	suspend SuspendFunc

	mbox link.Mailbox

	mu        sync.Mutex
	active    int // active output index, -1 none
	savedPeer transport.Addr
	regPeer   transport.Addr // address currently registered with the radio
	ack       *ackMachine
	disc      *discMachine

	// Sleep/wake duty cycle.
	lastActivityMs int64
	nextSleepMs    int64
	preparing      bool
	prepWait       link.Wait
	sleepCycles    int
	extended       bool
	extendedFromMs int64
}

// New wires the role together. suspend may be nil, in which case the clock
// stands in for the hardware sleep primitive.
func New(radio transport.Radio, bank output.Bank, st store.Store, clock sched.Clock, suspend SuspendFunc, cfg Config) *Indicator {
	ind := &Indicator{
		cfg:     cfg.withDefaults(),
		radio:   radio,
		bank:    bank,
		st:      st,
		clock:   clock,
		suspend: suspend,
		active:  -1,
	}
	if ind.suspend == nil {
		ind.suspend = func(ms int64) int64 {
			clock.SleepMs(ms)
			return clock.NowMs()
		}
	}
	return ind
}

func (ind *Indicator) Name() string { return "indicator" }

// Active returns the active output index, -1 when none.
func (ind *Indicator) Active() int {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.active
}

// SleepCycles returns the consecutive short-sleep count since the last
// extended window or command.
func (ind *Indicator) SleepCycles() int {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.sleepCycles
}

// Extended reports whether the node is in a forced extended-wake window.
func (ind *Indicator) Extended() bool {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.extended
}

// Start performs the boot sequence: recover the persisted Commander
// address, bring the radio up, and pre-register the known peer so acks
// work before any Discovery. Transport bring-up failure is fatal; the
// caller restarts the node.
func (ind *Indicator) Start() error {
	if b, ok := ind.st.Get(store.KeyLastSender); ok {
		if a, err := transport.AddrFromBytes(b); err == nil {
			ind.savedPeer = a
			println("Info: loaded saved peer address:", a.String())
		} else {
			println("Error: discarding malformed peer record")
		}
	} else {
		println("Info: no saved peer address found")
	}

	if err := ind.radio.Init(ind.cfg.Channel); err != nil {
		return &errcode.E{C: errcode.TransportInit, Op: "indicator.start", Err: err}
	}
	ind.radio.OnReceive(ind.handleFrame)
	if !ind.savedPeer.IsZero() {
		if err := ind.radio.AddPeer(ind.savedPeer); err != nil {
			println("Error: saved peer re-add failed:", err.Error())
		} else {
			ind.regPeer = ind.savedPeer
		}
	}

	now := ind.clock.NowMs()
	ind.lastActivityMs = now // boot counts as activity, like a fresh command
	ind.nextSleepMs = now + ind.cfg.PostCommandMs
	println("Info: indicator ready on channel", ind.cfg.Channel)
	return nil
}

// handleFrame is the receive callback. It can interleave with any poll,
// including right after a resume, so it does only bounded work: decode,
// mailbox writes, and, for commands where response latency matters,
// activating the output and arming the ack machine. Delayed retries stay
// with the polled machines.
func (ind *Indicator) handleFrame(from transport.Addr, payload []byte) {
	msg, err := wire.Decode(payload)
	if err != nil {
		return // noise
	}
	now := ind.clock.NowMs()

	switch msg.Kind {
	case wire.KindCommand:
		if int(msg.Value) >= ind.bank.Count() {
			println("Error: invalid output index received:", msg.Value)
			return
		}
		println("Info: received command for index", msg.Value)
		ind.mu.Lock()
		ind.activateLocked(int(msg.Value))
		ind.touchLocked(now)
		ind.ack = newAck(ind.radio, from, ind.regPeer, msg.Value,
			ind.cfg.AckRedundancy, ind.cfg.AckSpacingMs, ind.cfg.Peer)
		ind.regPeer = from
		ind.mu.Unlock()
		ind.mbox.Post(from, msg)

	case wire.KindDiscovery:
		println("Info: received discovery request from", from.String())
		ind.mu.Lock()
		ind.touchLocked(now)
		ind.mu.Unlock()
		ind.mbox.Post(from, msg)

	case wire.KindAck:
		// Not addressed to this role; drop.

	default:
		println("Error: unknown message kind", uint8(msg.Kind))
	}
}

// activateLocked enforces output exclusivity: the previous index goes off
// before the new one comes on.
func (ind *Indicator) activateLocked(idx int) {
	if ind.active == idx {
		ind.bank.Set(idx, true) // reassert
		return
	}
	if ind.active >= 0 {
		ind.bank.Set(ind.active, false)
	}
	ind.bank.Set(idx, true)
	ind.active = idx
}

// touchLocked registers activity: reset the sleep schedule and cancel any
// forced extended window.
func (ind *Indicator) touchLocked(nowMs int64) {
	ind.lastActivityMs = nowMs
	ind.sleepCycles = 0
	ind.extended = false
	ind.preparing = false
	ind.prepWait.Clear()
}

// Poll advances the role: consume the mailbox, drive the ack and discovery
// machines, then run the duty-cycle scheduler (which owns the single
// blocking suspend point).
func (ind *Indicator) Poll(nowMs int64) {
	ind.consume()
	ind.pollAck(nowMs)
	ind.pollDiscovery(nowMs)
	ind.pollSleep(nowMs)
}

// consume drains the mailbox. Output activation already happened in the
// callback; the poll side owns persistence and the discovery reply.
func (ind *Indicator) consume() {
	ev, ok := ind.mbox.Take()
	if !ok {
		return
	}
	switch ev.Msg.Kind {
	case wire.KindCommand:
		ind.persistPeer(ev.From)
	case wire.KindDiscovery:
		ind.persistPeer(ev.From)
		ind.mu.Lock()
		stale := ind.regPeer
		ind.disc = newDiscovery(ind.radio, ev.From, stale, ind.cfg.Peer)
		ind.regPeer = ev.From
		ind.mu.Unlock()
	}
}

// persistPeer records a new Commander address, skipping the write when the
// address is unchanged to spare the flash.
func (ind *Indicator) persistPeer(a transport.Addr) {
	ind.mu.Lock()
	same := a == ind.savedPeer
	if !same {
		ind.savedPeer = a
	}
	ind.mu.Unlock()
	if same {
		return
	}
	if err := ind.st.Put(store.KeyLastSender, a[:]); err != nil {
		println("Error: peer record write failed:", err.Error())
		return
	}
	println("Info: saved peer address:", a.String())
}

func (ind *Indicator) pollAck(nowMs int64) {
	ind.mu.Lock()
	a := ind.ack
	ind.mu.Unlock()
	if a == nil {
		return
	}
	if a.poll(nowMs) {
		ind.mu.Lock()
		if ind.ack == a { // a newer command may have replaced it
			ind.ack = nil
		}
		ind.mu.Unlock()
	}
}

func (ind *Indicator) pollDiscovery(nowMs int64) {
	ind.mu.Lock()
	m := ind.disc
	ind.mu.Unlock()
	if m == nil {
		return
	}
	if m.poll(nowMs) {
		ind.mu.Lock()
		if ind.disc == m {
			ind.disc = nil
		}
		ind.mu.Unlock()
	}
}
