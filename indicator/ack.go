package indicator

import (
	"lightlink-go/link"
	"lightlink-go/peer"
	"lightlink-go/transport"
	"lightlink-go/wire"
)

type ackPhase uint8

const (
	ackPeerSetup ackPhase = iota
	ackSending
	ackWaiting
	ackDone
)

// ackMachine sends a fixed number of redundant acknowledgments for one
// command. The transport gives no delivery confirmation for the ack itself,
// so repeating it raises the odds at least one lands, at the cost of extra
// radio time. Each send is followed by a timed (never blocking) gap.
type ackMachine struct {
	radio transport.Radio
	to    transport.Addr
	value uint8

	redundancy int
	spacingMs  int64

	phase  ackPhase
	ensure *peer.Ensure
	sent   int
	wait   link.Wait
}

func newAck(radio transport.Radio, to, stale transport.Addr, value uint8, redundancy int, spacingMs int64, pc peer.Config) *ackMachine {
	return &ackMachine{
		radio:      radio,
		to:         to,
		value:      value,
		redundancy: redundancy,
		spacingMs:  spacingMs,
		ensure:     peer.NewEnsure(radio, to, stale, pc),
	}
}

// poll advances the machine; returns true once all sends are issued. A
// send fires in the same poll its wait elapses, so the configured spacing
// is observed exactly rather than stretched by a tick.
func (a *ackMachine) poll(nowMs int64) bool {
	switch a.phase {
	case ackPeerSetup:
		if a.ensure.Poll(nowMs) {
			a.ensure = nil
			a.sendOne(nowMs)
		}

	case ackWaiting:
		if a.wait.Elapsed(nowMs, a.spacingMs) {
			a.wait.Clear()
			a.sendOne(nowMs)
		}
	}
	return a.phase == ackDone
}

func (a *ackMachine) sendOne(nowMs int64) {
	a.phase = ackSending
	b := wire.Encode(wire.Message{Kind: wire.KindAck, Value: a.value})
	if err := a.radio.Send(a.to, b[:]); err != nil {
		println("Error: ack send failed:", err.Error())
	} else {
		println("Info: acknowledgment", a.sent+1, "sent for index", a.value)
	}
	// Failed sends still count: the dispatch retry loop covers losses.
	a.sent++
	if a.sent >= a.redundancy {
		a.phase = ackDone
		return
	}
	a.wait.Start(nowMs)
	a.phase = ackWaiting
}
