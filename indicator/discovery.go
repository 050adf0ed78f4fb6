package indicator

import (
	"lightlink-go/peer"
	"lightlink-go/transport"
	"lightlink-go/wire"
)

type discPhase uint8

const (
	discPeerSetup discPhase = iota
	discSend
	discDone
)

// discMachine answers one Discovery frame with one Discovery reply, after
// registering the announcing Commander as the peer.
type discMachine struct {
	radio  transport.Radio
	to     transport.Addr
	phase  discPhase
	ensure *peer.Ensure
}

func newDiscovery(radio transport.Radio, to, stale transport.Addr, pc peer.Config) *discMachine {
	return &discMachine{radio: radio, to: to, ensure: peer.NewEnsure(radio, to, stale, pc)}
}

func (m *discMachine) poll(nowMs int64) bool {
	switch m.phase {
	case discPeerSetup:
		if m.ensure.Poll(nowMs) {
			m.ensure = nil
			m.phase = discSend
		}

	case discSend:
		b := wire.Encode(wire.Message{Kind: wire.KindDiscovery})
		if err := m.radio.Send(m.to, b[:]); err != nil {
			println("Error: discovery response failed:", err.Error())
		} else {
			println("Info: discovery response sent to", m.to.String())
		}
		m.phase = discDone
	}
	return m.phase == discDone
}
