// Package nrf24link implements the transport contract over the nRF24 chip
// driver. All nodes on a channel share one pipe; each air packet carries
// the destination and source hardware addresses, and the link filters on
// the destination locally. Peer registration gates unicast send exactly as
// the contract requires, even though the chip itself does not care.
package nrf24link

import (
	"sync"

	"lightlink-go/drivers/nrf24"
	"lightlink-go/errcode"
	"lightlink-go/transport"
)

// Air packet: dst(6) | src(6) | frame(2). Fixed width on the chip.
const (
	airSize  = 2*transport.AddrLen + 2
	frameOff = 2 * transport.AddrLen
)

// pipeBase is the shared pipe address; the last byte tracks the channel so
// neighboring deployments do not cross-talk.
var pipeBase = [5]byte{0xE7, 0xD3, 0xF0, 0x35, 0x00}

// Link adapts one nrf24.Device to transport.Radio. Its Poll method is a
// scheduler task standing in for the receive interrupt: it drains the RX
// FIFO and invokes the callback for frames addressed to this node.
type Link struct {
	dev   *nrf24.Device
	local transport.Addr

	mu    sync.Mutex
	up    bool
	recv  transport.RecvFunc
	peers map[transport.Addr]bool
}

var _ transport.Radio = (*Link)(nil)

func New(dev *nrf24.Device, local transport.Addr) *Link {
	return &Link{dev: dev, local: local}
}

func (l *Link) Name() string { return "radio" }

func (l *Link) Init(channel uint8) error {
	err := l.dev.Configure(nrf24.Config{Channel: channel, PayloadSize: airSize})
	if err == nil {
		pipe := pipeBase
		pipe[4] = channel
		err = l.dev.SetPipeAddress(pipe[:])
	}
	if err == nil {
		err = l.dev.StartListening()
	}
	if err != nil {
		return &errcode.E{C: errcode.TransportInit, Op: "nrf24link.init", Err: err}
	}
	l.mu.Lock()
	l.up = true
	l.peers = map[transport.Addr]bool{}
	l.mu.Unlock()
	return nil
}

func (l *Link) Deinit() {
	l.mu.Lock()
	l.up = false
	l.recv = nil
	l.peers = nil
	l.mu.Unlock()
	if err := l.dev.PowerDown(); err != nil {
		println("Error: radio power down failed:", err.Error())
	}
}

func (l *Link) LocalAddr() transport.Addr { return l.local }

func (l *Link) OnReceive(fn transport.RecvFunc) {
	l.mu.Lock()
	l.recv = fn
	l.mu.Unlock()
}

func (l *Link) AddPeer(a transport.Addr) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.up {
		return errcode.TransportInit
	}
	l.peers[a] = true
	return nil
}

func (l *Link) DelPeer(a transport.Addr) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.peers != nil {
		delete(l.peers, a)
	}
	return nil
}

func (l *Link) HasPeer(a transport.Addr) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peers[a]
}

func (l *Link) Send(to transport.Addr, payload []byte) error {
	l.mu.Lock()
	up, registered := l.up, l.peers[to]
	l.mu.Unlock()
	if !up {
		return errcode.SendFailed
	}
	if !registered {
		return errcode.PeerMissing
	}
	if len(payload) != airSize-frameOff {
		return errcode.InvalidFrame
	}

	var pkt [airSize]byte
	copy(pkt[0:], to[:])
	copy(pkt[transport.AddrLen:], l.local[:])
	copy(pkt[frameOff:], payload)
	if err := l.dev.Transmit(pkt[:]); err != nil {
		return &errcode.E{C: errcode.SendFailed, Op: "nrf24link.send", Err: err}
	}
	// The chip sits in standby after a transmit; resume listening.
	if err := l.dev.StartListening(); err != nil {
		return &errcode.E{C: errcode.SendFailed, Op: "nrf24link.listen", Err: err}
	}
	return nil
}

// Poll drains the RX FIFO, bounded per tick so the scheduler stays fair.
func (l *Link) Poll(nowMs int64) {
	l.mu.Lock()
	up, fn := l.up, l.recv
	l.mu.Unlock()
	if !up || fn == nil {
		return
	}

	var pkt [airSize]byte
	for i := 0; i < 4; i++ {
		ok, err := l.dev.Available()
		if err != nil || !ok {
			return
		}
		if _, err := l.dev.Receive(pkt[:]); err != nil {
			return
		}
		dst, _ := transport.AddrFromBytes(pkt[0:transport.AddrLen])
		if dst != l.local {
			continue // someone else's unicast on the shared pipe
		}
		src, _ := transport.AddrFromBytes(pkt[transport.AddrLen:frameOff])
		fn(src, pkt[frameOff:])
	}
}
