// Package transport defines the radio contract both roles build on: a
// connectionless, peer-addressed unicast link with an asynchronous receive
// callback and no delivery guarantee above the link layer.
package transport

import "lightlink-go/errcode"

// AddrLen is the hardware radio identifier length.
const AddrLen = 6

// Addr is a 6-byte hardware radio address. The zero value means "no peer".
type Addr [AddrLen]byte

// IsZero reports whether a is the unset address.
func (a Addr) IsZero() bool { return a == Addr{} }

// String formats a as AA:BB:CC:DD:EE:FF without fmt (TinyGo-safe).
func (a Addr) String() string {
	const hex = "0123456789ABCDEF"
	var b [AddrLen*3 - 1]byte
	for i, v := range a {
		if i > 0 {
			b[i*3-1] = ':'
		}
		b[i*3] = hex[v>>4]
		b[i*3+1] = hex[v&0x0F]
	}
	return string(b[:])
}

// AddrFromBytes copies a stored 6-byte record into an Addr.
func AddrFromBytes(b []byte) (Addr, error) {
	var a Addr
	if len(b) != AddrLen {
		return a, errcode.InvalidFrame
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddr reads the AA:BB:CC:DD:EE:FF form produced by Addr.String.
func ParseAddr(s string) (Addr, error) {
	var a Addr
	if len(s) != AddrLen*3-1 {
		return a, errcode.InvalidFrame
	}
	for i := 0; i < AddrLen; i++ {
		if i > 0 && s[i*3-1] != ':' {
			return a, errcode.InvalidFrame
		}
		hi, ok1 := nibble(s[i*3])
		lo, ok2 := nibble(s[i*3+1])
		if !ok1 || !ok2 {
			return a, errcode.InvalidFrame
		}
		a[i] = hi<<4 | lo
	}
	return a, nil
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// RecvFunc is invoked by the transport for every incoming frame. It may run
// at any point relative to the scheduler loop, including right after a
// resume, and must only do bounded work (decode + mailbox writes).
type RecvFunc func(from Addr, payload []byte)

// Radio is the link-layer surface consumed by the state machines.
//
// The contract mirrors ESP-NOW-style links: the channel is fixed at Init,
// a peer must be registered before unicast send to its address, and no
// radio state survives Deinit: after a low-power suspension the whole
// interface is brought up again from scratch.
type Radio interface {
	// Init brings the interface up on the given channel. Failure is fatal
	// to the node (errcode.TransportInit); there is no recovery below a
	// full restart.
	Init(channel uint8) error

	// Deinit tears the interface down. Peers and the receive callback do
	// not survive it.
	Deinit()

	// LocalAddr returns this node's hardware address.
	LocalAddr() Addr

	// OnReceive registers the receive callback. Valid until Deinit.
	OnReceive(fn RecvFunc)

	// Send unicasts payload to a registered peer. errcode.PeerMissing when
	// the address is not registered, errcode.SendFailed otherwise.
	Send(to Addr, payload []byte) error

	AddPeer(a Addr) error
	DelPeer(a Addr) error
	HasPeer(a Addr) bool
}
