// Package simnet is an in-memory rendition of the transport contract for
// host-side tests and the link simulator. Frames are delivered synchronously
// from the sender's goroutine, which exercises the "callback can interleave
// with any poll" property for free.
package simnet

import (
	"sync"

	"lightlink-go/errcode"
	"lightlink-go/transport"
)

// DropFunc decides whether a frame is lost on the air.
type DropFunc func(from, to transport.Addr, payload []byte) bool

// Net is a shared medium connecting Nodes by address.
type Net struct {
	mu    sync.Mutex
	nodes map[transport.Addr]*Node
	drop  DropFunc
}

func New() *Net {
	return &Net{nodes: map[transport.Addr]*Node{}}
}

// SetDrop installs a loss model. nil means lossless.
func (n *Net) SetDrop(fn DropFunc) {
	n.mu.Lock()
	n.drop = fn
	n.mu.Unlock()
}

// Node attaches (or returns) the node with the given hardware address.
func (n *Net) Node(addr transport.Addr) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if nd, ok := n.nodes[addr]; ok {
		return nd
	}
	nd := &Node{net: n, addr: addr}
	n.nodes[addr] = nd
	return nd
}

// Sent is one frame handed to the air, kept for test assertions.
type Sent struct {
	To      transport.Addr
	Payload []byte
}

// Node implements transport.Radio over the shared medium.
type Node struct {
	net  *Net
	addr transport.Addr

	mu      sync.Mutex
	up      bool
	channel uint8
	recv    transport.RecvFunc
	peers   map[transport.Addr]bool

	inits int
	sent  []Sent

	// Failure injection: each counts down per failed call.
	failInit    int
	failAddPeer int
	failSend    int
}

var _ transport.Radio = (*Node)(nil)

func (d *Node) Init(channel uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failInit > 0 {
		d.failInit--
		return errcode.TransportInit
	}
	d.up = true
	d.channel = channel
	d.peers = map[transport.Addr]bool{}
	d.inits++
	return nil
}

func (d *Node) Deinit() {
	d.mu.Lock()
	d.up = false
	d.recv = nil
	d.peers = nil
	d.mu.Unlock()
}

func (d *Node) LocalAddr() transport.Addr { return d.addr }

func (d *Node) OnReceive(fn transport.RecvFunc) {
	d.mu.Lock()
	d.recv = fn
	d.mu.Unlock()
}

func (d *Node) AddPeer(a transport.Addr) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.up {
		return errcode.TransportInit
	}
	if d.failAddPeer > 0 {
		d.failAddPeer--
		return errcode.PeerAdd
	}
	d.peers[a] = true
	return nil
}

func (d *Node) DelPeer(a transport.Addr) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.peers != nil {
		delete(d.peers, a)
	}
	return nil
}

func (d *Node) HasPeer(a transport.Addr) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.peers[a]
}

func (d *Node) Send(to transport.Addr, payload []byte) error {
	d.mu.Lock()
	if !d.up {
		d.mu.Unlock()
		return errcode.SendFailed
	}
	if !d.peers[to] {
		d.mu.Unlock()
		return errcode.PeerMissing
	}
	if d.failSend > 0 {
		d.failSend--
		d.mu.Unlock()
		return errcode.SendFailed
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	d.sent = append(d.sent, Sent{To: to, Payload: cp})
	ch := d.channel
	d.mu.Unlock()

	d.net.deliver(d.addr, to, ch, cp)
	return nil
}

// deliver hands a frame to the destination's callback, if it is up, tuned
// to the same channel, and the loss model lets the frame through. Receiving
// never requires the sender to be registered at the destination.
func (n *Net) deliver(from, to transport.Addr, channel uint8, payload []byte) {
	n.mu.Lock()
	dst := n.nodes[to]
	drop := n.drop
	n.mu.Unlock()
	if dst == nil {
		return
	}
	if drop != nil && drop(from, to, payload) {
		return
	}

	dst.mu.Lock()
	fn := dst.recv
	ok := dst.up && dst.channel == channel
	dst.mu.Unlock()
	if ok && fn != nil {
		fn(from, payload)
	}
}

// -----------------------------------------------------------------------------
// Test hooks
// -----------------------------------------------------------------------------

// FailInit makes the next n Init calls fail.
func (d *Node) FailInit(n int) { d.mu.Lock(); d.failInit = n; d.mu.Unlock() }

// FailAddPeer makes the next n AddPeer calls fail.
func (d *Node) FailAddPeer(n int) { d.mu.Lock(); d.failAddPeer = n; d.mu.Unlock() }

// FailSend makes the next n Send calls fail after peer checks.
func (d *Node) FailSend(n int) { d.mu.Lock(); d.failSend = n; d.mu.Unlock() }

// Inits returns how many times the interface was brought up.
func (d *Node) Inits() int { d.mu.Lock(); defer d.mu.Unlock(); return d.inits }

// SentFrames returns a copy of every frame handed to the air.
func (d *Node) SentFrames() []Sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Sent, len(d.sent))
	copy(out, d.sent)
	return out
}

// ClearSent resets the sent-frame record.
func (d *Node) ClearSent() { d.mu.Lock(); d.sent = nil; d.mu.Unlock() }
