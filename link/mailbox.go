// Package link holds the pieces shared by both role libraries: the
// callback-to-scheduler mailbox and the non-blocking wait primitive every
// state machine expresses its delays with.
package link

import (
	"sync"

	"lightlink-go/transport"
	"lightlink-go/wire"
)

// Event is one decoded inbound frame with its sender.
type Event struct {
	From transport.Addr
	Msg  wire.Message
}

// Mailbox is the single hand-off point between the transport receive
// callback (producer) and the scheduler-polled machines (consumer). It
// holds at most one pending event (a newer frame overwrites an unconsumed
// one) plus the always-current last sender address. The mutex is the Go
// rendition of the single-writer ordering the target hardware relies on;
// no partial multi-field update is ever visible to the poll side.
type Mailbox struct {
	mu       sync.Mutex
	ev       Event
	full     bool
	lastFrom transport.Addr
}

// Post is called from the receive callback only.
func (m *Mailbox) Post(from transport.Addr, msg wire.Message) {
	m.mu.Lock()
	m.lastFrom = from
	m.ev = Event{From: from, Msg: msg}
	m.full = true
	m.mu.Unlock()
}

// Take consumes the pending event, if any. Poll side only.
func (m *Mailbox) Take() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return Event{}, false
	}
	m.full = false
	return m.ev, true
}

// LastSender returns the most recent sender address, zero if none yet.
func (m *Mailbox) LastSender() transport.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFrom
}
