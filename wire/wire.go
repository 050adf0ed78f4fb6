// Package wire implements the 2-byte frame format shared by both roles.
//
// Layout: kind(1) | value(1). Value carries the output index for Command
// and Acknowledgment frames and is unused for Discovery. Any frame of a
// different length is noise and refused by Decode; unknown kinds decode
// fine and are dropped by the consumer.
package wire

import "lightlink-go/errcode"

// FrameSize is the exact on-air frame length. Numeric codes must match
// across both roles and must not be renumbered.
const FrameSize = 2

// Kind identifies the message kind carried in byte 0.
type Kind uint8

const (
	KindCommand   Kind = 1
	KindAck       Kind = 2
	KindDiscovery Kind = 3
)

// Known reports whether k is a kind this protocol version understands.
func (k Kind) Known() bool { return k >= KindCommand && k <= KindDiscovery }

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindAck:
		return "ack"
	case KindDiscovery:
		return "discovery"
	}
	return "unknown"
}

// Message is a decoded frame.
type Message struct {
	Kind  Kind
	Value uint8
}

// Encode packs m into its on-air representation.
func Encode(m Message) [FrameSize]byte {
	return [FrameSize]byte{byte(m.Kind), m.Value}
}

// Decode unpacks a received frame. Length is the only validation done
// here; kind checking belongs to the consumer.
func Decode(b []byte) (Message, error) {
	if len(b) != FrameSize {
		return Message{}, errcode.InvalidFrame
	}
	return Message{Kind: Kind(b[0]), Value: b[1]}, nil
}
