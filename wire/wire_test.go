package wire

import (
	"testing"

	"lightlink-go/errcode"
)

func TestEncodeDecode(t *testing.T) {
	in := Message{Kind: KindCommand, Value: 2}
	b := Encode(in)
	if b[0] != 1 || b[1] != 2 {
		t.Fatalf("unexpected encoding: %v", b)
	}
	out, err := Decode(b[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	for _, b := range [][]byte{nil, {1}, {1, 2, 3}} {
		if _, err := Decode(b); errcode.Of(err) != errcode.InvalidFrame {
			t.Errorf("len %d: expected invalid_frame, got %v", len(b), err)
		}
	}
}

func TestDecodeAcceptsUnknownKind(t *testing.T) {
	// Unknown kinds pass decode; the consumer is responsible for dropping.
	m, err := Decode([]byte{9, 0})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Kind.Known() {
		t.Errorf("kind 9 reported as known")
	}
	if m.Kind.String() != "unknown" {
		t.Errorf("got %q", m.Kind.String())
	}
}

func TestWireCodes(t *testing.T) {
	// On-air codes are fixed by the deployed fleet.
	if KindCommand != 1 || KindAck != 2 || KindDiscovery != 3 {
		t.Fatal("wire codes renumbered")
	}
}
