package nrf24link

import (
	"testing"

	"lightlink-go/drivers/nrf24"
	"lightlink-go/errcode"
	"lightlink-go/transport"
)

var (
	addrA = transport.Addr{0x24, 0x6F, 0x28, 0x00, 0x00, 0x01}
	addrB = transport.Addr{0xE8, 0x31, 0xCD, 0xC6, 0xFE, 0x68}
)

// fakeChip emulates the register and FIFO traffic the link generates.
type fakeChip struct {
	regs map[uint8][]byte
	rx   [][]byte // queued air packets
	tx   [][]byte // transmitted air packets
}

func newFakeChip() *fakeChip { return &fakeChip{regs: map[uint8][]byte{}} }

func (f *fakeChip) Transfer(b byte) (byte, error) { return 0, nil }

func (f *fakeChip) Tx(w, r []byte) error {
	cmd := w[0]
	switch {
	case cmd == 0xFF && len(w) == 1: // NOP status poll: report TX done
		r[0] = 0x20
	case cmd == 0xA0: // W_TX_PAYLOAD
		f.tx = append(f.tx, append([]byte{}, w[1:]...))
	case cmd == 0x61: // R_RX_PAYLOAD
		if len(f.rx) > 0 {
			copy(r[1:], f.rx[0])
			f.rx = f.rx[1:]
		}
	case cmd&0xE0 == 0x20: // W_REGISTER
		f.regs[cmd&0x1F] = append([]byte{}, w[1:]...)
	case cmd&0xE0 == 0x00: // R_REGISTER
		reg := cmd & 0x1F
		if reg == 0x17 { // FIFO_STATUS
			if len(f.rx) == 0 {
				r[1] = 0x01 // RX empty
			}
			return nil
		}
		if v, ok := f.regs[reg]; ok {
			copy(r[1:], v)
		}
	}
	return nil
}

func (f *fakeChip) queue(dst, src transport.Addr, frame []byte) {
	pkt := make([]byte, airSize)
	copy(pkt[0:], dst[:])
	copy(pkt[transport.AddrLen:], src[:])
	copy(pkt[frameOff:], frame)
	f.rx = append(f.rx, pkt)
}

func newLink(t *testing.T) (*Link, *fakeChip) {
	t.Helper()
	chip := newFakeChip()
	pin := func(bool) {}
	l := New(nrf24.New(chip, pin, pin), addrA)
	if err := l.Init(6); err != nil {
		t.Fatal(err)
	}
	return l, chip
}

func TestSendRequiresRegisteredPeer(t *testing.T) {
	l, chip := newLink(t)
	if err := l.Send(addrB, []byte{1, 0}); errcode.Of(err) != errcode.PeerMissing {
		t.Fatalf("unregistered send: %v", err)
	}
	if err := l.AddPeer(addrB); err != nil {
		t.Fatal(err)
	}
	if err := l.Send(addrB, []byte{1, 0}); err != nil {
		t.Fatal(err)
	}
	if len(chip.tx) != 1 {
		t.Fatalf("%d air packets", len(chip.tx))
	}
	pkt := chip.tx[0]
	if transport.Addr(pkt[0:6]) != addrB || transport.Addr(pkt[6:12]) != addrA {
		t.Errorf("air addressing wrong: %v", pkt)
	}
	if pkt[frameOff] != 1 || pkt[frameOff+1] != 0 {
		t.Errorf("frame bytes wrong: %v", pkt)
	}
}

func TestPollFiltersByDestination(t *testing.T) {
	l, chip := newLink(t)
	var got [][]byte
	var from []transport.Addr
	l.OnReceive(func(f transport.Addr, payload []byte) {
		from = append(from, f)
		got = append(got, append([]byte{}, payload...))
	})

	chip.queue(addrA, addrB, []byte{2, 1}) // ours
	chip.queue(addrB, addrA, []byte{1, 0}) // someone else's
	l.Poll(0)

	if len(got) != 1 {
		t.Fatalf("delivered %d frames, want 1", len(got))
	}
	if from[0] != addrB || got[0][0] != 2 || got[0][1] != 1 {
		t.Errorf("from %v payload %v", from[0], got[0])
	}
}

func TestDeinitGatesEverything(t *testing.T) {
	l, chip := newLink(t)
	l.AddPeer(addrB)
	l.OnReceive(func(transport.Addr, []byte) { t.Error("delivered while down") })
	l.Deinit()

	if err := l.Send(addrB, []byte{1, 0}); errcode.Of(err) != errcode.SendFailed {
		t.Errorf("send while down: %v", err)
	}
	chip.queue(addrA, addrB, []byte{1, 0})
	l.Poll(0)

	if err := l.Init(6); err != nil {
		t.Fatal(err)
	}
	if l.HasPeer(addrB) {
		t.Error("peer survived rebuild")
	}
}

func TestSendRejectsWrongFrameSize(t *testing.T) {
	l, _ := newLink(t)
	l.AddPeer(addrB)
	if err := l.Send(addrB, []byte{1, 2, 3}); errcode.Of(err) != errcode.InvalidFrame {
		t.Errorf("oversize frame: %v", err)
	}
}
