package simnet

import (
	"testing"

	"lightlink-go/errcode"
	"lightlink-go/transport"
)

var (
	addrA = transport.Addr{0xE8, 0x31, 0xCD, 0xC6, 0xFE, 0x68}
	addrB = transport.Addr{0x24, 0x6F, 0x28, 0x00, 0x00, 0x01}
)

func TestDeliveryRequiresPeerAtSender(t *testing.T) {
	net := New()
	a, b := net.Node(addrA), net.Node(addrB)
	if err := a.Init(6); err != nil {
		t.Fatal(err)
	}
	if err := b.Init(6); err != nil {
		t.Fatal(err)
	}

	var got []byte
	b.OnReceive(func(from transport.Addr, payload []byte) {
		if from != addrA {
			t.Errorf("sender address %v", from)
		}
		got = append([]byte{}, payload...)
	})

	if err := a.Send(addrB, []byte{1, 0}); errcode.Of(err) != errcode.PeerMissing {
		t.Fatalf("expected peer_missing, got %v", err)
	}
	if err := a.AddPeer(addrB); err != nil {
		t.Fatal(err)
	}
	if err := a.Send(addrB, []byte{1, 0}); err != nil {
		t.Fatal(err)
	}
	if got == nil || got[0] != 1 {
		t.Fatalf("frame not delivered: %v", got)
	}
}

func TestChannelMismatchDropsFrames(t *testing.T) {
	net := New()
	a, b := net.Node(addrA), net.Node(addrB)
	a.Init(6)
	b.Init(1)
	a.AddPeer(addrB)
	delivered := false
	b.OnReceive(func(transport.Addr, []byte) { delivered = true })

	if err := a.Send(addrB, []byte{3, 0}); err != nil {
		t.Fatal(err)
	}
	if delivered {
		t.Error("frame crossed channels")
	}
}

func TestLossModelAndFailureInjection(t *testing.T) {
	net := New()
	a, b := net.Node(addrA), net.Node(addrB)
	a.Init(6)
	b.Init(6)
	a.AddPeer(addrB)
	n := 0
	b.OnReceive(func(transport.Addr, []byte) { n++ })

	net.SetDrop(func(from, to transport.Addr, payload []byte) bool { return true })
	a.Send(addrB, []byte{1, 0})
	net.SetDrop(nil)
	a.Send(addrB, []byte{1, 0})
	if n != 1 {
		t.Fatalf("deliveries = %d, want 1", n)
	}

	a.FailSend(1)
	if err := a.Send(addrB, []byte{1, 0}); errcode.Of(err) != errcode.SendFailed {
		t.Errorf("expected send_failed, got %v", err)
	}
	a.FailAddPeer(1)
	if err := a.AddPeer(addrB); errcode.Of(err) != errcode.PeerAdd {
		t.Errorf("expected peer_add, got %v", err)
	}
}

func TestDeinitDropsStateAndStopsDelivery(t *testing.T) {
	net := New()
	a, b := net.Node(addrA), net.Node(addrB)
	a.Init(6)
	b.Init(6)
	a.AddPeer(addrB)
	b.OnReceive(func(transport.Addr, []byte) { t.Error("delivered after Deinit") })

	b.Deinit()
	a.Send(addrB, []byte{1, 0})

	// Bringing the interface back starts from scratch: no callback, no peers.
	if err := b.Init(6); err != nil {
		t.Fatal(err)
	}
	if b.HasPeer(addrA) {
		t.Error("peer survived Deinit")
	}
	if b.Inits() != 2 {
		t.Errorf("inits = %d, want 2", b.Inits())
	}
}

func TestAddrString(t *testing.T) {
	if s := addrA.String(); s != "E8:31:CD:C6:FE:68" {
		t.Errorf("got %q", s)
	}
	if !(transport.Addr{}).IsZero() || addrA.IsZero() {
		t.Error("IsZero misbehaves")
	}
}
