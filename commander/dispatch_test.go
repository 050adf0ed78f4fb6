package commander

import (
	"testing"

	"lightlink-go/transport"
	"lightlink-go/transport/simnet"
	"lightlink-go/wire"
)

var (
	addrC = transport.Addr{0x24, 0x6F, 0x28, 0x00, 0x00, 0x01}
	addrI = transport.Addr{0xE8, 0x31, 0xCD, 0xC6, 0xFE, 0x68}
)

func pair(t *testing.T) (*simnet.Net, *simnet.Node, *simnet.Node) {
	t.Helper()
	net := simnet.New()
	c, i := net.Node(addrC), net.Node(addrI)
	if err := c.Init(6); err != nil {
		t.Fatal(err)
	}
	if err := i.Init(6); err != nil {
		t.Fatal(err)
	}
	return net, c, i
}

func commands(frames []simnet.Sent) []wire.Message {
	var out []wire.Message
	for _, f := range frames {
		if m, err := wire.Decode(f.Payload); err == nil && m.Kind == wire.KindCommand {
			out = append(out, m)
		}
	}
	return out
}

// No acknowledgment ever arrives. Exactly 12 Command(0)
// frames at ~500ms spacing, then advance to index 1 without acked=true.
func TestForceAdvanceAfterRetryCeiling(t *testing.T) {
	_, c, _ := pair(t)
	d := New(c, addrI, Config{RetryIntervalMs: 500, RetryCeiling: 12})
	d.Bind()

	var sendTimes []int64
	now := int64(1000)
	for d.Index() == 0 {
		before := len(c.SentFrames())
		d.Poll(now)
		if len(c.SentFrames()) > before {
			sendTimes = append(sendTimes, now)
		}
		now += 10
		if now > 60_000 {
			t.Fatal("commander never advanced")
		}
	}

	cmds := commands(c.SentFrames())
	if len(cmds) != 12 {
		t.Fatalf("sent %d commands, want 12", len(cmds))
	}
	for i, m := range cmds {
		if m.Value != 0 {
			t.Fatalf("command %d carried index %d", i, m.Value)
		}
	}
	for i := 1; i < len(sendTimes); i++ {
		if dt := sendTimes[i] - sendTimes[i-1]; dt != 500 {
			t.Errorf("gap %d between sends %d and %d", dt, i-1, i)
		}
	}
	if d.Acked() {
		t.Error("force-advance must not report acknowledged")
	}
	if d.Index() != 1 {
		t.Errorf("index = %d, want 1", d.Index())
	}
}

func TestAckStopsRetriesAndHoldsThenAdvances(t *testing.T) {
	_, c, i := pair(t)
	// Indicator stand-in: acks every command once.
	i.AddPeer(addrC)
	i.OnReceive(func(from transport.Addr, payload []byte) {
		if m, err := wire.Decode(payload); err == nil && m.Kind == wire.KindCommand {
			b := wire.Encode(wire.Message{Kind: wire.KindAck, Value: m.Value})
			i.Send(from, b[:])
		}
	})

	d := New(c, addrI, Config{RetryIntervalMs: 500, HoldMs: 10000})
	d.Bind()

	now := int64(1000)
	var ackedAt int64
	for ackedAt == 0 {
		d.Poll(now)
		if d.Acked() {
			ackedAt = now
		}
		now += 10
		if now > 10_000 {
			t.Fatal("never acknowledged")
		}
	}
	sent := len(commands(c.SentFrames()))
	if sent == 0 || sent > 2 {
		t.Fatalf("sent %d commands before ack", sent)
	}

	// Holds for HoldMs, sending nothing, then advances and re-registers.
	for now < ackedAt+9990 {
		d.Poll(now)
		now += 10
	}
	if got := len(commands(c.SentFrames())); got != sent {
		t.Fatalf("sent %d more commands during hold", got-sent)
	}
	if d.Index() != 0 {
		t.Fatal("advanced during hold")
	}
	for d.Index() == 0 {
		d.Poll(now)
		now += 10
		if now > ackedAt+12_000 {
			t.Fatal("never advanced after hold")
		}
	}
	if d.Acked() {
		t.Error("acked not reset on advance")
	}
	// The advance invalidated the peer record to force re-registration.
	for n := 0; n < 5 && !c.HasPeer(addrI); n++ {
		d.Poll(now)
		now += 10
	}
	if !c.HasPeer(addrI) {
		t.Error("peer not re-registered after advance")
	}
}

func TestStrictModeIgnoresMismatchedAck(t *testing.T) {
	_, c, i := pair(t)
	i.AddPeer(addrC)
	i.OnReceive(func(from transport.Addr, payload []byte) {
		// Always echo a stale index.
		b := wire.Encode(wire.Message{Kind: wire.KindAck, Value: 7})
		i.Send(from, b[:])
	})

	strict := New(c, addrI, Config{Strict: true})
	strict.Bind()
	now := int64(1000)
	for n := 0; n < 200; n++ {
		strict.Poll(now)
		now += 10
	}
	if strict.Acked() {
		t.Fatal("strict dispatch accepted a mismatched ack")
	}

	// Permissive default: the same stale ack confirms. Known looseness,
	// kept deliberately.
	loose := New(c, addrI, Config{})
	loose.Bind()
	now += 500
	for n := 0; n < 50 && !loose.Acked(); n++ {
		loose.Poll(now)
		now += 10
	}
	if !loose.Acked() {
		t.Fatal("permissive dispatch rejected an ack")
	}
}

func TestSendFailureWithMissingPeerForcesReRegistration(t *testing.T) {
	_, c, _ := pair(t)
	d := New(c, addrI, Config{RetryIntervalMs: 100})
	d.Bind()

	now := int64(1000)
	for n := 0; n < 10 && len(c.SentFrames()) == 0; n++ {
		d.Poll(now)
		now += 10
	}
	if len(c.SentFrames()) == 0 {
		t.Fatal("no initial send")
	}

	// Simulate the transport losing the record behind our back.
	c.DelPeer(addrI)
	before := len(c.SentFrames())
	for n := 0; n < 100 && len(c.SentFrames()) == before; n++ {
		d.Poll(now)
		now += 10
	}
	if !c.HasPeer(addrI) {
		t.Error("peer not repaired after send failure")
	}
	if len(c.SentFrames()) == before {
		t.Error("sending never resumed")
	}
}
