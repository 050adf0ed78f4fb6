package peer

import (
	"testing"

	"lightlink-go/transport"
	"lightlink-go/transport/simnet"
)

var (
	addrA = transport.Addr{0xE8, 0x31, 0xCD, 0xC6, 0xFE, 0x68}
	addrB = transport.Addr{0x24, 0x6F, 0x28, 0x00, 0x00, 0x01}
)

func node(t *testing.T) *simnet.Node {
	t.Helper()
	n := simnet.New().Node(transport.Addr{1})
	if err := n.Init(6); err != nil {
		t.Fatal(err)
	}
	return n
}

// drive polls until terminal, bounding the tick count.
func drive(t *testing.T, e *Ensure, ticks int) int64 {
	t.Helper()
	now := int64(1000)
	for i := 0; i < ticks; i++ {
		if e.Poll(now) {
			return now
		}
		now += 10
	}
	t.Fatalf("ensure not done after %d ticks", ticks)
	return now
}

func TestEnsureRegistersAndIsIdempotent(t *testing.T) {
	n := node(t)
	e := NewEnsure(n, addrA, transport.Addr{}, Config{})
	drive(t, e, 5)
	if !e.OK() || !n.HasPeer(addrA) {
		t.Fatal("peer not registered")
	}

	// Second run with the same address: immediate no-op success.
	e2 := NewEnsure(n, addrA, transport.Addr{}, Config{})
	if !e2.Poll(1000) || !e2.OK() {
		t.Fatal("re-ensure was not a one-tick no-op")
	}
}

func TestEnsureReplacesStalePeer(t *testing.T) {
	n := node(t)
	drive(t, NewEnsure(n, addrA, transport.Addr{}, Config{}), 5)

	drive(t, NewEnsure(n, addrB, addrA, Config{}), 5)
	if n.HasPeer(addrA) {
		t.Error("stale peer survived replacement")
	}
	if !n.HasPeer(addrB) {
		t.Error("new peer missing")
	}
}

func TestEnsureRetriesWithDelay(t *testing.T) {
	n := node(t)
	n.FailAddPeer(2) // first attempt fails both the add and its immediate retry
	e := NewEnsure(n, addrA, transport.Addr{}, Config{RetryDelayMs: 500})

	now := int64(1000)
	e.Poll(now) // Init -> Attempting
	e.Poll(now) // attempt 1 fails -> RetryWait
	if e.Done() {
		t.Fatal("done despite add failure")
	}
	e.Poll(now + 490)
	if e.Done() {
		t.Fatal("retried before the delay elapsed")
	}
	e.Poll(now + 500) // RetryWait -> Attempting
	e.Poll(now + 500) // attempt 2 succeeds
	if !e.Done() || !e.OK() {
		t.Fatal("peer not registered after retry window")
	}
}

func TestEnsureGivesUpAfterBoundedAttempts(t *testing.T) {
	n := node(t)
	n.FailAddPeer(100)
	e := NewEnsure(n, addrA, transport.Addr{}, Config{MaxAttempts: 3, RetryDelayMs: 10})

	now := drive(t, e, 50)
	if e.OK() {
		t.Fatal("reported success with a dead transport")
	}
	_ = now
}

func TestEnsurePersistentNeverGivesUp(t *testing.T) {
	n := node(t)
	n.FailAddPeer(10) // 5 attempts' worth of failures
	e := NewEnsure(n, addrA, transport.Addr{}, Config{MaxAttempts: 3, RetryDelayMs: 10, Persistent: true})

	now := int64(1000)
	for i := 0; i < 200 && !e.Poll(now); i++ {
		now += 10
	}
	if !e.Done() || !e.OK() {
		t.Fatal("persistent ensure should outlast transient failures")
	}
}
