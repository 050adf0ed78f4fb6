// Command linksim runs both roles against the in-memory transport with a
// configurable loss model, on a virtual clock. It answers "does the retry
// budget survive this link" without flashing any hardware.
//
//	linksim [scenario.yaml]
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"lightlink-go/commander"
	"lightlink-go/indicator"
	"lightlink-go/output"
	"lightlink-go/sched"
	"lightlink-go/store"
	"lightlink-go/transport"
	"lightlink-go/transport/simnet"
	"lightlink-go/wire"
)

type scenario struct {
	DurationS       int     `yaml:"duration_s"`
	Loss            float64 `yaml:"loss"`
	Seed            int64   `yaml:"seed"`
	RetryIntervalMs int64   `yaml:"retry_interval_ms"`
	RetryCeiling    int     `yaml:"retry_ceiling"`
	HoldMs          int64   `yaml:"hold_ms"`
	SleepMs         int64   `yaml:"sleep_ms"`
	AwakeMs         int64   `yaml:"awake_ms"`
	MaxSleepCycles  int     `yaml:"max_sleep_cycles"`
	StrictAck       bool    `yaml:"strict_ack"`
}

func defaults() scenario {
	return scenario{DurationS: 60, Loss: 0.3, Seed: 1}
}

func loadScenario(path string) (scenario, error) {
	s := defaults()
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, err
	}
	return s, nil
}

const stepMs = 10

var (
	addrCommander = transport.Addr{0x24, 0x6F, 0x28, 0x00, 0x00, 0x01}
	addrIndicator = transport.Addr{0xE8, 0x31, 0xCD, 0xC6, 0xFE, 0x68}
)

func main() {
	flag.Parse()
	sc, err := loadScenario(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "linksim:", err)
		os.Exit(1)
	}

	net := simnet.New()
	rng := rand.New(rand.NewSource(sc.Seed))
	var dropped int
	net.SetDrop(func(from, to transport.Addr, payload []byte) bool {
		if rng.Float64() < sc.Loss {
			dropped++
			return true
		}
		return false
	})

	cNode := net.Node(addrCommander)
	iNode := net.Node(addrIndicator)
	clk := sched.NewFakeClock(0)

	if err := cNode.Init(6); err != nil {
		fmt.Fprintln(os.Stderr, "linksim:", err)
		os.Exit(1)
	}
	cmd := commander.New(cNode, addrIndicator, commander.Config{
		RetryIntervalMs: sc.RetryIntervalMs,
		RetryCeiling:    sc.RetryCeiling,
		HoldMs:          sc.HoldMs,
		Strict:          sc.StrictAck,
	})
	cmd.Bind()

	// The indicator's sleep suspends only that node. The commander keeps
	// running, so the suspend hook drives its polls while the clock
	// advances through the sleep window, with the sleeping radio down.
	suspend := func(ms int64) int64 {
		iNode.Deinit()
		end := clk.NowMs() + ms
		for clk.NowMs() < end {
			cmd.Poll(clk.NowMs())
			clk.AdvanceMs(stepMs)
		}
		return clk.NowMs()
	}

	bank := output.NewSim(3)
	ind := indicator.New(iNode, bank, store.NewMem(), clk, suspend, indicator.Config{
		AwakeMs:        sc.AwakeMs,
		SleepMs:        sc.SleepMs,
		MaxSleepCycles: sc.MaxSleepCycles,
	})
	if err := ind.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "linksim:", err)
		os.Exit(1)
	}

	endMs := int64(sc.DurationS) * 1000
	for clk.NowMs() < endMs {
		cmd.Poll(clk.NowMs())
		ind.Poll(clk.NowMs())
		clk.AdvanceMs(stepMs)
	}

	report(sc, cmd, ind, cNode, iNode, dropped)
}

func report(sc scenario, cmd *commander.Dispatch, ind *indicator.Indicator, cNode, iNode *simnet.Node, dropped int) {
	commands := countKind(cNode.SentFrames(), wire.KindCommand)
	acks := countKind(iNode.SentFrames(), wire.KindAck)
	discoveries := countKind(iNode.SentFrames(), wire.KindDiscovery)

	fmt.Printf("duration      %ds  loss %.0f%%  seed %d\n", sc.DurationS, sc.Loss*100, sc.Seed)
	fmt.Printf("commands sent %d\n", commands)
	fmt.Printf("acks sent     %d\n", acks)
	fmt.Printf("discoveries   %d\n", discoveries)
	fmt.Printf("frames lost   %d\n", dropped)
	fmt.Printf("commander at index %d, acked=%v\n", cmd.Index(), cmd.Acked())
	fmt.Printf("indicator active=%d, sleep cycles=%d, extended=%v\n",
		ind.Active(), ind.SleepCycles(), ind.Extended())
}

func countKind(sent []simnet.Sent, k wire.Kind) int {
	n := 0
	for _, s := range sent {
		if m, err := wire.Decode(s.Payload); err == nil && m.Kind == k {
			n++
		}
	}
	return n
}
