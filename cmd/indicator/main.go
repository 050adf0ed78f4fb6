//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"lightlink-go/config"
	"lightlink-go/drivers/nrf24"
	"lightlink-go/indicator"
	"lightlink-go/output"
	"lightlink-go/sched"
	"lightlink-go/store"
	"lightlink-go/transport"
	"lightlink-go/transport/nrf24link"
	"lightlink-go/x/timex"
)

// This node's hardware address, matched by the commander's embedded config.
var localAddr = transport.Addr{0xE8, 0x31, 0xCD, 0xC6, 0xFE, 0x68}

func main() {
	time.Sleep(2 * time.Second)
	println("boot: indicator")

	cfg, err := config.LoadIndicator()
	if err != nil {
		println("Error: config:", err.Error())
		restart()
	}

	console := newConsole()
	writeln(console, "lightlink indicator")
	writeln(console, "addr "+localAddr.String())

	pins := make([]machine.Pin, len(cfg.Pins))
	for i, n := range cfg.Pins {
		pins[i] = machine.Pin(n)
	}
	bank := output.NewGPIO(pins)

	radio := nrf24link.New(newRadioChip(), localAddr)
	ind := indicator.New(radio, bank, store.NewMem(), sched.WallClock{}, doze, indicator.Config{
		Channel:        cfg.Channel,
		AckRedundancy:  cfg.AckRedundancy,
		AckSpacingMs:   cfg.AckSpacingMs,
		AwakeMs:        cfg.AwakeMs,
		SleepMs:        cfg.SleepMs,
		PostCommandMs:  cfg.PostCommandMs,
		ExtendedMs:     cfg.ExtendedMs,
		MaxSleepCycles: cfg.MaxSleepCycles,
	})
	if err := ind.Start(); err != nil {
		println("Error: start failed:", err.Error())
		restart()
	}
	writeln(console, "radio up, channel ready")

	r := sched.NewRunner(sched.WallClock{})
	r.Add(radio)
	r.Add(ind)
	r.Add(indicator.NewStatus(ind, cfg.StatusMs))
	r.Run(context.Background())
}

// doze is the sleep primitive. The rp2040 port has no ESP-style light
// sleep, so the same duty cycle is taken as a plain delay. Output pins
// keep their levels, which is the retention the role relies on.
func doze(ms int64) int64 {
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return timex.NowMs()
}

func newRadioChip() *nrf24.Device {
	spi := machine.SPI0
	_ = spi.Configure(machine.SPIConfig{
		Frequency: 8_000_000,
		SCK:       machine.GP2,
		SDO:       machine.GP3,
		SDI:       machine.GP4,
	})
	ce := machine.GP14
	csn := machine.GP13
	ce.Configure(machine.PinConfig{Mode: machine.PinOutput})
	csn.Configure(machine.PinConfig{Mode: machine.PinOutput})
	ce.Low()
	csn.High()
	return nrf24.New(spi, pinFunc(ce), pinFunc(csn))
}

func pinFunc(p machine.Pin) nrf24.PinFunc {
	return func(high bool) {
		if high {
			p.High()
		} else {
			p.Low()
		}
	}
}

// newConsole brings up the debug UART. Best effort, the role runs fine
// without a listener on the other end.
func newConsole() *uartx.UART {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	return u
}

func writeln(u *uartx.UART, s string) {
	_, _ = u.Write([]byte(s + "\r\n"))
}

func restart() {
	time.Sleep(3 * time.Second)
	machine.CPUReset()
}
