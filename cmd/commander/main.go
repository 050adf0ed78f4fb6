//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	"lightlink-go/commander"
	"lightlink-go/config"
	"lightlink-go/drivers/nrf24"
	"lightlink-go/sched"
	"lightlink-go/transport"
	"lightlink-go/transport/nrf24link"
)

// This node's hardware address. The indicator's address lives in the
// embedded config.
var localAddr = transport.Addr{0x24, 0x6F, 0x28, 0x00, 0x00, 0x01}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot: commander")

	cfg, err := config.LoadCommander()
	if err != nil {
		println("Error: config:", err.Error())
		restart()
	}

	radio := nrf24link.New(newRadioChip(), localAddr)
	if err := radio.Init(cfg.Channel); err != nil {
		// No recovery path below a full restart.
		println("Error: transport init failed:", err.Error())
		restart()
	}
	println("Info: device address:", localAddr.String())
	println("Info: operating on channel", cfg.Channel)
	println("Info: target indicator:", cfg.IndicatorAddr.String())

	d := commander.New(radio, cfg.IndicatorAddr, commander.Config{
		Outputs:         cfg.Outputs,
		RetryIntervalMs: cfg.RetryIntervalMs,
		RetryCeiling:    cfg.RetryCeiling,
		HoldMs:          cfg.HoldMs,
		Strict:          cfg.StrictAck,
	})
	d.Bind()

	r := sched.NewRunner(sched.WallClock{})
	r.Add(radio) // rx poll stands in for the receive interrupt
	r.Add(d)
	r.Run(context.Background())
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

func restart() {
	time.Sleep(3 * time.Second)
	machine.CPUReset()
}
