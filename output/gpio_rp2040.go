//go:build rp2040

package output

import "machine"

// GPIO drives the bank on active-low GPIO pins, matching the board wiring.
// The RP2040 output latches keep their level through our timer doze, so
// Hold only needs to mask Set calls until Release.
type GPIO struct {
	pins []machine.Pin
	held []bool
}

var _ Bank = (*GPIO)(nil)

// NewGPIO configures the pins as outputs, all off.
func NewGPIO(pins []machine.Pin) *GPIO {
	g := &GPIO{pins: pins, held: make([]bool, len(pins))}
	for _, p := range pins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.High() // active low: off
	}
	return g
}

func (g *GPIO) Count() int { return len(g.pins) }

func (g *GPIO) Set(idx int, on bool) {
	if idx < 0 || idx >= len(g.pins) || g.held[idx] {
		return
	}
	if on {
		g.pins[idx].Low()
	} else {
		g.pins[idx].High()
	}
}

func (g *GPIO) Hold(idx int) {
	if idx >= 0 && idx < len(g.held) {
		g.held[idx] = true
	}
}

func (g *GPIO) Release(idx int) {
	if idx >= 0 && idx < len(g.held) {
		g.held[idx] = false
	}
}
