// Package nrf24 is a minimal driver for the nRF24L01+ 2.4GHz transceiver,
// covering exactly what the link layer needs: fixed-width payloads on one
// shared pipe, software-controlled CE/CSN, no auto-ack (the protocol above
// does its own acknowledgment).
//
// NOTE: SPI.Tx is used full-duplex. w and r always have equal length, and
// byte 0 of every exchange clocks the STATUS register back.
package nrf24

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// SPI commands.
const (
	cmdRRegister  = 0x00
	cmdWRegister  = 0x20
	cmdRRxPayload = 0x61
	cmdWTxPayload = 0xA0
	cmdFlushTx    = 0xE1
	cmdFlushRx    = 0xE2
	cmdNop        = 0xFF
)

// Registers.
const (
	regConfig     = 0x00
	regEnAA       = 0x01
	regEnRxAddr   = 0x02
	regSetupAW    = 0x03
	regSetupRetr  = 0x04
	regRFCh       = 0x05
	regRFSetup    = 0x06
	regStatus     = 0x07
	regRxAddrP0   = 0x0A
	regTxAddr     = 0x10
	regRxPwP0     = 0x11
	regFifoStatus = 0x17
)

// Bits.
const (
	bitPwrUp  = 0x02
	bitPrimRx = 0x01
	bitRxDR   = 0x40
	bitTxDS   = 0x20
	bitMaxRT  = 0x10

	fifoRxEmpty = 0x01
)

// Errors returned by the driver.
var (
	ErrTxTimeout = errors.New("nrf24: tx timeout")
	ErrNoData    = errors.New("nrf24: rx fifo empty")
	ErrBadParam  = errors.New("nrf24: bad parameter")
)

// PinFunc drives a GPIO line. The caller supplies CE and CSN control so the
// driver stays free of platform pin types.
type PinFunc func(high bool)

// Config selects channel and fixed payload width.
type Config struct {
	Channel     uint8 // RF channel 0..125
	PayloadSize uint8 // fixed width, 1..32 (default 16)
}

// Device wraps an SPI connection to one nRF24L01+.
type Device struct {
	bus drivers.SPI
	ce  PinFunc
	csn PinFunc
	cfg Config
}

func New(bus drivers.SPI, ce, csn PinFunc) *Device {
	return &Device{bus: bus, ce: ce, csn: csn}
}

// Configure powers the radio up in standby with auto-ack disabled and pipe
// 0 enabled at the fixed payload width.
func (d *Device) Configure(cfg Config) error {
	if cfg.PayloadSize == 0 {
		cfg.PayloadSize = 16
	}
	if cfg.PayloadSize > 32 || cfg.Channel > 125 {
		return ErrBadParam
	}
	d.cfg = cfg

	d.ce(false)
	time.Sleep(5 * time.Millisecond) // power-on settling

	steps := []struct{ reg, val uint8 }{
		{regEnAA, 0x00},      // protocol-level acks, not link-level
		{regEnRxAddr, 0x01},  // pipe 0 only
		{regSetupAW, 0x03},   // 5-byte addresses
		{regSetupRetr, 0x00}, // no auto-retransmit
		{regRFCh, cfg.Channel},
		{regRFSetup, 0x06}, // 1Mbps, 0dBm
		{regRxPwP0, cfg.PayloadSize},
		{regStatus, bitRxDR | bitTxDS | bitMaxRT}, // clear stale flags
		{regConfig, bitPwrUp},
	}
	for _, s := range steps {
		if err := d.writeReg(s.reg, s.val); err != nil {
			return err
		}
	}
	if err := d.command(cmdFlushTx); err != nil {
		return err
	}
	if err := d.command(cmdFlushRx); err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond) // standby settling
	return nil
}

// SetPipeAddress points both pipe 0 RX and TX at the shared 5-byte pipe.
func (d *Device) SetPipeAddress(addr []byte) error {
	if len(addr) != 5 {
		return ErrBadParam
	}
	if err := d.writeRegBytes(regRxAddrP0, addr); err != nil {
		return err
	}
	return d.writeRegBytes(regTxAddr, addr)
}

// StartListening enters PRX mode with CE held high.
func (d *Device) StartListening() error {
	if err := d.writeReg(regConfig, bitPwrUp|bitPrimRx); err != nil {
		return err
	}
	d.ce(true)
	time.Sleep(130 * time.Microsecond) // RX settling
	return nil
}

// Transmit sends one fixed-width payload and waits (bounded) for the chip
// to report completion, then returns to standby.
func (d *Device) Transmit(payload []byte) error {
	if len(payload) != int(d.cfg.PayloadSize) {
		return ErrBadParam
	}
	d.ce(false)
	if err := d.writeReg(regConfig, bitPwrUp); err != nil { // PTX
		return err
	}
	w := make([]byte, 1+len(payload))
	w[0] = cmdWTxPayload
	copy(w[1:], payload)
	if err := d.exchange(w, nil); err != nil {
		return err
	}

	// >10us CE pulse starts transmission.
	d.ce(true)
	time.Sleep(15 * time.Microsecond)
	d.ce(false)

	// One 16-byte payload at 1Mbps is well under a millisecond on air;
	// 2ms of polling bounds the wait.
	for i := 0; i < 20; i++ {
		st, err := d.status()
		if err != nil {
			return err
		}
		if st&(bitTxDS|bitMaxRT) != 0 {
			return d.writeReg(regStatus, bitTxDS|bitMaxRT)
		}
		time.Sleep(100 * time.Microsecond)
	}
	_ = d.command(cmdFlushTx)
	return ErrTxTimeout
}

// Available reports whether the RX FIFO holds a payload.
func (d *Device) Available() (bool, error) {
	v, err := d.readReg(regFifoStatus)
	if err != nil {
		return false, err
	}
	return v&fifoRxEmpty == 0, nil
}

// Receive pops one fixed-width payload into buf and clears the RX flag.
func (d *Device) Receive(buf []byte) (int, error) {
	if len(buf) < int(d.cfg.PayloadSize) {
		return 0, ErrBadParam
	}
	ok, err := d.Available()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNoData
	}
	n := int(d.cfg.PayloadSize)
	w := make([]byte, 1+n)
	r := make([]byte, 1+n)
	w[0] = cmdRRxPayload
	for i := 1; i <= n; i++ {
		w[i] = cmdNop
	}
	if err := d.exchange(w, r); err != nil {
		return 0, err
	}
	copy(buf, r[1:])
	if err := d.writeReg(regStatus, bitRxDR); err != nil {
		return 0, err
	}
	return n, nil
}

// PowerDown drops the chip into its lowest-power state.
func (d *Device) PowerDown() error {
	d.ce(false)
	return d.writeReg(regConfig, 0x00)
}

// -----------------------------------------------------------------------------
// Register access
// -----------------------------------------------------------------------------

func (d *Device) status() (uint8, error) {
	r := make([]byte, 1)
	if err := d.exchange([]byte{cmdNop}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (d *Device) readReg(reg uint8) (uint8, error) {
	r := make([]byte, 2)
	if err := d.exchange([]byte{cmdRRegister | reg, cmdNop}, r); err != nil {
		return 0, err
	}
	return r[1], nil
}

func (d *Device) writeReg(reg, val uint8) error {
	return d.exchange([]byte{cmdWRegister | reg, val}, nil)
}

func (d *Device) writeRegBytes(reg uint8, vals []byte) error {
	w := make([]byte, 1+len(vals))
	w[0] = cmdWRegister | reg
	copy(w[1:], vals)
	return d.exchange(w, nil)
}

func (d *Device) command(cmd uint8) error {
	return d.exchange([]byte{cmd}, nil)
}

// exchange runs one CSN-framed full-duplex transfer. r may be nil when the
// clocked-back bytes are not needed.
func (d *Device) exchange(w, r []byte) error {
	if r == nil {
		r = make([]byte, len(w))
	}
	d.csn(false)
	err := d.bus.Tx(w, r)
	d.csn(true)
	return err
}
