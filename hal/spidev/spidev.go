// Package spidev implements eve.Bus on a Linux spidev port through
// periph.io. The kernel driver asserts chip select for the length of each
// transaction, so every exchange is a single Tx.
package spidev

import (
	"errors"
	"fmt"
	"io"
	"time"

	"periph.io/x/periph/conn"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"goeve/eve"
	"goeve/logging"
)

// ErrBusy is returned by Open while a handle is outstanding.
var ErrBusy = errors.New("spidev: bus already open")

// Config selects the port and the optional power-down pin.
type Config struct {
	// Port is a spireg name such as "/dev/spidev0.0" or "SPI0.0". Empty
	// selects the first registered port.
	Port    string
	SpeedHz int64
	// PDPin is a gpioreg name such as "GPIO25". Empty disables PowerCycle.
	PDPin string
}

// DefaultConfig returns the first port at 10 MHz with no power-down pin.
func DefaultConfig() Config {
	return Config{SpeedHz: 10000000}
}

// Bus is a periph SPI connection carrying the display chip protocol.
type Bus struct {
	conn   spi.Conn
	closer io.Closer
	pd     gpio.PinOut
	max    int
	held   bool

	sleep func(time.Duration)
}

// Open initialises the periph host drivers and connects to the port in
// mode 0.
func Open(cfg Config) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", cfg.Port, err)
	}
	c, err := port.Connect(physic.Frequency(cfg.SpeedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi port %q: %w", cfg.Port, err)
	}

	var pd gpio.PinOut
	if cfg.PDPin != "" {
		p := gpioreg.ByName(cfg.PDPin)
		if p == nil {
			port.Close()
			return nil, fmt.Errorf("gpio %s not found", cfg.PDPin)
		}
		if err := p.Out(gpio.High); err != nil {
			port.Close()
			return nil, fmt.Errorf("gpio %s: %w", cfg.PDPin, err)
		}
		pd = p
	}

	b := New(c, pd)
	b.closer = port
	logging.Info(logging.ComponentHAL, "spidev open",
		"port", c.String(), "hz", cfg.SpeedHz, "pd", cfg.PDPin, "max_transfer", b.max)
	return b, nil
}

// New wraps an established connection. pd may be nil.
func New(c spi.Conn, pd gpio.PinOut) *Bus {
	b := &Bus{conn: c, pd: pd, sleep: time.Sleep}
	if l, ok := c.(conn.Limits); ok {
		b.max = l.MaxTxSize()
	}
	return b
}

// Open implements eve.Bus.
func (b *Bus) Open() (eve.Handle, error) {
	if b.held {
		return nil, ErrBusy
	}
	b.held = true
	return b, nil
}

// Close implements eve.Handle.
func (b *Bus) Close() error {
	b.held = false
	return nil
}

// MaxTransfer implements eve.Limiter. Zero means no limit.
func (b *Bus) MaxTransfer() int {
	return b.max
}

// Exchange implements eve.Handle.
func (b *Bus) Exchange(tx []byte, rxLen int) ([]byte, error) {
	if rxLen == 0 {
		return nil, b.conn.Tx(tx, nil)
	}
	w := make([]byte, len(tx)+rxLen)
	copy(w, tx)
	r := make([]byte, len(w))
	if err := b.conn.Tx(w, r); err != nil {
		return nil, err
	}
	return r[len(tx):], nil
}

// PowerCycle pulses the power-down pin low. The chip needs Boot afterwards.
func (b *Bus) PowerCycle() error {
	if b.pd == nil {
		return errors.New("spidev: no power-down pin configured")
	}
	if err := b.pd.Out(gpio.Low); err != nil {
		return err
	}
	b.sleep(20 * time.Millisecond)
	if err := b.pd.Out(gpio.High); err != nil {
		return err
	}
	b.sleep(20 * time.Millisecond)
	logging.Debug(logging.ComponentHAL, "power cycled")
	return nil
}

// Shutdown releases the port. The power-down pin is left high.
func (b *Bus) Shutdown() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
