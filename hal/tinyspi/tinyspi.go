// Package tinyspi implements eve.Bus on a tinygo.org/x/drivers SPI bus
// with a software chip select, for sessions hosted on a microcontroller.
package tinyspi

import (
	"errors"

	"tinygo.org/x/drivers"

	"goeve/eve"
)

// ErrBusy is returned by Open while a handle is outstanding.
var ErrBusy = errors.New("tinyspi: bus already open")

// Select drives chip select. active is the logical state; the callback
// applies the pin polarity.
type Select func(active bool)

// Bus holds chip select asserted from Open to Close.
type Bus struct {
	spi  drivers.SPI
	cs   Select
	held bool

	buf []byte
}

// New returns a bus over spi. The caller configures the SPI peripheral and
// the chip select pin as an output, deasserted.
func New(spi drivers.SPI, cs Select) *Bus {
	return &Bus{spi: spi, cs: cs}
}

// Open implements eve.Bus.
func (b *Bus) Open() (eve.Handle, error) {
	if b.held {
		return nil, ErrBusy
	}
	b.held = true
	b.cs(true)
	return b, nil
}

// Close implements eve.Handle.
func (b *Bus) Close() error {
	if b.held {
		b.cs(false)
		b.held = false
	}
	return nil
}

// Exchange implements eve.Handle. Received bytes are returned in a fresh
// slice; the transmit scratch buffer is reused across calls.
func (b *Bus) Exchange(tx []byte, rxLen int) ([]byte, error) {
	if !b.held {
		return nil, errors.New("tinyspi: exchange without open")
	}
	if err := b.spi.Tx(tx, nil); err != nil {
		return nil, err
	}
	if rxLen == 0 {
		return nil, nil
	}
	if cap(b.buf) < rxLen {
		b.buf = make([]byte, rxLen)
	}
	w := b.buf[:rxLen]
	clear(w)
	r := make([]byte, rxLen)
	if err := b.spi.Tx(w, r); err != nil {
		return nil, err
	}
	return r, nil
}
