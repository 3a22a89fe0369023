//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"
	"strings"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"

	"goeve/hal/tinyspi"
)

// spiBusConfig is one pin routing of a hardware SPI controller. Names
// match Klipper's RP2040 SPI bus definitions.
type spiBusConfig struct {
	spi *machine.SPI
	sck machine.Pin
	sdo machine.Pin
	sdi machine.Pin
}

var spiBuses = map[string]spiBusConfig{
	"spi0a": {spi: machine.SPI0, sck: machine.GPIO2, sdo: machine.GPIO3, sdi: machine.GPIO0},
	"spi0b": {spi: machine.SPI0, sck: machine.GPIO6, sdo: machine.GPIO7, sdi: machine.GPIO4},
	"spi0c": {spi: machine.SPI0, sck: machine.GPIO18, sdo: machine.GPIO19, sdi: machine.GPIO16},
	"spi0d": {spi: machine.SPI0, sck: machine.GPIO22, sdo: machine.GPIO23, sdi: machine.GPIO20},

	"spi1a": {spi: machine.SPI1, sck: machine.GPIO10, sdo: machine.GPIO11, sdi: machine.GPIO8},
	"spi1b": {spi: machine.SPI1, sck: machine.GPIO14, sdo: machine.GPIO15, sdi: machine.GPIO12},
	"spi1c": {spi: machine.SPI1, sck: machine.GPIO26, sdo: machine.GPIO27, sdi: machine.GPIO24},
}

// openDisplayBus configures the named bus in mode 0 and returns a display
// bus with cs as an active-low chip select. A name of the form "soft:spi0c"
// bit-bangs the pins of that routing instead of using the controller, and
// "pio:spi0c" runs it on a PIO0 state machine.
func openDisplayBus(name string, hz uint32, cs machine.Pin) (*tinyspi.Bus, error) {
	kind, routing, found := strings.Cut(name, ":")
	if !found {
		kind, routing = "hw", name
	}
	bc, ok := spiBuses[routing]
	if !ok {
		return nil, errors.New("invalid SPI bus name")
	}

	cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	cs.High()
	sel := func(active bool) { cs.Set(!active) }

	switch kind {
	case "hw":
	case "pio":
		sm, err := pio.PIO0.ClaimStateMachine()
		if err != nil {
			return nil, err
		}
		ps, err := piolib.NewSPI(sm, machine.SPIConfig{
			Frequency: hz,
			SCK:       bc.sck,
			SDO:       bc.sdo,
			SDI:       bc.sdi,
			Mode:      0,
		})
		if err != nil {
			return nil, err
		}
		return tinyspi.New(ps, sel), nil
	case "soft":
		bc.sck.Configure(machine.PinConfig{Mode: machine.PinOutput})
		bc.sdo.Configure(machine.PinConfig{Mode: machine.PinOutput})
		bc.sdi.Configure(machine.PinConfig{Mode: machine.PinInput})
		s, err := tinyspi.NewSoftSPI(bc.sck, bc.sdo, bc.sdi, 0, nil)
		if err != nil {
			return nil, err
		}
		return tinyspi.New(s, sel), nil
	default:
		return nil, errors.New("invalid SPI bus kind")
	}

	err := bc.spi.Configure(machine.SPIConfig{
		Frequency: hz,
		SCK:       bc.sck,
		SDO:       bc.sdo,
		SDI:       bc.sdi,
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}
	return tinyspi.New(bc.spi, sel), nil
}
