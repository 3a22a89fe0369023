// Package klipper implements eve.Bus over the SPI bridge commands of a
// Klipper protocol microcontroller.
package klipper

import (
	"errors"
	"fmt"

	"goeve/eve"
	"goeve/logging"
)

var (
	ErrBusy     = errors.New("klipper: bus already open")
	ErrTooLarge = errors.New("klipper: exchange exceeds message size")
)

// Bridge is the part of an MCU connection the bus uses. *mcu.MCU
// implements it.
type Bridge interface {
	AllocateOIDs(count uint8) error
	ConfigSPI(oid uint8, pin uint32, csActiveHigh bool) error
	SPISetBus(oid uint8, bus, mode, rate uint32) error
	FinalizeConfig(crc uint32) error
	SPISend(oid uint8, data []byte) error
	SPITransfer(oid uint8, data []byte) ([]byte, error)
	MaxSPIPayload(oid uint8) (int, error)
}

// Config selects the SPI device on the bridge.
type Config struct {
	OID          uint8
	CSPin        uint32
	CSActiveHigh bool
	Bus          uint32
	Mode         uint32
	Rate         uint32
}

// DefaultConfig returns mode 0 at 8 MHz on bus 0.
func DefaultConfig() Config {
	return Config{Rate: 8000000}
}

// Bus carries exchanges as spi_send and spi_transfer commands. The
// bridge holds chip select for the duration of each command, so every
// exchange is one command.
type Bus struct {
	b    Bridge
	oid  uint8
	max  int
	held bool
}

// New configures the SPI device on the bridge and returns a bus over it.
func New(b Bridge, cfg Config) (*Bus, error) {
	if err := b.AllocateOIDs(cfg.OID + 1); err != nil {
		return nil, fmt.Errorf("allocate_oids: %w", err)
	}
	if err := b.ConfigSPI(cfg.OID, cfg.CSPin, cfg.CSActiveHigh); err != nil {
		return nil, fmt.Errorf("config_spi: %w", err)
	}
	if err := b.SPISetBus(cfg.OID, cfg.Bus, cfg.Mode, cfg.Rate); err != nil {
		return nil, fmt.Errorf("spi_set_bus: %w", err)
	}
	if err := b.FinalizeConfig(0); err != nil {
		return nil, fmt.Errorf("finalize_config: %w", err)
	}
	limit, err := b.MaxSPIPayload(cfg.OID)
	if err != nil {
		return nil, err
	}
	logging.Info(logging.ComponentHAL, "klipper spi bridge ready",
		"oid", cfg.OID, "cs_pin", cfg.CSPin, "rate", cfg.Rate, "max_transfer", limit)
	return &Bus{b: b, oid: cfg.OID, max: limit}, nil
}

// Open implements eve.Bus.
func (d *Bus) Open() (eve.Handle, error) {
	if d.held {
		return nil, ErrBusy
	}
	d.held = true
	return d, nil
}

// Close implements eve.Handle.
func (d *Bus) Close() error {
	d.held = false
	return nil
}

// MaxTransfer implements eve.Limiter.
func (d *Bus) MaxTransfer() int {
	return d.max
}

// Exchange implements eve.Handle.
func (d *Bus) Exchange(tx []byte, rxLen int) ([]byte, error) {
	if n := len(tx) + rxLen; n > d.max {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, n, d.max)
	}
	if rxLen == 0 {
		return nil, d.b.SPISend(d.oid, tx)
	}
	buf := make([]byte, len(tx)+rxLen)
	copy(buf, tx)
	rx, err := d.b.SPITransfer(d.oid, buf)
	if err != nil {
		return nil, err
	}
	if len(rx) != len(buf) {
		return nil, fmt.Errorf("klipper: spi_transfer returned %d bytes, want %d", len(rx), len(buf))
	}
	return rx[len(tx):], nil
}
