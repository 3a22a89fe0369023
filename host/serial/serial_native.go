package serial

import (
	"errors"
	"fmt"

	"github.com/tarm/serial"

	"goeve/logging"
)

// NativePort is a Port backed by github.com/tarm/serial.
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens the port described by cfg.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("serial: nil config")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	logging.Debug(logging.ComponentMCU, "serial port open", "device", cfg.Device, "baud", cfg.Baud)

	return &NativePort{port: port, cfg: cfg}, nil
}

// Read reads from the port. With a read timeout configured it returns
// io.EOF when nothing arrived in time.
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes to the port.
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the port.
func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

// Flush discards pending input and output.
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
