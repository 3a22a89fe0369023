// Package mcutest runs a simulated Klipper microcontroller with an SPI
// bridge on an in-memory link, for testing code built on package mcu.
package mcutest

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"

	"goeve/protocol"
	"goeve/tinycompress"
)

// SPIDevice is the chip behind the simulated bus. Transfer receives the
// bytes clocked out during one chip-select assertion and returns as many
// bytes clocked in.
type SPIDevice interface {
	Transfer(tx []byte) []byte
}

// SPIDeviceFunc adapts a function to SPIDevice.
type SPIDeviceFunc func(tx []byte) []byte

// Transfer implements SPIDevice.
func (f SPIDeviceFunc) Transfer(tx []byte) []byte { return f(tx) }

// SPIConfig is what the host configured for one SPI object id.
type SPIConfig struct {
	Pin          uint32
	CSActiveHigh bool
	Bus          uint32
	Mode         uint32
	Rate         uint32
}

var commands = []string{
	"identify_response offset=%u data=%.*s",
	"identify offset=%u count=%c",
	"allocate_oids count=%c",
	"finalize_config crc=%u",
	"config_spi oid=%c pin=%u cs_active_high=%c",
	"spi_set_bus oid=%c spi_bus=%u mode=%u rate=%u",
	"spi_transfer oid=%c data=%*s",
	"spi_send oid=%c data=%*s",
	"spi_transfer_response oid=%c response=%*s",
}

func isResponse(format string) bool {
	return strings.Contains(format, "_response ")
}

// MCU is the simulated microcontroller.
type MCU struct {
	conn net.Conn
	dt   *protocol.DeviceTransport
	dev  SPIDevice

	dict []byte
	ids  map[string]uint16
	byID map[uint16]string

	mu      sync.Mutex
	handled []string
	oids    int
	spi     map[uint8]SPIConfig

	done chan struct{}
}

// Start runs a simulated MCU and returns it with the host end of the link.
func Start(dev SPIDevice) (*MCU, net.Conn) {
	hostEnd, devEnd := net.Pipe()
	m := &MCU{
		conn: devEnd,
		dev:  dev,
		ids:  make(map[string]uint16),
		byID: make(map[uint16]string),
		spi:  make(map[uint8]SPIConfig),
		done: make(chan struct{}),
	}
	m.dict = m.buildDictionary()
	m.dt = protocol.NewDeviceTransport(devEnd, m.handle)
	go m.run()
	return m, hostEnd
}

func (m *MCU) buildDictionary() []byte {
	d := struct {
		Version       string            `json:"version"`
		BuildVersions string            `json:"build_versions"`
		Config        map[string]string `json:"config"`
		Commands      map[string]int    `json:"commands"`
		Responses     map[string]int    `json:"responses"`
	}{
		Version:       "mcutest",
		BuildVersions: "go",
		Config:        map[string]string{"MCU": "sim", "CLOCK_FREQ": "12000000"},
		Commands:      make(map[string]int),
		Responses:     make(map[string]int),
	}
	for id, format := range commands {
		name := strings.Fields(format)[0]
		m.ids[name] = uint16(id)
		m.byID[uint16(id)] = name
		if isResponse(format) {
			d.Responses[format] = id
		} else {
			d.Commands[format] = id
		}
	}
	raw, err := json.Marshal(d)
	if err != nil {
		panic(err)
	}

	var buf bytes.Buffer
	w := tinycompress.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func (m *MCU) run() {
	defer close(m.done)
	in := protocol.NewFifoBuffer(1024)
	buf := make([]byte, 256)
	for {
		n, err := m.conn.Read(buf)
		if n > 0 {
			in.Write(buf[:n])
			m.dt.Receive(in)
		}
		if err != nil {
			m.conn.Close()
			return
		}
	}
}

// Close stops the simulation.
func (m *MCU) Close() error {
	err := m.conn.Close()
	<-m.done
	return err
}

// Handled returns the names of the commands handled so far, in order.
func (m *MCU) Handled() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.handled...)
}

// SPI returns the configuration of SPI object oid.
func (m *MCU) SPI(oid uint8) (SPIConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.spi[oid]
	return c, ok
}

func (m *MCU) handle(id uint16, data *[]byte) error {
	name, ok := m.byID[id]
	if !ok {
		return errors.New("mcutest: unknown command id")
	}
	args := func(n int) ([]uint32, error) {
		out := make([]uint32, n)
		for i := range out {
			v, err := protocol.DecodeVLQUint(data)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	m.mu.Lock()
	m.handled = append(m.handled, name)
	m.mu.Unlock()

	switch name {
	case "identify":
		a, err := args(2)
		if err != nil {
			return err
		}
		off, count := int(a[0]), int(a[1])
		chunk := []byte{}
		if off < len(m.dict) {
			end := off + count
			if end > len(m.dict) {
				end = len(m.dict)
			}
			chunk = m.dict[off:end]
		}
		return m.dt.SendResponse(m.ids["identify_response"], func(out protocol.OutputBuffer) {
			protocol.EncodeVLQUint(out, a[0])
			protocol.EncodeVLQBytes(out, chunk)
		})

	case "allocate_oids":
		a, err := args(1)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.oids = int(a[0])
		m.mu.Unlock()

	case "finalize_config":
		_, err := args(1)
		return err

	case "config_spi":
		a, err := args(3)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.spi[uint8(a[0])] = SPIConfig{Pin: a[1], CSActiveHigh: a[2] != 0}
		m.mu.Unlock()

	case "spi_set_bus":
		a, err := args(4)
		if err != nil {
			return err
		}
		m.mu.Lock()
		c := m.spi[uint8(a[0])]
		c.Bus, c.Mode, c.Rate = a[1], a[2], a[3]
		m.spi[uint8(a[0])] = c
		m.mu.Unlock()

	case "spi_send", "spi_transfer":
		a, err := args(1)
		if err != nil {
			return err
		}
		tx, err := protocol.DecodeVLQBytes(data)
		if err != nil {
			return err
		}
		m.mu.Lock()
		_, ok := m.spi[uint8(a[0])]
		m.mu.Unlock()
		if !ok {
			return errors.New("mcutest: spi oid not configured")
		}
		rx := m.dev.Transfer(append([]byte(nil), tx...))
		if name == "spi_send" {
			return nil
		}
		return m.dt.SendResponse(m.ids["spi_transfer_response"], func(out protocol.OutputBuffer) {
			protocol.EncodeVLQUint(out, a[0])
			protocol.EncodeVLQBytes(out, rx)
		})
	}
	return nil
}
