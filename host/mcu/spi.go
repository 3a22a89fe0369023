package mcu

import (
	"fmt"

	"goeve/protocol"
)

// SPI bus modes for SPISetBus.
const (
	SPIMode0 = 0
	SPIMode1 = 1
	SPIMode2 = 2
	SPIMode3 = 3
)

// AllocateOIDs reserves object ids; it must precede any config command.
func (m *MCU) AllocateOIDs(count uint8) error {
	return m.SendCommand("allocate_oids", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(count))
	})
}

// FinalizeConfig ends the configuration phase.
func (m *MCU) FinalizeConfig(crc uint32) error {
	return m.SendCommand("finalize_config", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, crc)
	})
}

// ConfigSPI creates SPI device oid with its chip select on pin.
func (m *MCU) ConfigSPI(oid uint8, pin uint32, csActiveHigh bool) error {
	high := uint32(0)
	if csActiveHigh {
		high = 1
	}
	return m.SendCommand("config_spi", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(oid))
		protocol.EncodeVLQUint(out, pin)
		protocol.EncodeVLQUint(out, high)
	})
}

// SPISetBus binds SPI device oid to a hardware bus.
func (m *MCU) SPISetBus(oid uint8, bus, mode, rate uint32) error {
	return m.SendCommand("spi_set_bus", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(oid))
		protocol.EncodeVLQUint(out, bus)
		protocol.EncodeVLQUint(out, mode)
		protocol.EncodeVLQUint(out, rate)
	})
}

// SPISend clocks data out with chip select held for the whole message.
func (m *MCU) SPISend(oid uint8, data []byte) error {
	return m.SendCommand("spi_send", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(oid))
		protocol.EncodeVLQBytes(out, data)
	})
}

// SPITransfer clocks data out and returns the bytes clocked in.
func (m *MCU) SPITransfer(oid uint8, data []byte) ([]byte, error) {
	if err := m.SendCommand("spi_transfer", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(oid))
		protocol.EncodeVLQBytes(out, data)
	}); err != nil {
		return nil, err
	}
	for {
		payload, err := m.WaitResponse("spi_transfer_response")
		if err != nil {
			return nil, err
		}
		got, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, fmt.Errorf("spi_transfer_response: %w", err)
		}
		if uint8(got) != oid {
			continue
		}
		resp, err := protocol.DecodeVLQBytes(&payload)
		if err != nil {
			return nil, fmt.Errorf("spi_transfer_response: %w", err)
		}
		return append([]byte(nil), resp...), nil
	}
}

// MaxSPIPayload returns the largest data argument that fits one
// spi_send, one spi_transfer and its response for device oid.
func (m *MCU) MaxSPIPayload(oid uint8) (int, error) {
	n := protocol.MessagePayloadMax
	for _, lookup := range []struct {
		name string
		find func(string) (Format, error)
	}{
		{"spi_send", m.Command},
		{"spi_transfer", m.Command},
		{"spi_transfer_response", m.Response},
	} {
		f, err := lookup.find(lookup.name)
		if err != nil {
			return 0, err
		}
		room := protocol.MessagePayloadMax - protocol.VLQLen(uint32(f.ID)) - protocol.VLQLen(uint32(oid))
		// the length prefix of a short byte string is a single byte
		room--
		if room < n {
			n = room
		}
	}
	return n, nil
}
