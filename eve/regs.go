package eve

import "encoding/binary"

const (
	addrMask  = 0x3fffff
	addrWrite = 0x800000
)

func addrFrame(a uint32, n int) []byte {
	f := make([]byte, 3, 3+n)
	f[0] = byte(a >> 16)
	f[1] = byte(a >> 8)
	f[2] = byte(a)
	return f
}

// span returns how many payload bytes fit in one exchange given the
// per-frame overhead, or n when the bus has no limit.
func (s *Session) span(n, overhead int) int {
	if s.maxTransfer <= 0 {
		return n
	}
	m := s.maxTransfer - overhead
	if m < 1 {
		m = 1
	}
	if n < m {
		return n
	}
	return m
}

// Read reads n bytes of device memory starting at addr.
func (s *Session) Read(addr uint32, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		k := s.span(n-len(out), 4)
		rx, err := s.exchange(addrFrame((addr+uint32(len(out)))&addrMask, 0), 1+k)
		if err != nil {
			return nil, err
		}
		if len(rx) != 1+k {
			return nil, ErrShortRead
		}
		out = append(out, rx[1:]...)
	}
	return out, nil
}

// Write writes data to device memory starting at addr.
func (s *Session) Write(addr uint32, data []byte) error {
	for off := 0; off < len(data); {
		k := s.span(len(data)-off, 3)
		if err := s.writeFrame(addr+uint32(off), data[off:off+k]); err != nil {
			return err
		}
		off += k
	}
	return nil
}

// writeFrame writes data in a single exchange.
func (s *Session) writeFrame(addr uint32, data []byte) error {
	tx := append(addrFrame(addr&addrMask|addrWrite, len(data)), data...)
	_, err := s.exchange(tx, 0)
	return err
}

// Read32 reads a little-endian 32-bit register.
func (s *Session) Read32(addr uint32) (uint32, error) {
	b, err := s.Read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Read16 reads a little-endian 16-bit register.
func (s *Session) Read16(addr uint32) (uint16, error) {
	b, err := s.Read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Read8 reads one byte.
func (s *Session) Read8(addr uint32) (uint8, error) {
	b, err := s.Read(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Write32 writes a little-endian 32-bit register.
func (s *Session) Write32(addr, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return s.writeFrame(addr, b[:])
}

// HostCommand sends a raw three byte host command. Host commands are only
// meaningful before the coprocessor is running.
func (s *Session) HostCommand(a, b, c byte) error {
	_, err := s.exchange([]byte{a, b, c}, 0)
	return err
}

// Frames reads the display frame counter.
func (s *Session) Frames() (uint32, error) {
	return s.Read32(RegFrames)
}

// Ticks reads the device system clock counter.
func (s *Session) Ticks() (uint32, error) {
	return s.Read32(RegClock)
}
