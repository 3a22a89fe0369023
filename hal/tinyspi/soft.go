package tinyspi

import "errors"

// Pin is a GPIO line. machine.Pin satisfies it once configured.
type Pin interface {
	Set(high bool)
	Get() bool
}

// SoftSPI is a bit-banged SPI master, MSB first. It implements
// drivers.SPI so a Bus can run on any three free pins.
type SoftSPI struct {
	sck, sdo, sdi Pin
	cpol, cpha    bool

	// delay waits half a clock period. Nil runs as fast as the pins toggle.
	delay func()
}

// NewSoftSPI returns a software SPI master in the given mode (0-3). The
// caller configures sck and sdo as outputs and sdi as an input.
func NewSoftSPI(sck, sdo, sdi Pin, mode uint8, delay func()) (*SoftSPI, error) {
	if mode > 3 {
		return nil, errors.New("tinyspi: invalid SPI mode")
	}
	s := &SoftSPI{
		sck:   sck,
		sdo:   sdo,
		sdi:   sdi,
		cpol:  mode&2 != 0,
		cpha:  mode&1 != 0,
		delay: delay,
	}
	s.sck.Set(s.cpol)
	s.sdo.Set(false)
	return s, nil
}

func (s *SoftSPI) wait() {
	if s.delay != nil {
		s.delay()
	}
}

// Transfer shifts one byte out and one byte in.
func (s *SoftSPI) Transfer(w byte) (byte, error) {
	var r byte
	for bit := 7; bit >= 0; bit-- {
		s.sdo.Set(w&(1<<bit) != 0)

		// with CPHA=0 the input is valid before the leading edge
		if !s.cpha && s.sdi.Get() {
			r |= 1 << bit
		}
		s.sck.Set(!s.cpol)
		s.wait()
		if s.cpha && s.sdi.Get() {
			r |= 1 << bit
		}
		s.sck.Set(s.cpol)
		s.wait()
	}
	return r, nil
}

// Tx implements drivers.SPI. A nil w clocks out zeros; a nil r discards
// the input.
func (s *SoftSPI) Tx(w, r []byte) error {
	n := len(w)
	switch {
	case w == nil:
		n = len(r)
	case r != nil && len(r) != len(w):
		return errors.New("tinyspi: tx and rx buffer lengths must match")
	}
	for i := 0; i < n; i++ {
		var out byte
		if w != nil {
			out = w[i]
		}
		in, _ := s.Transfer(out)
		if r != nil {
			r[i] = in
		}
	}
	return nil
}
