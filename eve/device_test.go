package eve

import (
	"encoding/binary"
	"errors"
	"time"
)

// fakeDevice is a simulated coprocessor on the far side of a Bus. It keeps
// a sparse memory image, records every exchange, and lets tests script
// the registers the driver polls.
type fakeDevice struct {
	mem map[uint32]byte

	hostCmds [][3]byte
	sink     []byte
	writes   []memWrite
	reads    []uint32

	exchanges int
	open      bool
	limit     int

	// onRead, when set, may replace the value read at addr.
	onRead func(addr uint32) (uint32, bool)

	failOpen     error
	failExchange error
}

type memWrite struct {
	addr uint32
	data []byte
}

func newFakeDevice() *fakeDevice {
	d := &fakeDevice{mem: make(map[uint32]byte)}
	d.set32(RegID, ChipID)
	d.set32(RegCmdbSpace, FIFOMax)
	return d
}

func (d *fakeDevice) set32(addr, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	d.setBytes(addr, b[:])
}

func (d *fakeDevice) setBytes(addr uint32, b []byte) {
	for i, c := range b {
		d.mem[addr+uint32(i)] = c
	}
}

func (d *fakeDevice) get32(addr uint32) uint32 {
	var b [4]byte
	for i := range b {
		b[i] = d.mem[addr+uint32(i)]
	}
	return binary.LittleEndian.Uint32(b[:])
}

func (d *fakeDevice) Open() (Handle, error) {
	if d.failOpen != nil {
		return nil, d.failOpen
	}
	if d.open {
		return nil, errors.New("fake: bus already open")
	}
	d.open = true
	return d, nil
}

func (d *fakeDevice) Close() error {
	if !d.open {
		return errors.New("fake: bus not open")
	}
	d.open = false
	return nil
}

func (d *fakeDevice) Exchange(tx []byte, rxLen int) ([]byte, error) {
	if d.failExchange != nil {
		return nil, d.failExchange
	}
	d.exchanges++
	if rxLen == 0 && len(tx) == 3 {
		d.hostCmds = append(d.hostCmds, [3]byte{tx[0], tx[1], tx[2]})
		return nil, nil
	}
	addr := uint32(tx[0]&0x3f)<<16 | uint32(tx[1])<<8 | uint32(tx[2])
	if tx[0]&0x80 != 0 {
		data := append([]byte(nil), tx[3:]...)
		if addr == RegCmdbWrite {
			d.sink = append(d.sink, data...)
		} else {
			d.writes = append(d.writes, memWrite{addr, data})
			d.setBytes(addr, data)
		}
		return nil, nil
	}
	d.reads = append(d.reads, addr)
	if d.onRead != nil && rxLen == 5 {
		if v, ok := d.onRead(addr); ok {
			d.set32(addr, v)
		}
	}
	rx := make([]byte, rxLen)
	rx[0] = 0xa5
	for i := 1; i < rxLen; i++ {
		rx[i] = d.mem[addr+uint32(i-1)]
	}
	return rx, nil
}

// limitedDevice exposes the Limiter interface on top of fakeDevice.
type limitedDevice struct{ *fakeDevice }

func (l limitedDevice) MaxTransfer() int { return l.limit }

// fakeClock advances by step on every call to Now.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func newTestSession(d *fakeDevice, opts ...Option) *Session {
	return New(d, opts...)
}
