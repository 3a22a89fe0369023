package eve

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadFrame(t *testing.T) {
	d := newFakeDevice()
	d.setBytes(0x302100, []byte{1, 2, 3})
	s := newTestSession(d)

	got, err := s.Read(0x302100, 3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("Read = % x, want 01 02 03 (dummy byte must be dropped)", got)
	}
	if len(d.reads) != 1 || d.reads[0] != 0x302100 {
		t.Errorf("reads = %x", d.reads)
	}
	if d.open {
		t.Error("bus left open after read")
	}
}

func TestWriteFrame(t *testing.T) {
	d := newFakeDevice()
	s := newTestSession(d)

	if err := s.Write32(0x302070, 0x01020304); err != nil {
		t.Fatalf("Write32: %v", err)
	}
	if len(d.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(d.writes))
	}
	w := d.writes[0]
	if w.addr != 0x302070 {
		t.Errorf("addr = %#x", w.addr)
	}
	if !bytes.Equal(w.data, []byte{4, 3, 2, 1}) {
		t.Errorf("data = % x, want little-endian", w.data)
	}
	if v, _ := s.Read32(0x302070); v != 0x01020304 {
		t.Errorf("Read32 = %#x", v)
	}
}

func TestAddrFrame(t *testing.T) {
	f := addrFrame(0x302578&addrMask|addrWrite, 0)
	if !bytes.Equal(f, []byte{0xb0, 0x25, 0x78}) {
		t.Errorf("write frame = % x", f)
	}
	f = addrFrame(0x302000&addrMask, 0)
	if !bytes.Equal(f, []byte{0x30, 0x20, 0x00}) {
		t.Errorf("read frame = % x", f)
	}
}

func TestHostCommand(t *testing.T) {
	d := newFakeDevice()
	s := newTestSession(d)
	if err := s.HostCommand(0x61, 0x46, 0); err != nil {
		t.Fatal(err)
	}
	if len(d.hostCmds) != 1 || d.hostCmds[0] != [3]byte{0x61, 0x46, 0} {
		t.Errorf("host commands = %v", d.hostCmds)
	}
}

func TestTransportErrorPassThrough(t *testing.T) {
	busErr := errors.New("spi: bus fell over")

	d := newFakeDevice()
	d.failExchange = busErr
	s := newTestSession(d)
	if _, err := s.Read32(RegID); err != busErr {
		t.Errorf("Read32 error = %v, want the bus error unmodified", err)
	}
	if d.open {
		t.Error("bus not released after failed exchange")
	}

	d = newFakeDevice()
	d.failOpen = busErr
	s = newTestSession(d)
	if err := s.Write32(RegPCLK, 1); err != busErr {
		t.Errorf("Write32 error = %v, want the bus error unmodified", err)
	}
}

func TestLimitedBusSplitsMemorySpans(t *testing.T) {
	d := newFakeDevice()
	d.limit = 11
	s := New(limitedDevice{d})

	data := []byte("0123456789abcdefghij")
	if err := s.Write(0x1000, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(d.writes) != 3 {
		t.Fatalf("writes = %d, want 3 frames of <= 8 bytes", len(d.writes))
	}
	for i, w := range d.writes {
		if w.addr != 0x1000+uint32(8*i) {
			t.Errorf("frame %d addr = %#x", i, w.addr)
		}
	}

	got, err := s.Read(0x1000, len(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read = %q, want %q", got, data)
	}
	if len(d.reads) != 3 {
		t.Errorf("reads = %d, want 3 frames of <= 7 bytes", len(d.reads))
	}
}

func TestNarrowReadsAndCounters(t *testing.T) {
	d := newFakeDevice()
	d.set32(RegFrames, 1234)
	d.set32(RegClock, 0xdeadbeef)
	d.setBytes(0x1000, []byte{0x34, 0x12, 0x56})
	s := newTestSession(d)

	if v, err := s.Read16(0x1000); err != nil || v != 0x1234 {
		t.Errorf("Read16 = 0x%x, %v", v, err)
	}
	if v, err := s.Read8(0x1002); err != nil || v != 0x56 {
		t.Errorf("Read8 = 0x%x, %v", v, err)
	}
	if v, err := s.Frames(); err != nil || v != 1234 {
		t.Errorf("Frames = %d, %v", v, err)
	}
	if v, err := s.Ticks(); err != nil || v != 0xdeadbeef {
		t.Errorf("Ticks = 0x%x, %v", v, err)
	}

	before := d.exchanges
	if b, err := s.Read(0x1000, 0); err != nil || len(b) != 0 {
		t.Errorf("Read(n=0) = %v, %v", b, err)
	}
	if d.exchanges != before {
		t.Error("Read(n=0) touched the bus")
	}
}
