package klipper

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"goeve/eve"
	"goeve/host/mcu"
	"goeve/host/mcu/mcutest"
)

// chip answers the display chip's bus protocol behind the simulated MCU.
type chip struct {
	mu       sync.Mutex
	mem      map[uint32]byte
	hostCmds int
	sink     []byte
	largest  int
}

func newChip() *chip {
	c := &chip{mem: make(map[uint32]byte)}
	c.put32(eve.RegID, eve.ChipID)
	c.put32(eve.RegCmdbSpace, eve.FIFOMax)
	return c
}

func (c *chip) put32(addr, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	for i, x := range b {
		c.mem[addr+uint32(i)] = x
	}
}

func (c *chip) Transfer(tx []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(tx) > c.largest {
		c.largest = len(tx)
	}
	rx := make([]byte, len(tx))
	if len(tx) == 3 {
		c.hostCmds++
		return rx
	}
	addr := uint32(tx[0]&0x3f)<<16 | uint32(tx[1])<<8 | uint32(tx[2])
	if tx[0]&0x80 != 0 {
		if addr == eve.RegCmdbWrite {
			c.sink = append(c.sink, tx[3:]...)
			return rx
		}
		for i, x := range tx[3:] {
			c.mem[addr+uint32(i)] = x
		}
		return rx
	}
	for i := 4; i < len(tx); i++ {
		rx[i] = c.mem[addr+uint32(i-4)]
	}
	return rx
}

func connect(t *testing.T, c *chip) (*Bus, *mcutest.MCU) {
	t.Helper()
	sim, conn := mcutest.Start(c)
	m := mcu.New()
	m.Attach(conn)
	t.Cleanup(func() {
		m.Close()
		sim.Close()
	})
	if err := m.RetrieveDictionary(); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.CSPin = 17
	b, err := New(m, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return b, sim
}

func TestNewConfiguresBridge(t *testing.T) {
	b, sim := connect(t, newChip())

	sc, ok := sim.SPI(0)
	if !ok {
		t.Fatal("oid 0 not configured")
	}
	if sc.Pin != 17 || sc.Rate != 8000000 || sc.Mode != 0 {
		t.Errorf("spi config = %+v", sc)
	}
	if b.MaxTransfer() != 56 {
		t.Errorf("MaxTransfer = %d, want 56", b.MaxTransfer())
	}
}

func TestOpenIsExclusive(t *testing.T) {
	b, _ := connect(t, newChip())

	h, err := b.Open()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Open(); !errors.Is(err, ErrBusy) {
		t.Errorf("second Open = %v, want ErrBusy", err)
	}
	h.Close()
	if _, err := b.Open(); err != nil {
		t.Errorf("Open after Close = %v", err)
	}
}

func TestExchangeTooLarge(t *testing.T) {
	b, _ := connect(t, newChip())

	if _, err := b.Exchange(make([]byte, 3), b.MaxTransfer()); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Exchange = %v, want ErrTooLarge", err)
	}
}

func TestSessionOverBridge(t *testing.T) {
	c := newChip()
	b, _ := connect(t, c)

	s := eve.New(b)
	if err := s.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	c.mu.Lock()
	if c.hostCmds != 4 {
		t.Errorf("host commands = %d, want 4", c.hostCmds)
	}
	c.mu.Unlock()

	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}
	if err := s.Write(0x1000, data); err != nil {
		t.Fatal(err)
	}
	got, err := s.Read(0x1000, len(data))
	if err != nil {
		t.Fatal(err)
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("Read()[%d] = %d, want %d", i, got[i], data[i])
		}
	}

	if err := s.Text(10, 10, 28, 0, "over the bridge"); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sink) != 28 {
		t.Errorf("command sink has %d bytes, want 28", len(c.sink))
	}
	if c.largest > b.MaxTransfer() {
		t.Errorf("largest transfer %d exceeds %d", c.largest, b.MaxTransfer())
	}
}
