package tinyspi

import (
	"bytes"
	"errors"
	"testing"
)

// fakeSPI logs the bus activity as a list of events.
type fakeSPI struct {
	events []string
	out    []byte
	err    error
}

func (f *fakeSPI) Tx(w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, "tx")
	f.out = append(f.out, w...)
	for i := range r {
		r[i] = byte(0x10 + i)
	}
	return nil
}

func (f *fakeSPI) Transfer(b byte) (byte, error) {
	f.out = append(f.out, b)
	return 0, nil
}

func newBus() (*Bus, *fakeSPI) {
	f := &fakeSPI{}
	b := New(f, func(active bool) {
		if active {
			f.events = append(f.events, "cs-low")
		} else {
			f.events = append(f.events, "cs-high")
		}
	})
	return b, f
}

func TestChipSelectSpansExchange(t *testing.T) {
	b, f := newBus()

	h, err := b.Open()
	if err != nil {
		t.Fatal(err)
	}
	rx, err := h.Exchange([]byte{0x30, 0x20, 0x00}, 5)
	if err != nil {
		t.Fatal(err)
	}
	h.Close()

	want := []string{"cs-low", "tx", "tx", "cs-high"}
	if len(f.events) != len(want) {
		t.Fatalf("events = %v, want %v", f.events, want)
	}
	for i := range want {
		if f.events[i] != want[i] {
			t.Errorf("events = %v, want %v", f.events, want)
			break
		}
	}
	if !bytes.Equal(rx, []byte{0x10, 0x11, 0x12, 0x13, 0x14}) {
		t.Errorf("rx = % x", rx)
	}
	if !bytes.Equal(f.out, []byte{0x30, 0x20, 0x00, 0, 0, 0, 0, 0}) {
		t.Errorf("clocked out % x", f.out)
	}
}

func TestWriteOnlyExchange(t *testing.T) {
	b, f := newBus()
	h, _ := b.Open()
	defer h.Close()

	rx, err := h.Exchange([]byte{0x61, 0x46, 0x00}, 0)
	if err != nil || rx != nil {
		t.Fatalf("Exchange = %v, %v", rx, err)
	}
	if len(f.events) != 2 {
		t.Errorf("events = %v", f.events)
	}
}

func TestExclusive(t *testing.T) {
	b, _ := newBus()
	h, _ := b.Open()
	if _, err := b.Open(); !errors.Is(err, ErrBusy) {
		t.Errorf("second Open = %v", err)
	}
	h.Close()
	if _, err := h.Exchange([]byte{0, 0, 0}, 0); err == nil {
		t.Error("Exchange after Close succeeded")
	}
}

func TestTxError(t *testing.T) {
	b, f := newBus()
	f.err = errors.New("bus fault")
	h, _ := b.Open()
	defer h.Close()
	if _, err := h.Exchange([]byte{0, 0, 0}, 4); err != f.err {
		t.Errorf("Exchange = %v", err)
	}
}
