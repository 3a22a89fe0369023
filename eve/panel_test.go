package eve

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"strings"
	"testing"
)

// regwrites extracts the (register, value) pairs of the regwrite records in
// a command stream.
func regwrites(t *testing.T, b []byte) []RegValue {
	t.Helper()
	le := binary.LittleEndian
	var out []RegValue
	for len(b) >= 4 {
		w := le.Uint32(b)
		switch w {
		case 0xffffff1a:
			out = append(out, RegValue{Reg: le.Uint32(b[4:]), Value: le.Uint32(b[12:])})
			b = b[16:]
		default:
			b = b[4:]
		}
	}
	return out
}

func TestApplyPanel(t *testing.T) {
	d := newFakeDevice()
	s := newTestSession(d)
	if err := s.ApplyPanel(Panel800x480); err != nil {
		t.Fatal(err)
	}
	got := regwrites(t, d.sink)
	if len(got) != len(Panel800x480.Regs) {
		t.Fatalf("got %d register writes, want %d", len(got), len(Panel800x480.Regs))
	}
	for i, rv := range Panel800x480.Regs {
		if got[i] != rv {
			t.Errorf("write %d = %+v, want %+v", i, got[i], rv)
		}
	}
	if w, h := s.Size(); w != 800 || h != 480 {
		t.Errorf("Size = %dx%d", w, h)
	}
	if s.buf.Len() != 0 {
		t.Error("ApplyPanel left commands buffered")
	}
}

func TestLoadPadsOnlyLastPiece(t *testing.T) {
	d := newFakeDevice()
	s := newTestSession(d)
	data := strings.Repeat("z", 2*loadPiece+3)
	if err := s.Load(shortReader{strings.NewReader(data)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	want := append([]byte(data), 0)
	if !bytes.Equal(d.sink, want) {
		t.Errorf("sink has %d bytes, want %d", len(d.sink), len(want))
	}
}

// shortReader returns at most 7 bytes per Read.
type shortReader struct{ r io.Reader }

func (r shortReader) Read(p []byte) (int, error) {
	if len(p) > 7 {
		p = p[:7]
	}
	return r.r.Read(p)
}

func TestInflateBlob(t *testing.T) {
	d := newFakeDevice()
	s := newTestSession(d)
	payload := bytes.Repeat([]byte("eve"), 100)
	if err := s.Inflate(0x2000, payload); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	le := binary.LittleEndian
	if le.Uint32(d.sink[0:]) != 0xffffff22 || le.Uint32(d.sink[4:]) != 0x2000 {
		t.Fatalf("inflate header = % x", d.sink[:8])
	}
	if len(d.sink)%4 != 0 {
		t.Errorf("record length %d not aligned", len(d.sink))
	}
	zr, err := zlib.NewReader(bytes.NewReader(d.sink[8:]))
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("inflated blob differs from payload")
	}
}

func TestCalibrateSequence(t *testing.T) {
	d := newFakeDevice()
	s := newTestSession(d)
	if err := s.ApplyPanel(Panel800x480); err != nil {
		t.Fatal(err)
	}
	n := len(d.sink)
	if err := s.Calibrate(); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	b := d.sink[n:]
	if binary.LittleEndian.Uint32(b) != 0x26000007 {
		t.Errorf("calibration does not start with a clear: % x", b[:4])
	}
	if !bytes.Contains(b, []byte{0x15, 0xff, 0xff, 0xff}) {
		t.Error("calibrate command missing")
	}
}
