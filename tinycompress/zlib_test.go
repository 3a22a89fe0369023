package tinycompress

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"
)

func inflate(t *testing.T, z []byte) []byte {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(z))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	return out
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

func TestCompressRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 100, MaxBlock, MaxBlock + 1, 3*MaxBlock + 17} {
		in := pattern(n)
		z, err := Compress(in)
		if err != nil {
			t.Fatalf("Compress(%d): %v", n, err)
		}
		if got := inflate(t, z); !bytes.Equal(got, in) {
			t.Errorf("size %d: round trip mismatch (%d bytes back)", n, len(got))
		}
	}
}

func TestCompressLayout(t *testing.T) {
	z, err := Compress([]byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	// header(2) + block header(5) + data(3) + adler(4)
	if len(z) != 14 {
		t.Fatalf("len = %d, want 14", len(z))
	}
	if z[0] != 0x78 || z[1] != 0x9c {
		t.Errorf("bad zlib header % x", z[:2])
	}
	if z[2] != 0x01 || z[3] != 3 || z[4] != 0 || z[5] != 0xfc || z[6] != 0xff {
		t.Errorf("bad block header % x", z[2:7])
	}
}

func TestWriter(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	in := pattern(2*MaxBlock + 5)
	for off := 0; off < len(in); off += 1000 {
		end := off + 1000
		if end > len(in) {
			end = len(in)
		}
		if _, err := w.Write(in[off:end]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := inflate(t, out.Bytes()); !bytes.Equal(got, in) {
		t.Errorf("round trip mismatch: %d bytes back", len(got))
	}
	if _, err := w.Write([]byte{1}); err != ErrClosed {
		t.Errorf("Write after Close = %v, want ErrClosed", err)
	}
}
