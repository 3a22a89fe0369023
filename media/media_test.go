package media

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

func payload() []byte {
	b := make([]byte, 10000)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNewReader(t *testing.T) {
	data := payload()

	testCases := []struct {
		name       string
		in         []byte
		compressed bool
	}{
		{"plain", data, false},
		{"xz", compress(t, data), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, compressed, err := NewReader(bytes.NewReader(tc.in))
			if err != nil {
				t.Fatal(err)
			}
			if compressed != tc.compressed {
				t.Errorf("compressed = %v, want %v", compressed, tc.compressed)
			}
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("read %d bytes, content mismatch", len(got))
			}
		})
	}
}

func TestNewReaderShortInput(t *testing.T) {
	r, compressed, err := NewReader(bytes.NewReader([]byte{1, 2}))
	if err != nil || compressed {
		t.Fatalf("NewReader = %v, %v", compressed, err)
	}
	got, _ := io.ReadAll(r)
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("got %v", got)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi.xz")
	if err := os.WriteFile(path, compress(t, payload()), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if !src.Compressed {
		t.Error("xz file not detected")
	}
	n, err := io.Copy(io.Discard, src)
	if err != nil || n != 10000 {
		t.Errorf("copied %d, %v", n, err)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Open of a missing file succeeded")
	}
}
