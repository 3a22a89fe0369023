// Package media opens video sources for streaming into the display chip's
// media ring. Sources compressed with xz are decompressed on the fly.
package media

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"goeve/logging"
)

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// Source is an open media file.
type Source struct {
	io.Reader
	f          *os.File
	Compressed bool
}

// Open opens path as a media source.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, compressed, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Debug(logging.ComponentMedia, "source open", "path", path, "xz", compressed)
	return &Source{Reader: r, f: f, Compressed: compressed}, nil
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.f.Close()
}

// NewReader returns r, or a decompressing reader when r starts with the xz
// stream magic.
func NewReader(r io.Reader) (io.Reader, bool, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		return nil, false, err
	}
	if !bytes.Equal(head, xzMagic) {
		return br, false, nil
	}
	xr, err := xz.NewReader(br)
	if err != nil {
		return nil, false, fmt.Errorf("xz: %w", err)
	}
	return xr, true, nil
}
