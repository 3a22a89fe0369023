// Package tinycompress produces zlib streams made of stored (uncompressed)
// DEFLATE blocks. The output is accepted by any inflater, including the
// display coprocessor's, and costs no CPU beyond a checksum.
package tinycompress

import (
	"errors"
	"hash"
	"hash/adler32"
	"io"
)

// MaxBlock is the largest payload of a single stored block.
const MaxBlock = 0xffff

var zlibHeader = [2]byte{0x78, 0x9c}

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("tinycompress: write after close")

// Stream emits a zlib stream one stored block at a time.
type Stream struct {
	adler    hash.Hash32
	totalIn  int
	totalOut int
	done     bool
}

// NewStream creates a stream ready for its first block.
func NewStream() *Stream {
	return &Stream{adler: adler32.New()}
}

// AppendBlock appends one stored block holding input to dst. The zlib
// header precedes the first block; the Adler-32 trailer follows the final
// one. input must not exceed MaxBlock bytes.
func (s *Stream) AppendBlock(dst, input []byte, final bool) ([]byte, error) {
	if s.done {
		return dst, ErrClosed
	}
	if len(input) > MaxBlock {
		return dst, errors.New("tinycompress: block too large")
	}
	start := len(dst)
	if s.totalOut == 0 {
		dst = append(dst, zlibHeader[:]...)
	}

	var hdr byte
	if final {
		hdr = 0x01
	}
	n := uint16(len(input))
	dst = append(dst, hdr, byte(n), byte(n>>8), byte(^n), byte(^n>>8))
	dst = append(dst, input...)

	s.adler.Write(input)
	s.totalIn += len(input)

	if final {
		sum := s.adler.Sum32()
		dst = append(dst, byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
		s.done = true
	}
	s.totalOut += len(dst) - start
	return dst, nil
}

// Reset prepares the stream for reuse.
func (s *Stream) Reset() {
	s.adler.Reset()
	s.totalIn = 0
	s.totalOut = 0
	s.done = false
}

// Compress wraps data in a complete zlib stream.
func Compress(data []byte) ([]byte, error) {
	s := NewStream()
	out := make([]byte, 0, len(data)+len(data)/MaxBlock*5+11)
	for {
		n := len(data)
		if n > MaxBlock {
			n = MaxBlock
		}
		var err error
		out, err = s.AppendBlock(out, data[:n], n == len(data))
		if err != nil {
			return nil, err
		}
		data = data[n:]
		if len(data) == 0 {
			return out, nil
		}
	}
}

// Writer is an io.WriteCloser that emits stored blocks as data arrives.
type Writer struct {
	w      io.Writer
	stream *Stream
	buf    []byte
	out    []byte
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, stream: NewStream(), buf: make([]byte, 0, MaxBlock)}
}

// Write buffers p, emitting full blocks as they fill. The last block is
// held back until Close so it can carry the final flag.
func (z *Writer) Write(p []byte) (int, error) {
	if z.stream.done {
		return 0, ErrClosed
	}
	written := 0
	for len(p) > 0 {
		if len(z.buf) == MaxBlock {
			if err := z.emit(false); err != nil {
				return written, err
			}
		}
		n := copy(z.buf[len(z.buf):MaxBlock], p)
		z.buf = z.buf[:len(z.buf)+n]
		p = p[n:]
		written += n
	}
	return written, nil
}

// Close emits the final block and the checksum.
func (z *Writer) Close() error {
	if z.stream.done {
		return nil
	}
	return z.emit(true)
}

func (z *Writer) emit(final bool) error {
	var err error
	z.out, err = z.stream.AppendBlock(z.out[:0], z.buf, final)
	if err != nil {
		return err
	}
	z.buf = z.buf[:0]
	_, err = z.w.Write(z.out)
	return err
}
