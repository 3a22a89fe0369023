package eve

import (
	"errors"
	"io"

	"goeve/logging"
)

// Media FIFO defaults.
const (
	DefaultMediaBase  = 0xf0000
	DefaultMediaSize  = 0x8000
	DefaultMediaChunk = 2048
)

// MediaOption configures a MediaStream.
type MediaOption func(*MediaStream)

// WithMediaRing places the ring at base with the given size in bytes.
func WithMediaRing(base, size uint32) MediaOption {
	return func(m *MediaStream) {
		m.base = base
		m.size = size
	}
}

// WithMediaChunk sets how many bytes are pulled from the source at a time.
// n <= 0 keeps DefaultMediaChunk.
func WithMediaChunk(n int) MediaOption {
	return func(m *MediaStream) {
		if n > 0 {
			m.chunk = n
		}
	}
}

// MediaStream feeds a byte stream into the device's media FIFO, where the
// video decoder consumes it.
type MediaStream struct {
	s   *Session
	src io.Reader

	base  uint32
	size  uint32
	chunk int

	// wp is the host-held write offset, 0 <= wp < size.
	wp        uint32
	exhausted bool
	buf       []byte
}

// NewMediaStream tells the device where the ring lives and resets the
// write offset. The commands are buffered; Play flushes them.
func NewMediaStream(s *Session, src io.Reader, opts ...MediaOption) (*MediaStream, error) {
	m := &MediaStream{
		s:     s,
		src:   src,
		base:  DefaultMediaBase,
		size:  DefaultMediaSize,
		chunk: DefaultMediaChunk,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.buf = make([]byte, m.chunk)

	if err := s.MediaFIFO(m.base, m.size); err != nil {
		return nil, err
	}
	if err := s.RegWrite(RegMediaFIFOWrite, 0); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteOffset reports the host-held write offset.
func (m *MediaStream) WriteOffset() uint32 {
	return m.wp
}

// Exhausted reports whether the source has reached end of stream.
func (m *MediaStream) Exhausted() bool {
	return m.exhausted
}

// Service tops up the ring from the source. It reads the device's read
// offset, then writes chunks while at least one chunk of room remains.
// End of the source is not an error.
func (m *MediaStream) Service() error {
	if m.exhausted {
		return nil
	}
	rp, err := m.s.Read32(RegMediaFIFORead)
	if err != nil {
		return err
	}
	size := int64(m.size)
	fullness := ((int64(m.wp)-int64(rp))%size + size) % size

	for fullness < size-int64(m.chunk) {
		n, err := io.ReadFull(m.src, m.buf)
		if n == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				m.exhausted = true
				logging.Debug(logging.ComponentMedia, "source exhausted", "wp", m.wp)
				return nil
			}
			return err
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return err
		}
		if err := m.put(m.buf[:n]); err != nil {
			return err
		}
		m.wp = uint32((int64(m.wp) + int64(n)) % size)
		if err := m.s.Write32(RegMediaFIFOWrite, m.wp); err != nil {
			return err
		}
		fullness += int64(n)
	}
	return nil
}

// put writes p at the write offset, splitting it at the end of the ring.
func (m *MediaStream) put(p []byte) error {
	first := len(p)
	if room := int(m.size - m.wp); first > room {
		first = room
	}
	if err := m.s.Write(m.base+m.wp, p[:first]); err != nil {
		return err
	}
	if first < len(p) {
		return m.s.Write(m.base, p[first:])
	}
	return nil
}

// Play starts fullscreen playback from the media FIFO and services the
// ring until the coprocessor reports its command FIFO drained, which
// happens when the video ends.
func (m *MediaStream) Play() error {
	s := m.s
	if err := s.PlayVideo(OptMediaFIFO | OptFullscreen | OptNoTear); err != nil {
		return err
	}
	if err := s.Nop(); err != nil {
		return err
	}
	if err := s.Flush(); err != nil {
		return err
	}
	logging.Info(logging.ComponentMedia, "playback started", "base", m.base, "size", m.size)
	for {
		idle, err := s.IsIdle()
		if err != nil {
			return err
		}
		if idle {
			break
		}
		if err := m.Service(); err != nil {
			return err
		}
	}
	return s.Finish()
}
