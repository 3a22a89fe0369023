package protocol

// InputBuffer is received data waiting to be parsed.
type InputBuffer interface {
	// Data returns the buffered bytes.
	Data() []byte

	// Available returns the number of buffered bytes.
	Available() int

	// Pop removes n bytes from the front of the buffer.
	Pop(n int)
}

// OutputBuffer collects encoded message arguments.
type OutputBuffer interface {
	Output(data []byte)
}

// ScratchOutput is an OutputBuffer holding at most one message payload.
type ScratchOutput struct {
	buf [MessageLengthMax]byte
	pos int
	// overflow is set once an Output did not fit
	overflow bool
}

// NewScratchOutput creates an empty ScratchOutput.
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

// Output implements OutputBuffer. Bytes beyond the capacity are dropped.
func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

// Len returns the number of bytes written.
func (s *ScratchOutput) Len() int {
	return s.pos
}

// Overflow reports whether any output was dropped.
func (s *ScratchOutput) Overflow() bool {
	return s.overflow
}

// Result returns the accumulated output.
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer.
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// FifoBuffer is a circular buffer for serial input.
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a FifoBuffer holding up to capacity-1 bytes.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends as much of data as fits and returns the count written.
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		next := (f.write + 1) % f.size
		if next == f.read {
			break
		}
		f.buf[f.write] = b
		f.write = next
		written++
	}
	return written
}

// Read moves up to len(data) bytes out of the buffer.
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for i := range data {
		if f.read == f.write {
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

// Available returns the number of buffered bytes.
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the room left.
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// Data returns the buffered bytes as one slice, copying when they wrap.
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	out := make([]byte, f.Available())
	n := copy(out, f.buf[f.read:])
	copy(out[n:], f.buf[:f.write])
	return out
}

// Pop removes n bytes from the front.
func (f *FifoBuffer) Pop(n int) {
	if a := f.Available(); n > a {
		n = a
	}
	f.read = (f.read + n) % f.size
}

// IsEmpty reports whether nothing is buffered.
func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// Reset discards all buffered bytes.
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
