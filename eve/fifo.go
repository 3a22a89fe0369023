package eve

import "goeve/logging"

// fifoState mirrors the coprocessor's command FIFO.
type fifoState struct {
	free    uint32
	faulted bool
}

// Faulted reports whether the coprocessor fault flag has been observed.
func (s *Session) Faulted() bool {
	return s.fifo.faulted
}

// Free reports the last known free space in the command FIFO.
func (s *Session) Free() int {
	return int(s.fifo.free)
}

// RefreshSpace re-reads the device's free-space register. A set fault bit
// marks the session faulted; that state is terminal until Boot.
func (s *Session) RefreshSpace() error {
	if s.fifo.faulted {
		return ErrCoprocessorFault
	}
	v, err := s.Read32(RegCmdbSpace)
	if err != nil {
		return err
	}
	if v&1 != 0 {
		s.fifo.faulted = true
		logging.Error(logging.ComponentFIFO, "coprocessor fault", "space", v)
		return ErrCoprocessorFault
	}
	s.fifo.free = v
	return nil
}

// Reserve blocks until at least n bytes are free in the command FIFO.
// How it waits is decided by the session's Poller.
func (s *Session) Reserve(n int) error {
	if s.fifo.faulted {
		return ErrCoprocessorFault
	}
	for attempt := 0; int(s.fifo.free) < n; attempt++ {
		if err := s.poller.Poll(attempt); err != nil {
			logging.Warn(logging.ComponentFIFO, "reserve abandoned",
				"want", n, "free", s.fifo.free, "attempts", attempt)
			return err
		}
		if err := s.RefreshSpace(); err != nil {
			return err
		}
	}
	return nil
}

// chunk is the largest piece WriteCommands pushes in one exchange.
func (s *Session) chunk() int {
	c := FIFOMax
	if s.writeChunk > 0 && s.writeChunk < c {
		c = s.writeChunk
	}
	if s.maxTransfer > 0 && s.maxTransfer-3 < c {
		c = s.maxTransfer - 3
	}
	c &^= 3
	if c < 4 {
		c = 4
	}
	return c
}

// WriteCommands pushes serialized instructions into the command FIFO. The
// device advances its own write pointer; the host only decrements its copy
// of the free space.
//
// Data that fits one chunk is written in a single exchange. Larger data is
// reserved and written chunk by chunk so no single reservation can exceed
// the FIFO.
func (s *Session) WriteCommands(b []byte) error {
	if s.fifo.faulted {
		return ErrCoprocessorFault
	}
	c := s.chunk()
	for len(b) > 0 {
		n := len(b)
		if n > c {
			n = c
		}
		if err := s.Reserve(n); err != nil {
			return err
		}
		if err := s.writeFrame(RegCmdbWrite, b[:n]); err != nil {
			return err
		}
		s.fifo.free -= uint32(n)
		b = b[n:]
	}
	return nil
}

// Flush pushes buffered commands to the device.
func (s *Session) Flush() error {
	if s.buf.Len() == 0 {
		return nil
	}
	b := make([]byte, s.buf.Len())
	copy(b, s.buf.Bytes())
	s.buf.Reset()
	return s.WriteCommands(b)
}

// Finish flushes and then waits until the coprocessor has drained its
// FIFO completely.
func (s *Session) Finish() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.Reserve(FIFOMax)
}

// IsIdle refreshes the free space once and reports whether the FIFO is
// empty. It never waits.
func (s *Session) IsIdle() (bool, error) {
	if err := s.RefreshSpace(); err != nil {
		return false, err
	}
	return s.fifo.free == FIFOMax, nil
}

// enqueue adds serialized bytes to the command buffer, flushing when the
// buffer passes the threshold.
func (s *Session) enqueue(b []byte) error {
	s.buf.Write(b)
	if s.buf.Len() >= s.flushAt {
		return s.Flush()
	}
	return nil
}
