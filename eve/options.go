package eve

import "time"

// Clock supplies wall-clock time to the boot handshake and bounded pollers.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Poller decides how a Session waits between device polls. Poll is called
// before every refresh of the device's free-space counter; attempt starts
// at 0 for each new wait. A non-nil error aborts the wait.
type Poller interface {
	Poll(attempt int) error
}

// SpinPoller never sleeps and never gives up.
type SpinPoller struct{}

// Poll implements Poller.
func (SpinPoller) Poll(int) error { return nil }

// BoundedPoller fails a wait with ErrTimeout once Timeout has elapsed since
// its first attempt. Sleep, if non-zero, is slept between attempts.
type BoundedPoller struct {
	Clock   Clock
	Timeout time.Duration
	Sleep   time.Duration

	start time.Time
}

// Poll implements Poller.
func (p *BoundedPoller) Poll(attempt int) error {
	clk := p.Clock
	if clk == nil {
		clk = systemClock{}
	}
	if attempt == 0 {
		p.start = clk.Now()
		return nil
	}
	if clk.Now().Sub(p.start) >= p.Timeout {
		return ErrTimeout
	}
	if p.Sleep > 0 {
		time.Sleep(p.Sleep)
	}
	return nil
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for the boot deadline.
func WithClock(c Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithPoller sets the wait strategy used by Reserve, Finish and Play.
func WithPoller(p Poller) Option {
	return func(s *Session) {
		s.poller = p
	}
}

// WithWriteChunk makes WriteCommands reserve and write at most n bytes at a
// time. n is rounded down to a multiple of 4.
func WithWriteChunk(n int) Option {
	return func(s *Session) {
		s.writeChunk = n
	}
}

// WithFlushThreshold sets how many serialized bytes the session buffers
// before pushing them to the device on its own.
func WithFlushThreshold(n int) Option {
	return func(s *Session) {
		s.flushAt = n
	}
}

// WithBootTimeout overrides the one second identification deadline.
func WithBootTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.bootTimeout = d
	}
}
