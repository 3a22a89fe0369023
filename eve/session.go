package eve

import (
	"bytes"
	"time"

	"goeve/logging"
)

const (
	defaultFlushThreshold = 2048
	defaultBootTimeout    = time.Second
)

// Session is one driver instance bound to one physical device.
type Session struct {
	bus         Bus
	maxTransfer int

	clock       Clock
	poller      Poller
	bootTimeout time.Duration
	writeChunk  int
	flushAt     int

	state BootState
	fifo  fifoState

	// serialized commands not yet pushed to the device
	buf bytes.Buffer

	prevTouching bool
	vertexShift  uint

	width, height int
}

// New creates a Session on bus. The device is not touched until Boot.
func New(bus Bus, opts ...Option) *Session {
	s := &Session{
		bus:         bus,
		clock:       systemClock{},
		poller:      SpinPoller{},
		bootTimeout: defaultBootTimeout,
		flushAt:     defaultFlushThreshold,
		state:       BootInit,
		vertexShift: 4,
	}
	if l, ok := bus.(Limiter); ok {
		s.maxTransfer = l.MaxTransfer()
	}
	for _, opt := range opts {
		opt(s)
	}
	logging.Debug(logging.ComponentSession, "session created",
		"max_transfer", s.maxTransfer, "write_chunk", s.writeChunk)
	return s
}

// State reports the boot state.
func (s *Session) State() BootState {
	return s.state
}

// Size reports the panel dimensions set by ApplyPanel.
func (s *Session) Size() (w, h int) {
	return s.width, s.height
}

// exchange runs one acquire/exchange/release cycle on the bus. Errors from
// the bus are returned as is.
func (s *Session) exchange(tx []byte, rxLen int) (rx []byte, err error) {
	h, err := s.bus.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := h.Close(); err == nil {
			err = cerr
		}
	}()
	return h.Exchange(tx, rxLen)
}
