package eve

import "goeve/logging"

// BootState tracks the boot handshake.
type BootState int

const (
	BootInit BootState = iota
	BootColdStart
	BootWaitingForID
	BootReady
	BootFailed
)

// String returns a string representation of the boot state.
func (b BootState) String() string {
	switch b {
	case BootInit:
		return "init"
	case BootColdStart:
		return "cold-start"
	case BootWaitingForID:
		return "waiting-for-id"
	case BootReady:
		return "ready"
	case BootFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Host command triples issued on cold start, in order.
var coldStart = [...][3]byte{
	{0x61, 0x46, 0x00}, // CLKSEL: PLL x6, 72 MHz
	{0x44, 0x00, 0x00}, // CLKEXT: external crystal
	{0x00, 0x00, 0x00}, // ACTIVE: wake
	{0x68, 0x00, 0x00}, // RST_PULSE: core reset
}

func (s *Session) setState(st BootState) {
	logging.Debug(logging.ComponentBoot, "state", "from", s.state, "to", st)
	s.state = st
}

// Boot brings the chip from power-on to ready. It discards any buffered
// commands and clears a previous fault, so it is also the recovery path
// after ErrCoprocessorFault.
//
// Boot fails with ErrDeviceNotResponding when the identification register
// does not read ChipID within the boot timeout, and with
// ErrCoprocessorFault when the chip comes up already faulted.
func (s *Session) Boot() error {
	s.state = BootInit
	s.fifo = fifoState{}
	s.buf.Reset()
	s.prevTouching = false

	s.setState(BootColdStart)
	for _, hc := range coldStart {
		if err := s.HostCommand(hc[0], hc[1], hc[2]); err != nil {
			return err
		}
	}

	s.setState(BootWaitingForID)
	start := s.clock.Now()
	polls := 0
	for {
		id, err := s.Read32(RegID)
		if err != nil {
			return err
		}
		polls++
		if id == ChipID {
			break
		}
		if s.clock.Now().Sub(start) >= s.bootTimeout {
			s.setState(BootFailed)
			logging.Warn(logging.ComponentBoot, "identification timed out",
				"polls", polls, "last_id", id)
			return ErrDeviceNotResponding
		}
	}

	s.setState(BootReady)
	logging.Info(logging.ComponentBoot, "device ready", "polls", polls)
	return s.RefreshSpace()
}
