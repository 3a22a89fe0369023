package eve

import (
	"encoding/binary"

	"goeve/logging"
)

// notTouching is the calibrated X value reported with no touch.
const notTouching = -32768

// touchBlockSize is the packed size of the touch registers starting at
// RegTouchRawXY.
const touchBlockSize = 17

// Touch holds the raw touch registers, in register order.
type Touch struct {
	RawY, RawX uint16
	Resistance uint32
	Y, X       int16
	TagY, TagX int16
	Tag        uint8
}

// Tracker holds the tracker register pair.
type Tracker struct {
	Tag   uint16
	Value uint16
}

// TouchState is derived from the touch registers and the previous call.
type TouchState struct {
	Touching bool
	Press    bool
	Release  bool
}

// Inputs is one touch snapshot.
type Inputs struct {
	Touch   Touch
	Tracker Tracker
	State   TouchState
}

func decodeTouch(b []byte) Touch {
	le := binary.LittleEndian
	return Touch{
		RawY:       le.Uint16(b[0:]),
		RawX:       le.Uint16(b[2:]),
		Resistance: le.Uint32(b[4:]),
		Y:          int16(le.Uint16(b[8:])),
		X:          int16(le.Uint16(b[10:])),
		TagY:       int16(le.Uint16(b[12:])),
		TagX:       int16(le.Uint16(b[14:])),
		Tag:        b[16],
	}
}

// GetInputs waits for the command FIFO to drain, then reads and decodes
// the touch and tracker registers. Press and Release compare against the
// previous call on this session.
func (s *Session) GetInputs() (Inputs, error) {
	if err := s.Finish(); err != nil {
		return Inputs{}, err
	}
	raw, err := s.Read(RegTouchRawXY, touchBlockSize)
	if err != nil {
		return Inputs{}, err
	}
	tr, err := s.Read(RegTracker, 4)
	if err != nil {
		return Inputs{}, err
	}

	in := Inputs{
		Touch: decodeTouch(raw),
		Tracker: Tracker{
			Tag:   binary.LittleEndian.Uint16(tr[0:]),
			Value: binary.LittleEndian.Uint16(tr[2:]),
		},
	}
	touching := in.Touch.X != notTouching
	in.State = TouchState{
		Touching: touching,
		Press:    touching && !s.prevTouching,
		Release:  !touching && s.prevTouching,
	}
	s.prevTouching = touching

	if in.State.Press || in.State.Release {
		logging.Debug(logging.ComponentTouch, "edge",
			"press", in.State.Press, "x", in.Touch.X, "y", in.Touch.Y, "tag", in.Touch.Tag)
	}
	return in, nil
}
