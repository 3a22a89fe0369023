package eve

import (
	"errors"
	"io"

	"goeve/tinycompress"
)

// RegValue is one register assignment in a panel bring-up table.
type RegValue struct {
	Reg   uint32 `json:"reg"`
	Value uint32 `json:"value"`
}

// PanelSettings describes a display panel: its visible size and the
// timing registers that drive it.
type PanelSettings struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Regs   []RegValue `json:"regs"`
}

// Panel800x480 is the timing for common 5" and 7" 800x480 panels.
var Panel800x480 = PanelSettings{
	Width:  800,
	Height: 480,
	Regs: []RegValue{
		{RegFrequency, 72000000},
		{RegCSpread, 0},
		{RegDither, 0},
		{RegSwizzle, 0},

		{RegHCycle, 928},
		{RegHOffset, 88},
		{RegHSize, 800},
		{RegHSync0, 0},
		{RegHSync1, 48},
		{RegPCLKPol, 1},
		{RegVCycle, 525},
		{RegVOffset, 32},
		{RegVSize, 480},
		{RegVSync0, 0},
		{RegVSync1, 3},

		{RegPCLKFreq, 0x451},
		{RegPCLK, 1},

		{RegGPIOX, 0x8000 | 4},
		{RegGPIOXDir, 0x8000 | 4},
	},
}

// ApplyPanel clears the screen, writes the panel's timing table through
// the command stream, and waits for it to take effect.
func (s *Session) ApplyPanel(p PanelSettings) error {
	s.width, s.height = p.Width, p.Height
	if err := s.Clear(true, true, true); err != nil {
		return err
	}
	if err := s.Swap(); err != nil {
		return err
	}
	for _, rv := range p.Regs {
		if err := s.RegWrite(rv.Reg, rv.Value); err != nil {
			return err
		}
	}
	return s.Finish()
}

// Calibrate runs the interactive touch calibration.
func (s *Session) Calibrate() error {
	if err := s.Clear(true, true, true); err != nil {
		return err
	}
	if err := s.Text(s.width/2, s.height/2, 29, OptCenter, "Tap the dot"); err != nil {
		return err
	}
	if err := s.CalibrateCmd(0); err != nil {
		return err
	}
	return s.DLStart()
}

const loadPiece = 512

// Load copies r into the command stream, for data that follows a command
// such as loadimage or inflate. Only the final piece is padded.
func (s *Session) Load(r io.Reader) error {
	buf := make([]byte, loadPiece)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if werr := s.enqueue(pad4(append([]byte(nil), buf[:n]...), 0)); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Inflate zlib-wraps data and has the coprocessor expand it to addr.
func (s *Session) Inflate(addr uint32, data []byte) error {
	z, err := tinycompress.Compress(data)
	if err != nil {
		return err
	}
	return s.Command("inflate", []int64{int64(addr)}, WithBlob(z))
}
