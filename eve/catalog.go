package eve

import (
	"fmt"
	"sort"
)

// CmdBase is or'ed with a catalog code to form the opcode word.
const CmdBase = 0xffffff00

// Entry is one row of the coprocessor command catalog.
type Entry struct {
	Name   string
	Code   byte
	Schema Schema
}

// Opcode returns the 32-bit opcode word of e.
func (e Entry) Opcode() uint32 {
	return CmdBase | uint32(e.Code)
}

func entry(name string, code byte, format string) Entry {
	return Entry{Name: name, Code: code, Schema: MustSchema(format)}
}

// catalog lists every coprocessor command by name. Commands that carry a
// string or blob take it as a CmdOption.
var catalog = []Entry{
	entry("dlstart", 0x00, ""),
	entry("swap", 0x01, ""),
	entry("interrupt", 0x02, "I"),
	entry("bgcolor", 0x09, "I"),
	entry("fgcolor", 0x0a, "I"),
	entry("gradient", 0x0b, "hhIhhI"),
	entry("text", 0x0c, "hhhH"),
	entry("button", 0x0d, "hhhhhH"),
	entry("keys", 0x0e, "hhhhhH"),
	entry("progress", 0x0f, "hhhhHHI"),
	entry("slider", 0x10, "hhhhHHI"),
	entry("scrollbar", 0x11, "hhhhHHHH"),
	entry("toggle", 0x12, "hhhhHH"),
	entry("gauge", 0x13, "hhhHHHHH"),
	entry("clock", 0x14, "hhhHHHHH"),
	entry("calibrate", 0x15, "I"),
	entry("spinner", 0x16, "hhHH"),
	entry("stop", 0x17, ""),
	entry("memcrc", 0x18, "III"),
	entry("regread", 0x19, "II"),
	entry("memwrite", 0x1a, "II"),
	entry("regwrite", 0x1a, "III"),
	entry("memset", 0x1b, "III"),
	entry("memzero", 0x1c, "II"),
	entry("memcpy", 0x1d, "III"),
	entry("append", 0x1e, "II"),
	entry("snapshot", 0x1f, "I"),
	entry("touch_transform", 0x20, "iiiiiiiiiiiiI"),
	entry("bitmap_transform", 0x21, "iiiiiiiiiiiiI"),
	entry("inflate", 0x22, "I"),
	entry("getptr", 0x23, "I"),
	entry("loadimage", 0x24, "iI"),
	entry("getprops", 0x25, "III"),
	entry("loadidentity", 0x26, ""),
	entry("translate", 0x27, "ii"),
	entry("scale", 0x28, "ii"),
	entry("rotate", 0x29, "i"),
	entry("setmatrix", 0x2a, ""),
	entry("setfont", 0x2b, "II"),
	entry("track", 0x2c, "hhhhi"),
	entry("dial", 0x2d, "hhhHI"),
	entry("number", 0x2e, "hhhHi"),
	entry("screensaver", 0x2f, ""),
	entry("sketch", 0x30, "hhHHII"),
	entry("logo", 0x31, ""),
	entry("coldstart", 0x32, ""),
	entry("getmatrix", 0x33, "iiiiii"),
	entry("gradcolor", 0x34, "I"),
	entry("setrotate", 0x36, "I"),
	entry("snapshot2", 0x37, "IIhhhh"),
	entry("setbase", 0x38, "I"),
	entry("mediafifo", 0x39, "II"),
	entry("playvideo", 0x3a, "I"),
	entry("setfont2", 0x3b, "III"),
	entry("setscratch", 0x3c, "I"),
	entry("romfont", 0x3f, "II"),
	entry("videostart", 0x40, ""),
	entry("videoframe", 0x41, "II"),
	entry("sync", 0x42, ""),
	entry("setbitmap", 0x43, "IHhi"),
	entry("flasherase", 0x44, ""),
	entry("flashwrite", 0x45, "II"),
	entry("flashread", 0x46, "III"),
	entry("flashupdate", 0x47, "III"),
	entry("flashdetach", 0x48, ""),
	entry("flashattach", 0x49, ""),
	entry("flashfast", 0x4a, "I"),
	entry("flashspidesel", 0x4b, ""),
	entry("flashspitx", 0x4c, "I"),
	entry("flashspirx", 0x4d, "II"),
	entry("flashsource", 0x4e, "I"),
	entry("inflate2", 0x50, "II"),
	entry("rotatearound", 0x51, "iiii"),
	entry("fillwidth", 0x58, "I"),
	entry("appendf", 0x59, "II"),
	entry("animframe", 0x5a, "hhII"),
	entry("nop", 0x5b, ""),
	entry("videostartf", 0x5f, ""),
	entry("testcard", 0x61, ""),
	entry("calllist", 0x67, "I"),
}

var byName = func() map[string]Entry {
	m := make(map[string]Entry, len(catalog))
	for _, e := range catalog {
		if _, dup := m[e.Name]; dup {
			panic("eve: duplicate catalog entry " + e.Name)
		}
		m[e.Name] = e
	}
	return m
}()

// Lookup finds a catalog entry by name.
func Lookup(name string) (Entry, bool) {
	e, ok := byName[name]
	return e, ok
}

// Commands returns the catalog names in sorted order.
func Commands() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Command serializes the named catalog command.
func (s *Session) Command(name string, args []int64, opts ...CmdOption) error {
	e, ok := byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return s.Cmd(e.Opcode(), e.Schema, args, opts...)
}

func (s *Session) cmd0(name string) error {
	return s.Command(name, nil)
}

func i64(vs ...int) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = int64(v)
	}
	return out
}

// DLStart starts a new display list.
func (s *Session) DLStart() error { return s.cmd0("dlstart") }

// SwapList swaps the current display list in.
func (s *Session) SwapList() error { return s.cmd0("swap") }

// LoadIdentity resets the bitmap transform matrix.
func (s *Session) LoadIdentity() error { return s.cmd0("loadidentity") }

// SetMatrix applies the current matrix to the display list.
func (s *Session) SetMatrix() error { return s.cmd0("setmatrix") }

// Stop stops spinner, screensaver or sketch.
func (s *Session) Stop() error { return s.cmd0("stop") }

// Logo plays the vendor logo animation.
func (s *Session) Logo() error { return s.cmd0("logo") }

// Testcard draws the built-in test card.
func (s *Session) Testcard() error { return s.cmd0("testcard") }

// Nop is a no-op instruction.
func (s *Session) Nop() error { return s.cmd0("nop") }

// Sync waits for the end of the video scan-out.
func (s *Session) Sync() error { return s.cmd0("sync") }

// Text draws a string. Format arguments are sent when options has
// OptFormat set.
func (s *Session) Text(x, y, font int, options uint16, text string, format ...int32) error {
	opts := []CmdOption{WithString(text)}
	if len(format) > 0 {
		opts = append(opts, WithBlob(Int32Blob(format...)))
	}
	return s.Command("text", i64(x, y, font, int(options)), opts...)
}

// Button draws a button with a label.
func (s *Session) Button(x, y, w, h, font int, options uint16, label string) error {
	return s.Command("button", i64(x, y, w, h, font, int(options)), WithString(label))
}

// Keys draws a row of keys, one per character of keys.
func (s *Session) Keys(x, y, w, h, font int, options uint16, keys string) error {
	return s.Command("keys", i64(x, y, w, h, font, int(options)), WithString(keys))
}

// Toggle draws a toggle switch with off and on labels.
func (s *Session) Toggle(x, y, w, font int, options, state uint16, off, on string) error {
	return s.Command("toggle", i64(x, y, w, font, int(options), int(state)), WithString(off+"\xff"+on))
}

// Number draws a decimal number.
func (s *Session) Number(x, y, font int, options uint16, n int32) error {
	return s.Command("number", i64(x, y, font, int(options), int(n)))
}

// Spinner starts an animated spinner.
func (s *Session) Spinner(x, y int, style, scale uint16) error {
	return s.Command("spinner", i64(x, y, int(style), int(scale)))
}

// CalibrateCmd starts the touch calibration routine; see also Calibrate.
func (s *Session) CalibrateCmd(result uint32) error {
	return s.Command("calibrate", []int64{int64(result)})
}

// Track registers a tracking area for the tag.
func (s *Session) Track(x, y, w, h, tag int) error {
	return s.Command("track", i64(x, y, w, h, tag))
}

// Dial draws a rotary dial; value is in degrees.
func (s *Session) Dial(x, y, r int, options uint16, degrees float64) error {
	return s.Command("dial", []int64{int64(x), int64(y), int64(r), int64(options), int64(Furmans(degrees))})
}

// Rotate applies a rotation in degrees to the bitmap matrix.
func (s *Session) Rotate(degrees float64) error {
	return s.Command("rotate", []int64{int64(Furmans(degrees))})
}

// RotateAround rotates and scales the bitmap matrix around (x, y).
func (s *Session) RotateAround(x, y int, degrees, scale float64) error {
	return s.Command("rotatearound", []int64{int64(x), int64(y), int64(Furmans(degrees)), int64(F16(scale))})
}

// Scale applies a scale to the bitmap matrix.
func (s *Session) Scale(sx, sy float64) error {
	return s.Command("scale", []int64{int64(F16(sx)), int64(F16(sy))})
}

// Translate applies a translation in pixels to the bitmap matrix.
func (s *Session) Translate(tx, ty float64) error {
	return s.Command("translate", []int64{int64(F16(tx)), int64(F16(ty))})
}

// RegWrite writes a register through the command stream.
func (s *Session) RegWrite(addr, v uint32) error {
	return s.Command("regwrite", []int64{int64(addr), 4, int64(v)})
}

// MemWrite writes data to device memory through the command stream.
func (s *Session) MemWrite(addr uint32, data []byte) error {
	return s.Command("memwrite", []int64{int64(addr), int64(len(data))}, WithBlob(data))
}

// MediaFIFO sets up the media FIFO ring at base.
func (s *Session) MediaFIFO(base, size uint32) error {
	return s.Command("mediafifo", []int64{int64(base), int64(size)})
}

// PlayVideo starts video playback.
func (s *Session) PlayVideo(options uint32) error {
	return s.Command("playvideo", []int64{int64(options)})
}

// SetRotate sets the screen orientation.
func (s *Session) SetRotate(r uint32) error {
	return s.Command("setrotate", []int64{int64(r)})
}

// RomFont loads a ROM font into a bitmap handle.
func (s *Session) RomFont(font, romslot uint32) error {
	if err := s.SaveContext(); err != nil {
		return err
	}
	if err := s.Command("romfont", []int64{int64(font), int64(romslot)}); err != nil {
		return err
	}
	return s.RestoreContext()
}
