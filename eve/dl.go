package eve

// Display list instructions. Each is one 32-bit word appended to the
// command stream between DLStart and Display.

func (s *Session) dl(word uint32) error {
	if s.fifo.faulted {
		return ErrCoprocessorFault
	}
	return s.enqueue([]byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)})
}

func bit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Display ends the display list.
func (s *Session) Display() error { return s.dl(0) }

// Clear clears the color, stencil and tag buffers selected.
func (s *Session) Clear(color, stencil, tag bool) error {
	return s.dl(38<<24 | bit(color)<<2 | bit(stencil)<<1 | bit(tag))
}

// ClearColorRGB sets the clear color.
func (s *Session) ClearColorRGB(r, g, b uint8) error {
	return s.dl(2<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// ColorRGB sets the current drawing color.
func (s *Session) ColorRGB(r, g, b uint8) error {
	return s.dl(4<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// ColorA sets the current alpha.
func (s *Session) ColorA(a uint8) error {
	return s.dl(16<<24 | uint32(a))
}

// Begin starts drawing the given primitive.
func (s *Session) Begin(prim uint8) error {
	return s.dl(31<<24 | uint32(prim&0x0f))
}

// End ends the current primitive.
func (s *Session) End() error { return s.dl(33 << 24) }

// Tag sets the tag value written by subsequent drawing.
func (s *Session) Tag(t uint8) error { return s.dl(3<<24 | uint32(t)) }

// TagMask enables or disables tag buffer updates.
func (s *Session) TagMask(on bool) error { return s.dl(20<<24 | bit(on)) }

// SaveContext pushes the graphics context.
func (s *Session) SaveContext() error { return s.dl(35 << 24) }

// RestoreContext pops the graphics context.
func (s *Session) RestoreContext() error { return s.dl(34 << 24) }

// PointSize sets the point radius in pixels.
func (s *Session) PointSize(px float64) error {
	return s.dl(13<<24 | uint32(int32(px*16))&0x1fff)
}

// LineWidth sets the line width in pixels.
func (s *Session) LineWidth(px float64) error {
	return s.dl(14<<24 | uint32(int32(px*16))&0xfff)
}

// VertexFormat sets the fractional precision of Vertex2f coordinates.
func (s *Session) VertexFormat(frac uint8) error {
	if frac > 4 {
		frac = 4
	}
	s.vertexShift = uint(frac)
	return s.dl(39<<24 | uint32(frac))
}

// VertexTranslateX offsets subsequent vertices horizontally, in pixels.
func (s *Session) VertexTranslateX(px float64) error {
	return s.dl(43<<24 | uint32(int32(px*16))&0x1ffff)
}

// VertexTranslateY offsets subsequent vertices vertically, in pixels.
func (s *Session) VertexTranslateY(px float64) error {
	return s.dl(44<<24 | uint32(int32(px*16))&0x1ffff)
}

// Vertex2f places a vertex at pixel coordinates, scaled by the current
// vertex format.
func (s *Session) Vertex2f(x, y float64) error {
	scale := float64(int(1) << s.vertexShift)
	xi := uint32(int32(x*scale)) & 0x7fff
	yi := uint32(int32(y*scale)) & 0x7fff
	return s.dl(1<<30 | xi<<15 | yi)
}

// Vertex2ii places a vertex at integer coordinates with a bitmap handle
// and cell.
func (s *Session) Vertex2ii(x, y uint16, handle, cell uint8) error {
	return s.dl(2<<30 | uint32(x&511)<<21 | uint32(y&511)<<12 | uint32(handle&31)<<7 | uint32(cell&127))
}

// Swap ends the current display list, swaps it in, and starts a new one.
func (s *Session) Swap() error {
	if err := s.Display(); err != nil {
		return err
	}
	if err := s.SwapList(); err != nil {
		return err
	}
	if err := s.Flush(); err != nil {
		return err
	}
	if err := s.DLStart(); err != nil {
		return err
	}
	return s.LoadIdentity()
}
