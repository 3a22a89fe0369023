// Package eve drives an EVE-class display coprocessor over a register
// oriented serial bus.
//
// A Session owns one device connection. It brings the chip up with Boot,
// serializes coprocessor instructions into a host-side buffer, and pushes
// them into the chip's command FIFO under flow control:
//
//	s := eve.New(bus)
//	if err := s.Boot(); err != nil {
//	    return err
//	}
//	s.DLStart()
//	s.ClearColorRGB(0, 60, 0)
//	s.Clear(true, true, true)
//	s.Text(400, 240, 31, eve.OptCenter, "Hello world")
//	s.Swap()
//	return s.Finish()
//
// The bus itself is supplied by a transport package (hal/spidev,
// hal/tinyspi, hal/klipper) or by a test double.
//
// # Faults
//
// When the coprocessor raises its fault flag every FIFO operation fails
// with ErrCoprocessorFault. Nothing recovers automatically: the caller
// must run Boot again, which performs a full cold start.
//
// # Concurrency
//
// A Session is not safe for concurrent use. All waiting is done by polling
// the device; see Poller for bounding it.
package eve
