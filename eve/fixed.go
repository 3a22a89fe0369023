package eve

import "math"

// F16 converts v to 16.16 fixed point.
func F16(v float64) int32 {
	return int32(math.Round(65536 * v))
}

// Furmans converts an angle in degrees to the 16-bit fractional-turn unit
// used by rotation commands. Whole turns wrap to 0.
func Furmans(degrees float64) uint16 {
	return uint16(int64(math.Round(65536*degrees/360)) & 0xffff)
}
