package eve

// Register addresses (BT81x memory map).
const (
	RegID        = 0x302000
	RegFrames    = 0x302004
	RegClock     = 0x302008
	RegFrequency = 0x30200c
	RegHCycle    = 0x30202c
	RegHOffset   = 0x302030
	RegHSize     = 0x302034
	RegHSync0    = 0x302038
	RegHSync1    = 0x30203c
	RegVCycle    = 0x302040
	RegVOffset   = 0x302044
	RegVSize     = 0x302048
	RegVSync0    = 0x30204c
	RegVSync1    = 0x302050
	RegDither    = 0x302060
	RegSwizzle   = 0x302064
	RegCSpread   = 0x302068
	RegPCLKPol   = 0x30206c
	RegPCLK      = 0x302070
	RegGPIOXDir  = 0x302098
	RegGPIOX     = 0x30209c

	RegTouchRawXY = 0x30211c

	RegCmdbSpace = 0x302574
	RegCmdbWrite = 0x302578
	RegPCLKFreq  = 0x302614

	RegTracker        = 0x309000
	RegMediaFIFORead  = 0x309014
	RegMediaFIFOWrite = 0x309018
)

// ChipID is the value of RegID once the chip is running.
const ChipID = 0x7c

// FIFOMax is the free-space value of a fully drained command FIFO.
const FIFOMax = 0xffc

// Coprocessor option bits.
const (
	Opt3D         = 0
	OptRGB565     = 0
	OptMono       = 1
	OptNoDL       = 2
	OptNoTear     = 4
	OptFullscreen = 8
	OptMediaFIFO  = 16
	OptSound      = 32
	OptFlat       = 256
	OptSigned     = 256
	OptCenterX    = 512
	OptCenterY    = 1024
	OptCenter     = 1536
	OptRightX     = 2048
	OptNoBack     = 4096
	OptFill       = 8192
	OptFlash      = 64
	OptFormat     = 4096
	OptNoTicks    = 8192
	OptNoHM       = 16384
	OptNoPointer  = 16384
	OptNoSecs     = 32768
	OptNoHands    = 49152
)

// Graphics primitives for Begin.
const (
	Bitmaps    = 1
	Points     = 2
	Lines      = 3
	LineStrip  = 4
	EdgeStripR = 5
	EdgeStripL = 6
	EdgeStripA = 7
	EdgeStripB = 8
	Rects      = 9
)
