package eve

// Bus is an exclusive channel to the coprocessor.
//
// Open acquires the channel (asserting chip select) and the returned Handle
// must be closed to release it. A Session opens one handle per exchange.
type Bus interface {
	Open() (Handle, error)
}

// Handle is an acquired bus.
type Handle interface {
	// Exchange clocks out tx, then clocks in rxLen bytes and returns them.
	Exchange(tx []byte, rxLen int) ([]byte, error)

	// Close deasserts chip select and releases the bus.
	Close() error
}

// Limiter is implemented by buses that cap the number of bytes moved in a
// single exchange. MaxTransfer counts both directions of one exchange.
type Limiter interface {
	MaxTransfer() int
}
