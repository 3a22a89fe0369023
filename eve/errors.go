package eve

import "errors"

var (
	// ErrDeviceNotResponding indicates the identification register never
	// reported the chip ID during boot.
	ErrDeviceNotResponding = errors.New("eve: no response from device")

	// ErrCoprocessorFault indicates the coprocessor raised its fault flag.
	// It is terminal for the session until Boot is run again.
	ErrCoprocessorFault = errors.New("eve: coprocessor fault")

	// ErrTimeout indicates a bounded poller gave up waiting on the device.
	ErrTimeout = errors.New("eve: timed out waiting for device")

	// ErrSchemaMismatch indicates a command was given the wrong number of
	// arguments for its schema.
	ErrSchemaMismatch = errors.New("eve: argument count does not match schema")

	// ErrShortRead indicates the bus returned fewer bytes than requested.
	ErrShortRead = errors.New("eve: short read from bus")

	// ErrUnknownCommand indicates a catalog lookup failed.
	ErrUnknownCommand = errors.New("eve: unknown command")
)
