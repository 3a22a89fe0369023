// Package protocol implements the Klipper serial protocol: message framing,
// VLQ argument encoding and the acknowledged host link used to drive a
// bridge microcontroller.
package protocol

import "errors"

// Frame layout.
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7e
	MessageDest        = 0x10
	MessageSeqMask     = 0x0f
)

var (
	ErrMessageTooLong = errors.New("protocol: message too long")
	ErrAckTimeout     = errors.New("protocol: ack timeout")
	ErrNoResponse     = errors.New("protocol: response timeout")
	ErrSequence       = errors.New("protocol: sequence mismatch")
	ErrClosed         = errors.New("protocol: transport closed")
)

// Message is one decoded frame.
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // frame data without header and trailer
	CRC      uint16
}

// NextSequence returns the sequence byte that follows seq.
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
