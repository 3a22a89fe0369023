package protocol

import (
	"bytes"
	"fmt"
)

// AppendFrame appends one complete message carrying payload to dst.
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	n := MessageLengthMin + len(payload)
	if n > MessageLengthMax {
		return dst, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLong, n, MessageLengthMax)
	}
	start := len(dst)
	dst = append(dst, byte(n), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc), MessageValueSync), nil
}

// Decoder splits a received byte stream into messages. After a framing or
// CRC error it discards input up to the next sync byte.
type Decoder struct {
	synced bool

	// CheckDest rejects frames whose sequence byte lacks the destination
	// bits. Only the microcontroller side sets it.
	CheckDest bool

	// OnResync is called each time the decoder regains sync.
	OnResync func()
}

// NewDecoder returns a decoder that starts synchronized.
func NewDecoder() *Decoder {
	return &Decoder{synced: true}
}

// Synchronized reports whether the decoder is in sync with the stream.
func (d *Decoder) Synchronized() bool {
	return d.synced
}

// Next returns the first complete message in data and the bytes following
// it. With no complete message it returns nil and the bytes to keep for
// the next call.
func (d *Decoder) Next(data []byte) (*Message, []byte) {
	for len(data) > 0 {
		if !d.synced {
			i := bytes.IndexByte(data, MessageValueSync)
			if i < 0 {
				return nil, nil
			}
			data = data[i+1:]
			d.synced = true
			if d.OnResync != nil {
				d.OnResync()
			}
			continue
		}
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		n := int(data[MessagePositionLen])
		if n < MessageLengthMin || n > MessageLengthMax {
			d.synced = false
			continue
		}
		seq := data[MessagePositionSeq]
		if d.CheckDest && seq&^MessageSeqMask != MessageDest {
			d.synced = false
			continue
		}
		if len(data) < n {
			break
		}
		if data[n-MessageTrailerSync] != MessageValueSync {
			d.synced = false
			continue
		}
		crc := uint16(data[n-MessageTrailerCRC])<<8 | uint16(data[n-MessageTrailerCRC+1])
		if crc != CRC16(data[:n-MessageTrailerSize]) {
			d.synced = false
			continue
		}

		payload := make([]byte, n-MessageLengthMin)
		copy(payload, data[MessageHeaderSize:n-MessageTrailerSize])
		return &Message{Length: uint8(n), Sequence: seq, Payload: payload, CRC: crc}, data[n:]
	}
	return nil, data
}

// EncodePayload builds a message payload holding one command: its id
// followed by whatever args writes.
func EncodePayload(cmdID uint16, args func(output OutputBuffer)) []byte {
	out := NewScratchOutput()
	EncodeVLQUint(out, uint32(cmdID))
	if args != nil {
		args(out)
	}
	return out.Result()
}
