// Package inspect backs the browser inspector: it encodes coprocessor
// command records and bridge frames to hex and decodes them back.
package inspect

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"goeve/eve"
	"goeve/protocol"
)

// Record is a decoded coprocessor command.
type Record struct {
	Name   string  `json:"name"`
	Opcode uint32  `json:"opcode"`
	Args   []int64 `json:"args"`
	Text   string  `json:"text,omitempty"`
	Size   int     `json:"size"`
}

// EncodeCommand serializes the named catalog command. A non-empty text is
// appended as the trailing string.
func EncodeCommand(name string, args []int64, text string) (string, error) {
	e, ok := eve.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", eve.ErrUnknownCommand, name)
	}
	var opts []eve.CmdOption
	if text != "" {
		opts = append(opts, eve.WithString(text))
	}
	rec, err := eve.AppendRecord(nil, e.Opcode(), e.Schema, args, opts...)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(rec), nil
}

func byOpcode(op uint32) (eve.Entry, bool) {
	for _, n := range eve.Commands() {
		if e, _ := eve.Lookup(n); e.Opcode() == op {
			return e, true
		}
	}
	return eve.Entry{}, false
}

// DecodeCommand decodes the first command record in hexStr. Bytes after
// the fixed fields are read as a NUL-terminated string when one is
// present.
func DecodeCommand(hexStr string) (Record, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return Record{}, err
	}
	if len(b) < 4 {
		return Record{}, errors.New("record shorter than an opcode")
	}
	op := binary.LittleEndian.Uint32(b)
	e, ok := byOpcode(op)
	if !ok {
		return Record{}, fmt.Errorf("%w: opcode 0x%08x", eve.ErrUnknownCommand, op)
	}
	r := Record{Name: e.Name, Opcode: op}
	off := 4
	for _, k := range e.Schema {
		if off+k.Size() > len(b) {
			return r, fmt.Errorf("record truncated in field %d", len(r.Args))
		}
		r.Args = append(r.Args, field(k, b[off:]))
		off += k.Size()
	}
	off = (off + 3) &^ 3
	if off < len(b) {
		if i := bytes.IndexByte(b[off:], 0); i >= 0 {
			r.Text = string(b[off : off+i])
			off += (i + 4) &^ 3
		}
	}
	if off > len(b) {
		off = len(b)
	}
	r.Size = off
	return r, nil
}

func field(k eve.Kind, b []byte) int64 {
	le := binary.LittleEndian
	switch k {
	case eve.Int8:
		return int64(int8(b[0]))
	case eve.Uint8:
		return int64(b[0])
	case eve.Int16:
		return int64(int16(le.Uint16(b)))
	case eve.Uint16:
		return int64(le.Uint16(b))
	case eve.Int32:
		return int64(int32(le.Uint32(b)))
	default:
		return int64(le.Uint32(b))
	}
}

// Frame is a decoded bridge message.
type Frame struct {
	Length   int     `json:"length"`
	Sequence int     `json:"sequence"`
	CRC      int     `json:"crc"`
	CmdID    int     `json:"cmdID"`
	Params   []int32 `json:"params"`
}

// EncodeFrame builds a complete message for command cmdID with integer
// parameters.
func EncodeFrame(seq uint8, cmdID uint16, params []int32) (string, error) {
	payload := protocol.EncodePayload(cmdID, func(out protocol.OutputBuffer) {
		for _, p := range params {
			protocol.EncodeVLQInt(out, p)
		}
	})
	f, err := protocol.AppendFrame(nil, protocol.MessageDest|seq&protocol.MessageSeqMask, payload)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(f), nil
}

// DecodeFrame decodes the first valid message in hexStr. Parameters are
// decoded as integers until one fails to parse.
func DecodeFrame(hexStr string) (Frame, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return Frame{}, err
	}
	msg, _ := protocol.NewDecoder().Next(b)
	if msg == nil {
		return Frame{}, errors.New("no valid frame")
	}
	f := Frame{Length: int(msg.Length), Sequence: int(msg.Sequence), CRC: int(msg.CRC)}
	p := msg.Payload
	if len(p) == 0 {
		f.CmdID = -1
		return f, nil
	}
	id, err := protocol.DecodeVLQUint(&p)
	if err != nil {
		return f, err
	}
	f.CmdID = int(id)
	for len(p) > 0 {
		v, err := protocol.DecodeVLQInt(&p)
		if err != nil {
			break
		}
		f.Params = append(f.Params, v)
	}
	return f, nil
}
