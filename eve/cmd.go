package eve

import (
	"encoding/binary"
	"fmt"
)

// Kind is the wire type of one command field.
type Kind byte

// Field kinds, named after their format characters.
const (
	Int8   Kind = 'b'
	Uint8  Kind = 'B'
	Int16  Kind = 'h'
	Uint16 Kind = 'H'
	Int32  Kind = 'i'
	Uint32 Kind = 'I'
)

// Size returns the encoded width of k in bytes.
func (k Kind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32:
		return 4
	}
	return 0
}

// Schema is the fixed field layout of a command.
type Schema []Kind

// ParseSchema parses a compact format such as "hhhH".
func ParseSchema(format string) (Schema, error) {
	sc := make(Schema, 0, len(format))
	for i := 0; i < len(format); i++ {
		k := Kind(format[i])
		if k.Size() == 0 {
			return nil, fmt.Errorf("eve: bad schema %q: field %d is %q", format, i, format[i])
		}
		sc = append(sc, k)
	}
	return sc, nil
}

// MustSchema is like ParseSchema but panics on error. It is meant for
// static tables.
func MustSchema(format string) Schema {
	sc, err := ParseSchema(format)
	if err != nil {
		panic(err)
	}
	return sc
}

// Size returns the packed size of the fields, before padding.
func (sc Schema) Size() int {
	n := 0
	for _, k := range sc {
		n += k.Size()
	}
	return n
}

// String returns the compact format of the schema.
func (sc Schema) String() string {
	b := make([]byte, len(sc))
	for i, k := range sc {
		b[i] = byte(k)
	}
	return string(b)
}

// CmdOption attaches a trailing payload to a command record.
type CmdOption func(*tail)

type tail struct {
	str    string
	hasStr bool
	blob   []byte
}

// WithString appends s as a NUL-terminated UTF-8 string.
func WithString(s string) CmdOption {
	return func(t *tail) {
		t.str = s
		t.hasStr = true
	}
}

// WithBlob appends raw bytes after the fields and any string.
func WithBlob(b []byte) CmdOption {
	return func(t *tail) {
		t.blob = b
	}
}

// Int32Blob packs values as consecutive little-endian int32s, the layout
// used for format arguments that follow a string.
func Int32Blob(vals ...int32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
	}
	return b
}

// pad4 zero pads b so the bytes after base are a multiple of 4 long.
func pad4(b []byte, base int) []byte {
	for (len(b)-base)&3 != 0 {
		b = append(b, 0)
	}
	return b
}

// AppendRecord encodes one coprocessor instruction onto dst: a 4-byte
// opcode, the schema fields, then the optional string and blob. Each of
// the three sections is zero padded to a multiple of 4 bytes. Argument
// values are truncated to their field width.
func AppendRecord(dst []byte, op uint32, sc Schema, args []int64, opts ...CmdOption) ([]byte, error) {
	if len(args) != len(sc) {
		return dst, fmt.Errorf("%w: opcode 0x%08x schema %q got %d args", ErrSchemaMismatch, op, sc.String(), len(args))
	}
	var t tail
	for _, opt := range opts {
		opt(&t)
	}

	base := len(dst)
	dst = binary.LittleEndian.AppendUint32(dst, op)
	for i, k := range sc {
		v := args[i]
		switch k.Size() {
		case 1:
			dst = append(dst, byte(v))
		case 2:
			dst = binary.LittleEndian.AppendUint16(dst, uint16(v))
		case 4:
			dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
		}
	}
	dst = pad4(dst, base)

	if t.hasStr {
		dst = append(dst, t.str...)
		dst = pad4(append(dst, 0), base)
	}
	if len(t.blob) > 0 {
		dst = pad4(append(dst, t.blob...), base)
	}
	return dst, nil
}

// Cmd serializes one instruction into the session's command buffer. It is
// the single primitive behind every command helper.
func (s *Session) Cmd(op uint32, sc Schema, args []int64, opts ...CmdOption) error {
	if s.fifo.faulted {
		return ErrCoprocessorFault
	}
	rec, err := AppendRecord(make([]byte, 0, 4+sc.Size()+4), op, sc, args, opts...)
	if err != nil {
		return err
	}
	return s.enqueue(rec)
}
