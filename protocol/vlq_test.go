package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 95, 96, -32, -33, 127, -127, 128, -128,
		1000, -1000, 65535, -65535, 1000000, -1000000,
		1 << 30, -(1 << 30),
	}

	for _, want := range testCases {
		output := NewScratchOutput()
		EncodeVLQInt(output, want)
		encoded := output.Result()

		data := encoded
		got, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("decode %d: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as % x)", want, got, encoded)
		}
		if len(data) != 0 {
			t.Errorf("decode %d left %d bytes", want, len(data))
		}
	}
}

func TestVLQKnownEncodings(t *testing.T) {
	testCases := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7f}},
		{95, []byte{0x5f}},
		{96, []byte{0x80, 0x60}},
		{1000, []byte{0x87, 0x68}},
	}
	for _, tc := range testCases {
		out := NewScratchOutput()
		EncodeVLQInt(out, tc.v)
		if !bytes.Equal(out.Result(), tc.want) {
			t.Errorf("EncodeVLQInt(%d) = % x, want % x", tc.v, out.Result(), tc.want)
		}
		if VLQLen(uint32(tc.v)) != len(tc.want) {
			t.Errorf("VLQLen(%d) = %d, want %d", tc.v, VLQLen(uint32(tc.v)), len(tc.want))
		}
	}
}

func TestVLQEncodeDecodeUint(t *testing.T) {
	testCases := []uint32{0, 1, 127, 128, 255, 1000, 65535, 1000000, 0x7fffffff}

	for _, want := range testCases {
		output := NewScratchOutput()
		EncodeVLQUint(output, want)
		data := output.Result()

		got, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("decode %d: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("VLQ mismatch: expected %d, got %d", want, got)
		}
	}
}

func TestVLQBytes(t *testing.T) {
	testCases := [][]byte{
		{},
		{0x01},
		{0x01, 0x02, 0x03},
		{0xff, 0xfe, 0xfd},
		make([]byte, 50),
	}

	for i, want := range testCases {
		output := NewScratchOutput()
		EncodeVLQBytes(output, want)
		data := output.Result()

		got, err := DecodeVLQBytes(&data)
		if err != nil {
			t.Errorf("case %d: %v", i, err)
			continue
		}
		if !bytes.Equal(got, want) {
			t.Errorf("case %d: got % x, want % x", i, got, want)
		}
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	data := []byte{0x80}
	if _, err := DecodeVLQInt(&data); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}

	data = []byte{0x05, 1, 2}
	if _, err := DecodeVLQBytes(&data); !errors.Is(err, ErrInvalidVLQ) {
		t.Errorf("short byte string: got %v", err)
	}
}
