package inspect

import (
	"errors"
	"testing"

	"goeve/eve"
)

func TestEncodeCommand(t *testing.T) {
	got, err := EncodeCommand("text", []int64{10, 20, 28, 0}, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if want := "0cffffff0a0014001c00000068690000"; got != want {
		t.Errorf("EncodeCommand = %s, want %s", got, want)
	}

	if _, err := EncodeCommand("nosuch", nil, ""); !errors.Is(err, eve.ErrUnknownCommand) {
		t.Errorf("unknown name: %v", err)
	}
	if _, err := EncodeCommand("text", []int64{1}, ""); !errors.Is(err, eve.ErrSchemaMismatch) {
		t.Errorf("short args: %v", err)
	}
}

func TestDecodeCommand(t *testing.T) {
	r, err := DecodeCommand("0cffffff0a00ecff1c00000068690000")
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "text" || r.Text != "hi" || r.Size != 16 {
		t.Errorf("record = %+v", r)
	}
	if len(r.Args) != 4 || r.Args[0] != 10 || r.Args[1] != -20 || r.Args[2] != 28 {
		t.Errorf("args = %v", r.Args)
	}

	testCases := []struct {
		name string
		hex  string
	}{
		{"not hex", "zz"},
		{"short", "0cff"},
		{"unknown opcode", "00000000"},
		{"truncated", "0cffffff0a00"},
	}
	for _, tc := range testCases {
		if _, err := DecodeCommand(tc.hex); err == nil {
			t.Errorf("%s: no error", tc.name)
		}
	}
}

func TestEncodeFrame(t *testing.T) {
	got, err := EncodeFrame(0, 1, []int32{5, 32})
	if err != nil {
		t.Fatal(err)
	}
	if want := "0810010520ac6f7e"; got != want {
		t.Errorf("EncodeFrame = %s, want %s", got, want)
	}
}

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame("7e0810010520ac6f7e")
	if err != nil {
		t.Fatal(err)
	}
	if f.Length != 8 || f.Sequence != 0x10 || f.CRC != 0xac6f || f.CmdID != 1 {
		t.Errorf("frame = %+v", f)
	}
	if len(f.Params) != 2 || f.Params[0] != 5 || f.Params[1] != 32 {
		t.Errorf("params = %v", f.Params)
	}

	if _, err := DecodeFrame("0810010520ac6f00"); err == nil {
		t.Error("corrupt frame decoded")
	}
}
