package protocol

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

const (
	cmdEcho      = 3
	respEcho     = 4
	cmdNoReply   = 5
	testDeadline = time.Second
)

// startDevice runs a DeviceTransport on one end of a pipe and returns a
// HostTransport on the other.
func startDevice(t *testing.T) (*HostTransport, *int) {
	t.Helper()
	hostEnd, devEnd := net.Pipe()

	handled := new(int)
	var dt *DeviceTransport
	dt = NewDeviceTransport(devEnd, func(id uint16, data *[]byte) error {
		*handled++
		switch id {
		case cmdEcho:
			v, err := DecodeVLQUint(data)
			if err != nil {
				return err
			}
			return dt.SendResponse(respEcho, func(out OutputBuffer) {
				EncodeVLQUint(out, v)
			})
		case cmdNoReply:
			_, err := DecodeVLQUint(data)
			return err
		}
		return errors.New("unknown command")
	})

	go func() {
		in := NewFifoBuffer(1024)
		buf := make([]byte, 256)
		for {
			n, err := devEnd.Read(buf)
			if n > 0 {
				in.Write(buf[:n])
				dt.Receive(in)
			}
			if err != nil {
				devEnd.Close()
				return
			}
		}
	}()

	ht := NewHostTransport(hostEnd)
	t.Cleanup(func() { ht.Close() })
	return ht, handled
}

func TestHostSendCommandAcked(t *testing.T) {
	ht, _ := startDevice(t)

	if err := ht.SendCommand(cmdNoReply, func(out OutputBuffer) { EncodeVLQUint(out, 1) }); err != nil {
		t.Fatal(err)
	}
	if ht.Sequence() != MessageDest+1 {
		t.Errorf("sequence = 0x%02x after one command", ht.Sequence())
	}
}

func TestHostSequenceWraps(t *testing.T) {
	ht, handled := startDevice(t)
	for i := 0; i < 17; i++ {
		if err := ht.SendCommand(cmdNoReply, func(out OutputBuffer) { EncodeVLQUint(out, uint32(i)) }); err != nil {
			t.Fatalf("command %d: %v", i, err)
		}
	}
	if ht.Sequence() != MessageDest+1 {
		t.Errorf("sequence = 0x%02x after 17 commands", ht.Sequence())
	}
	if *handled != 17 {
		t.Errorf("device handled %d commands", *handled)
	}
}

func TestHostResponse(t *testing.T) {
	ht, _ := startDevice(t)

	var gotID uint16
	var gotData []byte
	seen := make(chan struct{}, 1)
	ht.SetResponseHandler(func(id uint16, data []byte) {
		gotID = id
		gotData = append([]byte(nil), data...)
		seen <- struct{}{}
	})

	if err := ht.SendCommand(cmdEcho, func(out OutputBuffer) { EncodeVLQUint(out, 1000) }); err != nil {
		t.Fatal(err)
	}
	resp, err := ht.ReceiveResponse(testDeadline)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(resp.Payload, []byte{respEcho, 0x87, 0x68}) {
		t.Errorf("response payload = % x", resp.Payload)
	}
	<-seen
	if gotID != respEcho || !bytes.Equal(gotData, []byte{0x87, 0x68}) {
		t.Errorf("handler saw id %d data % x", gotID, gotData)
	}
}

func TestHostAckTimeout(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	go io.Copy(io.Discard, devEnd)
	ht := NewHostTransport(hostEnd)
	defer ht.Close()

	err := ht.SendCommandWithTimeout(cmdNoReply, nil, 20*time.Millisecond)
	if !errors.Is(err, ErrAckTimeout) {
		t.Errorf("err = %v, want ErrAckTimeout", err)
	}
	if ht.Sequence() != MessageDest {
		t.Error("sequence advanced without an ack")
	}
}

func TestHostPayloadTooLong(t *testing.T) {
	ht, handled := startDevice(t)
	err := ht.SendCommand(cmdNoReply, func(out OutputBuffer) {
		out.Output(make([]byte, MessagePayloadMax))
	})
	if !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("err = %v, want ErrMessageTooLong", err)
	}
	if *handled != 0 {
		t.Error("oversize command reached the device")
	}
}

func TestHostClosed(t *testing.T) {
	ht, _ := startDevice(t)
	if err := ht.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := ht.ReceiveResponse(testDeadline); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if err := ht.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
