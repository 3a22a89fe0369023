package protocol

import (
	"io"
	"sync"
)

// CommandHandler handles one decoded command. data holds the bytes after
// the command id; the handler consumes its arguments from it.
type CommandHandler func(cmdID uint16, data *[]byte) error

// DeviceTransport is the microcontroller end of a Klipper link. It checks
// sequence numbers, dispatches the commands in each frame and acknowledges
// every frame, in order, after any responses the commands produced.
type DeviceTransport struct {
	mu      sync.Mutex
	out     io.Writer
	dec     *Decoder
	next    uint8
	handler CommandHandler
	onReset func()
}

// NewDeviceTransport creates a transport that writes to out and passes
// commands to handler.
func NewDeviceTransport(out io.Writer, handler CommandHandler) *DeviceTransport {
	t := &DeviceTransport{
		out:     out,
		next:    MessageDest,
		handler: handler,
	}
	t.dec = &Decoder{synced: true, CheckDest: true, OnResync: t.sendAck}
	return t
}

// SetResetCallback sets a function called when the host restarts its
// sequence numbering.
func (t *DeviceTransport) SetResetCallback(fn func()) {
	t.onReset = fn
}

// Receive parses and handles every complete frame in input.
func (t *DeviceTransport) Receive(input InputBuffer) {
	data := input.Data()
	total := len(data)
	for {
		msg, rest := t.dec.Next(data)
		data = rest
		if msg == nil {
			break
		}
		t.handleFrame(msg)
	}
	input.Pop(total - len(data))
}

func (t *DeviceTransport) handleFrame(msg *Message) {
	t.mu.Lock()
	if msg.Sequence == MessageDest && t.next != MessageDest {
		t.next = MessageDest
		if t.onReset != nil {
			t.onReset()
		}
	}
	match := msg.Sequence == t.next
	if match {
		t.next = NextSequence(msg.Sequence)
	}
	t.mu.Unlock()

	if match {
		frame := msg.Payload
		for len(frame) > 0 {
			id, err := DecodeVLQUint(&frame)
			if err != nil {
				break
			}
			if t.handler == nil {
				break
			}
			if err := t.handler(uint16(id), &frame); err != nil {
				break
			}
		}
	}
	// A mismatched frame still gets an ack naming the expected sequence.
	t.sendAck()
}

func (t *DeviceTransport) sendAck() {
	t.mu.Lock()
	seq := t.next
	t.mu.Unlock()
	ack, _ := AppendFrame(nil, seq, nil)
	_, _ = t.out.Write(ack)
}

// SendResponse frames and writes one response message.
func (t *DeviceTransport) SendResponse(cmdID uint16, args func(output OutputBuffer)) error {
	t.mu.Lock()
	seq := t.next
	t.mu.Unlock()
	msg, err := AppendFrame(nil, seq, EncodePayload(cmdID, args))
	if err != nil {
		return err
	}
	_, err = t.out.Write(msg)
	return err
}
