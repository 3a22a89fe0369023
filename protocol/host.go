package protocol

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"goeve/logging"
)

// DefaultAckTimeout bounds how long SendCommand waits for an acknowledgement.
const DefaultAckTimeout = 2 * time.Second

// ResponseHandler is called from the read loop for every response message.
// data holds the payload after the command id.
type ResponseHandler func(cmdID uint16, data []byte)

// HostTransport is the host end of a Klipper link: it frames commands,
// waits for the microcontroller to acknowledge them and queues the
// responses it sends back.
type HostTransport struct {
	port io.ReadWriteCloser

	// seq is the sequence byte of the next command; guarded by writeMu.
	seq     uint8
	writeMu sync.Mutex

	dec *Decoder
	in  *FifoBuffer

	acks      chan *Message
	responses chan *Message

	handlerMu sync.Mutex
	handler   ResponseHandler

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewHostTransport starts a transport on port. The read loop runs until
// Close.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:      port,
		seq:       MessageDest,
		dec:       NewDecoder(),
		in:        NewFifoBuffer(1024),
		acks:      make(chan *Message, 4),
		responses: make(chan *Message, 32),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SendCommand sends one command and waits for its acknowledgement.
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, DefaultAckTimeout)
}

// SendCommandWithTimeout is SendCommand with a custom acknowledgement
// timeout.
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	payload := EncodePayload(cmdID, args)
	if len(payload) > MessagePayloadMax {
		return fmt.Errorf("%w: command %d payload is %d bytes", ErrMessageTooLong, cmdID, len(payload))
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	msg, err := AppendFrame(nil, t.seq, payload)
	if err != nil {
		return err
	}
	t.drainAcks()

	n, err := t.port.Write(msg)
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return t.waitForAck(timeout)
}

func (t *HostTransport) drainAcks() {
	for {
		select {
		case <-t.acks:
		default:
			return
		}
	}
}

// waitForAck waits for the acknowledgement of the command just sent. The
// microcontroller acknowledges with the sequence byte it expects next.
func (t *HostTransport) waitForAck(timeout time.Duration) error {
	want := NextSequence(t.seq)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ack := <-t.acks:
		if ack.Sequence != want {
			return fmt.Errorf("%w: expected 0x%02x, got 0x%02x", ErrSequence, want, ack.Sequence)
		}
		t.seq = want
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrAckTimeout, timeout)
	case <-t.stop:
		return ErrClosed
	}
}

// ReceiveResponse returns the next queued response message.
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-t.responses:
		return resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w after %v", ErrNoResponse, timeout)
	case <-t.stop:
		return nil, ErrClosed
	}
}

// SetResponseHandler installs a callback for every response.
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.handlerMu.Lock()
	t.handler = handler
	t.handlerMu.Unlock()
}

// Sequence returns the sequence byte the next command will carry.
func (t *HostTransport) Sequence() uint8 {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.seq
}

func (t *HostTransport) readLoop() {
	defer close(t.done)

	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			if w := t.in.Write(buf[:n]); w < n {
				logging.Warn(logging.ComponentMCU, "input overrun", "dropped", n-w)
			}
			t.processMessages()
		}
		select {
		case <-t.stop:
			return
		default:
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			// a serial read timeout with nothing received
		case errors.Is(err, io.ErrClosedPipe), errors.Is(err, os.ErrClosed):
			return
		default:
			logging.Debug(logging.ComponentMCU, "read error", "err", err)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *HostTransport) processMessages() {
	data := t.in.Data()
	total := len(data)
	for {
		msg, rest := t.dec.Next(data)
		data = rest
		if msg == nil {
			break
		}
		t.dispatchMessage(msg)
	}
	t.in.Pop(total - len(data))
}

// dispatchMessage routes an empty frame to the acknowledgement queue and
// everything else to the response queue.
func (t *HostTransport) dispatchMessage(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.acks <- msg:
		default:
			logging.Warn(logging.ComponentMCU, "ack dropped", "seq", msg.Sequence)
		}
		return
	}

	t.handlerMu.Lock()
	h := t.handler
	t.handlerMu.Unlock()
	if h != nil {
		payload := msg.Payload
		if id, err := DecodeVLQUint(&payload); err == nil {
			h(uint16(id), payload)
		}
	}

	select {
	case t.responses <- msg:
	default:
		// queue full: drop the oldest
		select {
		case <-t.responses:
		default:
		}
		t.responses <- msg
	}
}

// Close stops the read loop and closes the port.
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		err = t.port.Close()
		<-t.done
	})
	return err
}

// Reset returns the link to its initial sequence and discards everything
// queued.
func (t *HostTransport) Reset() {
	t.writeMu.Lock()
	t.seq = MessageDest
	t.writeMu.Unlock()

	t.drainAcks()
	for len(t.responses) > 0 {
		<-t.responses
	}
}
