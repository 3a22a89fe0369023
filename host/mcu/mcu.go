// Package mcu talks to a Klipper protocol microcontroller: it fetches the
// data dictionary, sends commands by name and waits for named responses.
package mcu

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"goeve/host/serial"
	"goeve/logging"
	"goeve/protocol"
)

// Identify is the one command id fixed by the protocol; everything else is
// learned from the dictionary.
const (
	identifyCmdID      = 1
	identifyResponseID = 0
	identifyChunk      = 40
)

// DefaultResponseTimeout bounds Query and WaitResponse.
const DefaultResponseTimeout = time.Second

var (
	ErrNotConnected   = errors.New("mcu: not connected")
	ErrNoDictionary   = errors.New("mcu: dictionary not loaded")
	ErrUnknownCommand = errors.New("mcu: unknown command")
)

// MCU is a connection to a Klipper microcontroller.
type MCU struct {
	transport *protocol.HostTransport
	port      io.ReadWriteCloser

	dictionary     *Dictionary
	dictionaryData []byte
	commands       map[string]Format
	responses      map[string]Format

	timeout   time.Duration
	connected bool
}

// Dictionary is the parsed data dictionary.
type Dictionary struct {
	Version       string                    `json:"version"`
	BuildVersions string                    `json:"build_versions"`
	Config        map[string]any            `json:"config"`
	Commands      map[string]int            `json:"commands"`
	Responses     map[string]int            `json:"responses"`
	Enumerations  map[string]map[string]any `json:"enumerations,omitempty"`
}

// Format is one message format from the dictionary, such as
// "spi_transfer oid=%c data=%*s".
type Format struct {
	ID     uint16
	Name   string
	Params []string
}

func parseFormat(spec string, id int) Format {
	fields := strings.Fields(spec)
	f := Format{ID: uint16(id)}
	if len(fields) > 0 {
		f.Name = fields[0]
		f.Params = fields[1:]
	}
	return f
}

// New creates an MCU that is not yet connected.
func New() *MCU {
	return &MCU{timeout: DefaultResponseTimeout}
}

// Connect opens device with the default serial settings.
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a serial port and starts the protocol link.
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.Attach(port)

	// a freshly powered MCU needs a moment before it answers
	time.Sleep(100 * time.Millisecond)
	return nil
}

// Attach starts the protocol link over an already open port.
func (m *MCU) Attach(port io.ReadWriteCloser) {
	m.port = port
	m.transport = protocol.NewHostTransport(port)
	m.connected = true
}

// SetTimeout sets how long Query and WaitResponse wait.
func (m *MCU) SetTimeout(d time.Duration) {
	m.timeout = d
}

// Close shuts the link down.
func (m *MCU) Close() error {
	m.connected = false
	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

// IsConnected reports whether the link is up.
func (m *MCU) IsConnected() bool {
	return m.connected
}

// RetrieveDictionary downloads and parses the data dictionary.
func (m *MCU) RetrieveDictionary() error {
	if !m.connected {
		return ErrNotConnected
	}
	logging.Info(logging.ComponentMCU, "retrieving dictionary")

	var buf bytes.Buffer
	offset := uint32(0)
	for i := 0; i < 1000; i++ {
		chunk, err := m.identify(offset, identifyChunk)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		buf.Write(chunk)
		offset += uint32(len(chunk))
		if len(chunk) < identifyChunk {
			break
		}
	}

	m.dictionaryData = buf.Bytes()
	if data, err := inflate(m.dictionaryData); err == nil {
		logging.Debug(logging.ComponentMCU, "dictionary decompressed",
			"compressed", len(m.dictionaryData), "size", len(data))
		m.dictionaryData = data
	}
	if err := m.parseDictionary(); err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}
	logging.Info(logging.ComponentMCU, "dictionary loaded",
		"version", m.dictionary.Version, "commands", len(m.commands), "responses", len(m.responses))
	return nil
}

// identify fetches one dictionary chunk. identify and its response have
// fixed ids so they work before the dictionary is known.
func (m *MCU) identify(offset uint32, count uint8) ([]byte, error) {
	err := m.transport.SendCommand(identifyCmdID, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQUint(out, uint32(count))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send identify command: %w", err)
	}

	payload, err := m.waitResponseID(identifyResponseID, m.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to receive identify response: %w", err)
	}
	got, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response offset: %w", err)
	}
	if got != offset {
		return nil, fmt.Errorf("offset mismatch: expected %d, got %d", offset, got)
	}
	data, err := protocol.DecodeVLQBytes(&payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response data: %w", err)
	}
	return data, nil
}

// inflate decompresses a zlib-wrapped dictionary.
func inflate(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x78 {
		return nil, errors.New("not zlib compressed")
	}
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (m *MCU) parseDictionary() error {
	dict := &Dictionary{}
	if err := json.Unmarshal(m.dictionaryData, dict); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	m.dictionary = dict
	m.commands = make(map[string]Format, len(dict.Commands))
	for spec, id := range dict.Commands {
		f := parseFormat(spec, id)
		m.commands[f.Name] = f
	}
	m.responses = make(map[string]Format, len(dict.Responses))
	for spec, id := range dict.Responses {
		f := parseFormat(spec, id)
		m.responses[f.Name] = f
	}
	return nil
}

// Dictionary returns the parsed dictionary, or nil before
// RetrieveDictionary.
func (m *MCU) Dictionary() *Dictionary {
	return m.dictionary
}

// DictionaryRaw returns the dictionary JSON.
func (m *MCU) DictionaryRaw() []byte {
	return m.dictionaryData
}

// Command looks up a command format by name.
func (m *MCU) Command(name string) (Format, error) {
	if m.dictionary == nil {
		return Format{}, ErrNoDictionary
	}
	f, ok := m.commands[name]
	if !ok {
		return Format{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return f, nil
}

// Response looks up a response format by name.
func (m *MCU) Response(name string) (Format, error) {
	if m.dictionary == nil {
		return Format{}, ErrNoDictionary
	}
	f, ok := m.responses[name]
	if !ok {
		return Format{}, fmt.Errorf("%w: response %s", ErrUnknownCommand, name)
	}
	return f, nil
}

// SendCommand sends a command by name and waits for the link-level ack.
func (m *MCU) SendCommand(name string, args func(output protocol.OutputBuffer)) error {
	if !m.connected {
		return ErrNotConnected
	}
	f, err := m.Command(name)
	if err != nil {
		return err
	}
	return m.transport.SendCommand(f.ID, args)
}

// WaitResponse waits for the next response called name and returns its
// arguments. Other responses received meanwhile are dropped.
func (m *MCU) WaitResponse(name string) ([]byte, error) {
	f, err := m.Response(name)
	if err != nil {
		return nil, err
	}
	return m.waitResponseID(f.ID, m.timeout)
}

func (m *MCU) waitResponseID(id uint16, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, fmt.Errorf("%w: response %d", protocol.ErrNoResponse, id)
		}
		msg, err := m.transport.ReceiveResponse(left)
		if err != nil {
			return nil, err
		}
		payload := msg.Payload
		got, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			continue
		}
		if uint16(got) == id {
			return payload, nil
		}
		logging.Debug(logging.ComponentMCU, "skipping response", "id", got, "want", id)
	}
}

// Query sends a command and waits for the named response.
func (m *MCU) Query(name string, args func(output protocol.OutputBuffer), response string) ([]byte, error) {
	if err := m.SendCommand(name, args); err != nil {
		return nil, err
	}
	return m.WaitResponse(response)
}

// Summary writes a readable digest of the dictionary to w.
func (m *MCU) Summary(w io.Writer) {
	d := m.dictionary
	if d == nil {
		fmt.Fprintln(w, "No dictionary loaded")
		return
	}
	fmt.Fprintf(w, "Version: %s\n", d.Version)
	fmt.Fprintf(w, "Build: %s\n", d.BuildVersions)

	keys := make([]string, 0, len(d.Config))
	for k := range d.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(w, "Config:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %v\n", k, d.Config[k])
	}

	names := make([]string, 0, len(m.commands))
	for n := range m.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "Commands (%d):\n", len(names))
	for _, n := range names {
		f := m.commands[n]
		fmt.Fprintf(w, "  [%d] %s %s\n", f.ID, f.Name, strings.Join(f.Params, " "))
	}
	fmt.Fprintf(w, "Responses (%d)\n", len(m.responses))
}
