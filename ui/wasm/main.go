//go:build js && wasm

// Command wasm exposes the command and frame inspector to JavaScript as
// the global goeveWasm object.
package main

import (
	"encoding/hex"
	"syscall/js"

	"goeve/eve"
	"goeve/protocol"
	"goeve/ui/inspect"
)

func main() {
	js.Global().Set("goeveWasm", js.ValueOf(map[string]interface{}{
		"encodeCommand": js.FuncOf(encodeCommandWrapper),
		"decodeCommand": js.FuncOf(decodeCommandWrapper),
		"commands":      js.FuncOf(commandsWrapper),
		"crc16":         js.FuncOf(crc16Wrapper),
		"encodeFrame":   js.FuncOf(encodeFrameWrapper),
		"decodeFrame":   js.FuncOf(decodeFrameWrapper),
	}))

	// Keep the program running
	select {}
}

// encodeCommandWrapper encodes a catalog command
// Args: name (string), args (number[]), text (string, optional)
// Returns: {hex: string, error: string}
func encodeCommandWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeResult("", "missing arguments")
	}
	vals := make([]int64, args[1].Length())
	for i := range vals {
		vals[i] = int64(args[1].Index(i).Int())
	}
	text := ""
	if len(args) > 2 {
		text = args[2].String()
	}
	h, err := inspect.EncodeCommand(args[0].String(), vals, text)
	if err != nil {
		return makeResult("", err.Error())
	}
	return makeResult(h, "")
}

// decodeCommandWrapper decodes the first command record of a hex string
// Returns: {name, opcode, args, text, size, error}
func decodeCommandWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing hex string argument"})
	}
	r, err := inspect.DecodeCommand(args[0].String())
	out := map[string]interface{}{
		"name":   r.Name,
		"opcode": int(r.Opcode),
		"args":   int64s(r.Args),
		"text":   r.Text,
		"size":   r.Size,
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return js.ValueOf(out)
}

// commandsWrapper lists the catalog as {name: schema}
func commandsWrapper(this js.Value, args []js.Value) interface{} {
	out := make(map[string]interface{})
	for _, n := range eve.Commands() {
		e, _ := eve.Lookup(n)
		out[n] = e.Schema.String()
	}
	return js.ValueOf(out)
}

// crc16Wrapper calculates the frame CRC of a hex string
func crc16Wrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf(0)
	}
	return js.ValueOf(int(protocol.CRC16(data)))
}

// encodeFrameWrapper builds a bridge message
// Args: seq (number), cmdID (number), params (number[])
// Returns: {hex: string, error: string}
func encodeFrameWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeResult("", "missing arguments")
	}
	params := make([]int32, args[2].Length())
	for i := range params {
		params[i] = int32(args[2].Index(i).Int())
	}
	h, err := inspect.EncodeFrame(uint8(args[0].Int()), uint16(args[1].Int()), params)
	if err != nil {
		return makeResult("", err.Error())
	}
	return makeResult(h, "")
}

// decodeFrameWrapper decodes the first valid bridge message
// Returns: {length, sequence, crc, cmdID, params, error}
func decodeFrameWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing hex string argument"})
	}
	f, err := inspect.DecodeFrame(args[0].String())
	params := make([]interface{}, len(f.Params))
	for i, p := range f.Params {
		params[i] = int(p)
	}
	out := map[string]interface{}{
		"length":   f.Length,
		"sequence": f.Sequence,
		"crc":      f.CRC,
		"cmdID":    f.CmdID,
		"params":   params,
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return js.ValueOf(out)
}

func int64s(v []int64) []interface{} {
	out := make([]interface{}, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}

func makeResult(h string, errMsg string) js.Value {
	result := map[string]interface{}{"hex": h}
	if errMsg != "" {
		result["error"] = errMsg
	}
	return js.ValueOf(result)
}
