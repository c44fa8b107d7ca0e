package ffi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// TransportMode specifies how input calls reach the engine.
type TransportMode int

const (
	// TransportDirect calls each entry point as soon as the view invokes it.
	TransportDirect TransportMode = iota

	// TransportBatch encodes input calls into a binary buffer and hands the
	// whole buffer to the engine in one call, right before the next direct
	// call (normally the redraw).
	TransportBatch
)

func (m TransportMode) String() string {
	switch m {
	case TransportDirect:
		return "direct"
	case TransportBatch:
		return "batch"
	default:
		return fmt.Sprintf("TransportMode(%d)", int(m))
	}
}

// ParseTransportMode parses a config value. Empty means direct.
func ParseTransportMode(s string) (TransportMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct":
		return TransportDirect, nil
	case "batch":
		return TransportBatch, nil
	default:
		return TransportDirect, fmt.Errorf("unknown transport %q (want direct or batch)", s)
	}
}

// Command types for the batch protocol.
// These must match the engine side exactly.
// Using u16 with 256-spacing between groups to allow room for growth.
type CommandType uint16

const (
	// Mouse-style input (0x0100 - 0x01FF)
	CmdMouseButtonDown CommandType = 0x0100
	CmdMouseButtonUp   CommandType = 0x0101
	CmdMouseMove       CommandType = 0x0102
	CmdScroll          CommandType = 0x0103

	// Multi-pointer input (0x0200 - 0x02FF)
	CmdPointerButtonDown CommandType = 0x0200
	CmdPointerButtonUp   CommandType = 0x0201
	CmdPointerMove       CommandType = 0x0202

	// Gestures (0x0300 - 0x03FF)
	CmdLongPress     CommandType = 0x0300
	CmdKineticScroll CommandType = 0x0301
)

// Response types for the batch protocol.
type ResponseType uint8

const (
	RespSuccess ResponseType = 0
	RespError   ResponseType = 1
)

// Buffer sizes - will grow as needed
const (
	initialRequestBufferSize  = 16 * 1024        // 16KB
	initialResponseBufferSize = 4 * 1024         // 4KB
	maxBufferSize             = 16 * 1024 * 1024 // 16MB max
)

// resultBufferTooSmall is returned by the engine when the response buffer
// cannot hold all responses.
const resultBufferTooSmall = -2

// ErrBatchFailed wraps every error reported by a batch flush.
var ErrBatchFailed = errors.New("ffi: batch execution failed")

// batchExecutor runs one encoded request and writes responses into
// response. It returns the number of response bytes and the engine's status
// code (negative on failure).
type batchExecutor func(request, response []byte) (int, int32)

// batchTransport accumulates commands until Flush.
//
// Request layout: count(4) + [cmd(2) + payloadLen(4) + payload]...
// Response layout: count(4) + [type(1) + payloadLen(4) + payload]...
// All integers are little-endian.
type batchTransport struct {
	exec     batchExecutor
	request  []byte
	count    uint32
	response []byte
}

func newBatchTransport(exec batchExecutor) *batchTransport {
	t := &batchTransport{
		exec:     exec,
		request:  make([]byte, 4, initialRequestBufferSize),
		response: make([]byte, initialResponseBufferSize),
	}
	return t
}

// Pending returns the number of commands waiting for Flush.
func (t *batchTransport) Pending() int {
	return int(t.count)
}

// Add appends one command to the pending request.
func (t *batchTransport) Add(cmd CommandType, payload []byte) {
	t.request = binary.LittleEndian.AppendUint16(t.request, uint16(cmd))
	t.request = binary.LittleEndian.AppendUint32(t.request, uint32(len(payload)))
	t.request = append(t.request, payload...)
	t.count++
}

// Flush sends the pending commands. The pending request is cleared even on
// failure so a bad command is not resent every frame.
func (t *batchTransport) Flush() error {
	if t.count == 0 {
		return nil
	}
	defer t.reset()

	if len(t.request) > maxBufferSize {
		return fmt.Errorf("%w: request buffer would exceed max size", ErrBatchFailed)
	}
	binary.LittleEndian.PutUint32(t.request[0:4], t.count)

	n, result := t.exec(t.request, t.response)
	if result == resultBufferTooSmall {
		// Response buffer too small, grow and retry
		newSize := len(t.response) * 2
		if newSize > maxBufferSize {
			return fmt.Errorf("%w: response buffer would exceed max size", ErrBatchFailed)
		}
		t.response = make([]byte, newSize)
		n, result = t.exec(t.request, t.response)
	}
	if result < 0 {
		return fmt.Errorf("%w: engine returned %d", ErrBatchFailed, result)
	}
	if n > len(t.response) {
		return fmt.Errorf("%w: engine wrote %d bytes into a %d byte buffer", ErrBatchFailed, n, len(t.response))
	}

	types, payloads, err := parseResponses(t.response[:n])
	if err != nil {
		return err
	}
	if len(types) != int(t.count) {
		return fmt.Errorf("%w: %d responses for %d commands", ErrBatchFailed, len(types), t.count)
	}
	for i, typ := range types {
		if typ == RespError {
			return fmt.Errorf("%w: command %d: %s", ErrBatchFailed, i, payloads[i])
		}
	}
	return nil
}

func (t *batchTransport) reset() {
	t.request = t.request[:4]
	t.count = 0
}

// parseResponses decodes a response buffer.
func parseResponses(buf []byte) ([]ResponseType, [][]byte, error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("%w: response too short", ErrBatchFailed)
	}

	count := int(binary.LittleEndian.Uint32(buf[0:4]))
	offset := 4

	types := make([]ResponseType, 0, count)
	payloads := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if offset+5 > len(buf) {
			return nil, nil, fmt.Errorf("%w: response truncated", ErrBatchFailed)
		}
		typ := ResponseType(buf[offset])
		offset++

		payloadLen := int(binary.LittleEndian.Uint32(buf[offset : offset+4]))
		offset += 4
		if offset+payloadLen > len(buf) {
			return nil, nil, fmt.Errorf("%w: response payload truncated", ErrBatchFailed)
		}

		// Copy payload (don't reference buffer directly as it may be reused)
		payload := make([]byte, payloadLen)
		copy(payload, buf[offset:offset+payloadLen])
		offset += payloadLen

		types = append(types, typ)
		payloads = append(payloads, payload)
	}
	return types, payloads, nil
}

// Payload encoders

func encodePoint(x, y int) []byte {
	buf := make([]byte, 0, 8)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(x)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(y)))
	return buf
}

func encodePointer(x, y float32, pointerID int) []byte {
	buf := make([]byte, 0, 12)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(y))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(pointerID)))
	return buf
}

func encodeScroll(originX, originY int, velocityX, velocityY float32) []byte {
	buf := encodePoint(originX, originY)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(velocityX))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(velocityY))
	return buf
}
