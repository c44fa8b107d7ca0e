package ffi

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// successResponses writes n success responses into response.
func successResponses(response []byte, n int) int {
	binary.LittleEndian.PutUint32(response[0:4], uint32(n))
	offset := 4
	for i := 0; i < n; i++ {
		response[offset] = byte(RespSuccess)
		binary.LittleEndian.PutUint32(response[offset+1:], 0)
		offset += 5
	}
	return offset
}

func TestParseTransportMode(t *testing.T) {
	tests := []struct {
		in      string
		want    TransportMode
		wantErr bool
	}{
		{in: "", want: TransportDirect},
		{in: "direct", want: TransportDirect},
		{in: " Batch ", want: TransportBatch},
		{in: "shm", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransportMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBatchRequestLayout(t *testing.T) {
	var captured []byte
	tr := newBatchTransport(func(request, response []byte) (int, int32) {
		captured = append([]byte(nil), request...)
		return successResponses(response, 2), 0
	})

	tr.Add(CmdMouseButtonDown, encodePoint(10, -20))
	tr.Add(CmdScroll, encodeScroll(1, 2, 1.5, -3))
	require.Equal(t, 2, tr.Pending())
	require.NoError(t, tr.Flush())
	assert.Equal(t, 0, tr.Pending())

	le := binary.LittleEndian
	require.Len(t, captured, 4+(2+4+8)+(2+4+16))
	assert.Equal(t, uint32(2), le.Uint32(captured[0:4]))

	assert.Equal(t, uint16(CmdMouseButtonDown), le.Uint16(captured[4:6]))
	assert.Equal(t, uint32(8), le.Uint32(captured[6:10]))
	assert.Equal(t, int32(10), int32(le.Uint32(captured[10:14])))
	assert.Equal(t, int32(-20), int32(le.Uint32(captured[14:18])))

	assert.Equal(t, uint16(CmdScroll), le.Uint16(captured[18:20]))
	assert.Equal(t, uint32(16), le.Uint32(captured[20:24]))
	assert.Equal(t, float32(1.5), math.Float32frombits(le.Uint32(captured[32:36])))
	assert.Equal(t, float32(-3), math.Float32frombits(le.Uint32(captured[36:40])))
}

func TestBatchFlushEmptyIsNoop(t *testing.T) {
	calls := 0
	tr := newBatchTransport(func(request, response []byte) (int, int32) {
		calls++
		return 0, 0
	})
	require.NoError(t, tr.Flush())
	assert.Zero(t, calls)
}

func TestBatchGrowsResponseBuffer(t *testing.T) {
	calls := 0
	tr := newBatchTransport(func(request, response []byte) (int, int32) {
		calls++
		if calls == 1 {
			return 0, resultBufferTooSmall
		}
		return successResponses(response, 1), 0
	})
	initial := len(tr.response)

	tr.Add(CmdMouseMove, encodePoint(1, 1))
	require.NoError(t, tr.Flush())
	assert.Equal(t, 2, calls)
	assert.Equal(t, initial*2, len(tr.response))
}

func TestBatchErrors(t *testing.T) {
	t.Run("engine failure", func(t *testing.T) {
		tr := newBatchTransport(func(request, response []byte) (int, int32) {
			return 0, -1
		})
		tr.Add(CmdMouseMove, encodePoint(1, 1))
		err := tr.Flush()
		assert.True(t, errors.Is(err, ErrBatchFailed))
		assert.Equal(t, 0, tr.Pending(), "failed batch must not be resent")
	})

	t.Run("command error", func(t *testing.T) {
		tr := newBatchTransport(func(request, response []byte) (int, int32) {
			binary.LittleEndian.PutUint32(response[0:4], 1)
			response[4] = byte(RespError)
			msg := "bad pointer"
			binary.LittleEndian.PutUint32(response[5:9], uint32(len(msg)))
			copy(response[9:], msg)
			return 9 + len(msg), 0
		})
		tr.Add(CmdPointerMove, encodePointer(1, 2, 3))
		err := tr.Flush()
		require.ErrorIs(t, err, ErrBatchFailed)
		assert.Contains(t, err.Error(), "bad pointer")
	})

	t.Run("count mismatch", func(t *testing.T) {
		tr := newBatchTransport(func(request, response []byte) (int, int32) {
			return successResponses(response, 1), 0
		})
		tr.Add(CmdMouseMove, encodePoint(1, 1))
		tr.Add(CmdMouseMove, encodePoint(2, 2))
		assert.ErrorIs(t, tr.Flush(), ErrBatchFailed)
	})
}

func TestParseResponsesTruncated(t *testing.T) {
	_, _, err := parseResponses([]byte{1, 0})
	assert.ErrorIs(t, err, ErrBatchFailed)

	buf := make([]byte, 9)
	binary.LittleEndian.PutUint32(buf[0:4], 1)
	binary.LittleEndian.PutUint32(buf[5:9], 10)
	_, _, err = parseResponses(buf)
	assert.ErrorIs(t, err, ErrBatchFailed)
}
