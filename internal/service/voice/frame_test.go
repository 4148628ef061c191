package voice

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   frame
	}{
		{
			name: "client request",
			in:   frame{kind: frameFullClientRequest, serialization: serializationJSON, payload: []byte(`{"a":1}`)},
		},
		{
			name: "audio with sequence",
			in:   frame{kind: frameAudioOnlyResponse, flags: flagPositiveSequence, sequence: 7, payload: []byte{1, 2, 3}},
		},
		{
			name: "session finished event",
			in:   frame{kind: frameFullServerResponse, flags: flagWithEvent, event: eventSessionFinished, sessionID: "s-1", payload: []byte(`{}`)},
		},
		{
			name: "connection event",
			in:   frame{kind: frameFullServerResponse, flags: flagWithEvent, event: eventConnectionStarted, connectID: "c-1", payload: []byte(`{}`)},
		},
		{
			name: "error",
			in:   frame{kind: frameError, errorCode: 45000001, payload: []byte("bad request")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := parseFrame(tt.in.marshal())
			require.NoError(t, err)
			assert.Equal(t, tt.in.kind, out.kind)
			assert.Equal(t, tt.in.flags, out.flags)
			assert.Equal(t, tt.in.sequence, out.sequence)
			assert.Equal(t, tt.in.event, out.event)
			assert.Equal(t, tt.in.sessionID, out.sessionID)
			assert.Equal(t, tt.in.connectID, out.connectID)
			assert.Equal(t, tt.in.errorCode, out.errorCode)
			assert.Equal(t, tt.in.payload, out.payload)
		})
	}
}

func TestParseFrameGzipPayload(t *testing.T) {
	var zipped bytes.Buffer
	zw := gzip.NewWriter(&zipped)
	_, err := zw.Write([]byte(`{"code":0}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	f := frame{kind: frameFullServerResponse, serialization: serializationJSON, compression: compressionGzip, payload: zipped.Bytes()}
	out, err := parseFrame(f.marshal())
	require.NoError(t, err)
	assert.Equal(t, `{"code":0}`, string(out.payload))
}

func TestParseFrameRejectsGarbage(t *testing.T) {
	_, err := parseFrame([]byte{0x11})
	assert.Error(t, err)

	_, err = parseFrame([]byte{0x21, 0x10, 0x10, 0x00})
	assert.ErrorContains(t, err, "version")

	// Payload size larger than the frame.
	_, err = parseFrame([]byte{0x11, 0x10, 0x10, 0x00, 0x00, 0x00, 0x00, 0xFF})
	assert.Error(t, err)
}

func TestFrameLast(t *testing.T) {
	assert.True(t, frame{flags: flagLastNoSequence}.last())
	assert.True(t, frame{flags: flagNegativeSequence}.last())
	assert.False(t, frame{flags: flagPositiveSequence}.last())
	assert.False(t, frame{flags: flagWithEvent}.last())
}
