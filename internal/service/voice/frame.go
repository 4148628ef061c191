package voice

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Volcengine binary framing: a 4-byte header (version|size, type|flags,
// serialization|compression, reserved), optional sequence and event
// metadata, then a length-prefixed payload. All integers are big-endian.

const frameVersion = 0b0001

type frameType uint8

const (
	frameFullClientRequest  frameType = 0b0001
	frameFullServerResponse frameType = 0b1001
	frameAudioOnlyResponse  frameType = 0b1011
	frameError              frameType = 0b1111
)

type frameFlags uint8

const (
	flagNoSequence       frameFlags = 0b0000
	flagPositiveSequence frameFlags = 0b0001
	flagLastNoSequence   frameFlags = 0b0010
	flagNegativeSequence frameFlags = 0b0011
	flagWithEvent        frameFlags = 0b0100
)

const (
	serializationNone = 0b0000
	serializationJSON = 0b0001

	compressionNone = 0b0000
	compressionGzip = 0b0001
)

// Server events the synthesizer reacts to.
const (
	eventConnectionStarted  int32 = 50
	eventConnectionFailed   int32 = 51
	eventConnectionFinished int32 = 52
	eventSessionFinished    int32 = 152
	eventSessionFailed      int32 = 153
)

type frame struct {
	kind          frameType
	flags         frameFlags
	serialization uint8
	compression   uint8
	sequence      int32
	event         int32
	sessionID     string
	connectID     string
	errorCode     uint32
	payload       []byte
}

func (f frame) hasSequence() bool {
	s := f.flags & 0b0011
	return s == flagPositiveSequence || s == flagNegativeSequence
}

func (f frame) hasEvent() bool {
	return f.flags&flagWithEvent == flagWithEvent
}

// last reports whether the server marked this as the final packet.
func (f frame) last() bool {
	s := f.flags & 0b0011
	return s == flagLastNoSequence || s == flagNegativeSequence
}

// Connection-level events carry no session id; their acknowledgements carry
// a connect id instead.
func eventHasSessionID(event int32) bool {
	return event != 1 && event != 2 && !eventHasConnectID(event)
}

func eventHasConnectID(event int32) bool {
	return event == eventConnectionStarted || event == eventConnectionFailed || event == eventConnectionFinished
}

func (f frame) marshal() []byte {
	var buf bytes.Buffer
	buf.WriteByte(frameVersion<<4 | 0b0001)
	buf.WriteByte(uint8(f.kind)<<4 | uint8(f.flags))
	buf.WriteByte(f.serialization<<4 | f.compression)
	buf.WriteByte(0)

	if f.hasSequence() {
		_ = binary.Write(&buf, binary.BigEndian, f.sequence)
	}
	if f.hasEvent() {
		_ = binary.Write(&buf, binary.BigEndian, f.event)
		if eventHasSessionID(f.event) {
			writeSized(&buf, []byte(f.sessionID))
		}
		if eventHasConnectID(f.event) {
			writeSized(&buf, []byte(f.connectID))
		}
	}
	if f.kind == frameError {
		_ = binary.Write(&buf, binary.BigEndian, f.errorCode)
	}
	writeSized(&buf, f.payload)
	return buf.Bytes()
}

func writeSized(buf *bytes.Buffer, b []byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(b)))
	buf.Write(b)
}

func parseFrame(data []byte) (frame, error) {
	if len(data) < 4 {
		return frame{}, fmt.Errorf("frame too short: %d bytes", len(data))
	}
	if v := data[0] >> 4; v != frameVersion {
		return frame{}, fmt.Errorf("unsupported frame version %d", v)
	}

	f := frame{
		kind:          frameType(data[1] >> 4),
		flags:         frameFlags(data[1] & 0x0F),
		serialization: data[2] >> 4,
		compression:   data[2] & 0x0F,
	}

	headerSize := int(data[0]&0x0F) * 4
	if headerSize < 4 || len(data) < headerSize {
		return frame{}, fmt.Errorf("invalid header size %d", headerSize)
	}
	r := bytes.NewReader(data[headerSize:])

	if f.hasSequence() {
		if err := binary.Read(r, binary.BigEndian, &f.sequence); err != nil {
			return frame{}, fmt.Errorf("read sequence: %w", err)
		}
	}
	if f.hasEvent() {
		if err := binary.Read(r, binary.BigEndian, &f.event); err != nil {
			return frame{}, fmt.Errorf("read event: %w", err)
		}
		if eventHasSessionID(f.event) {
			b, err := readSized(r)
			if err != nil {
				return frame{}, fmt.Errorf("read session id: %w", err)
			}
			f.sessionID = string(b)
		}
		if eventHasConnectID(f.event) {
			b, err := readSized(r)
			if err != nil {
				return frame{}, fmt.Errorf("read connect id: %w", err)
			}
			f.connectID = string(b)
		}
	}
	if f.kind == frameError {
		if err := binary.Read(r, binary.BigEndian, &f.errorCode); err != nil {
			return frame{}, fmt.Errorf("read error code: %w", err)
		}
	}

	payload, err := readSized(r)
	if err != nil {
		return frame{}, fmt.Errorf("read payload: %w", err)
	}
	if f.compression == compressionGzip {
		if payload, err = gunzip(payload); err != nil {
			return frame{}, err
		}
	}
	f.payload = payload
	return f, nil
}

func readSized(r *bytes.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, err
	}
	if int64(size) > int64(r.Len()) {
		return nil, errors.New("size exceeds frame")
	}
	b := make([]byte, size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func gunzip(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return b, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("gzip payload: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
