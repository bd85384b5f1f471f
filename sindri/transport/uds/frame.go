// Package uds provides the hosted channel realization: a byte-stream
// framer over a Unix-domain socket. The server side bridges framed
// requests and responses to the dispatcher's channel capability through
// a fixed number of connection slots; the client side implements the
// client API's channel over a dialed socket.
package uds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Nicoretti/sindri/sindri/jobs"
)

// MessageType distinguishes frame directions on the wire.
type MessageType uint8

const (
	MessageTypeRequest  MessageType = 1
	MessageTypeResponse MessageType = 2
)

// MaxFramePayload bounds a single frame payload. It is derived from the
// request encoding, the larger of the two message layouts.
const MaxFramePayload = 10 + // kind, size, key id, suite
	2 + jobs.MaxKeySize +
	2 + jobs.MaxNonceSize +
	2 + jobs.MaxAssociatedDataSize +
	4 + jobs.MaxPayloadSize

var (
	ErrFrameTooLarge = errors.New("uds: frame payload too large")
	ErrInvalidType   = errors.New("uds: invalid frame type")
)

// Frame is the basic wire container.
// Format:
//
//	1 byte: type
//	4 bytes: payload length (big endian)
//	N bytes: payload
//
// Both directions of a connection carry a sequence of frames and nothing
// else, giving in-order, at-most-once delivery on top of the stream.
type Frame struct {
	Type    MessageType
	Payload []byte
}

// WriteFrame writes a single frame to w as one contiguous buffer.
func WriteFrame(w io.Writer, f Frame) error {
	if f.Type != MessageTypeRequest && f.Type != MessageTypeResponse {
		return ErrInvalidType
	}
	if len(f.Payload) > MaxFramePayload {
		return ErrFrameTooLarge
	}

	buf := make([]byte, 5+len(f.Payload))
	buf[0] = byte(f.Type)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(f.Payload)))
	copy(buf[5:], f.Payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads a single frame from r. Callers keep a single buffered
// reader per connection and pass it here for every frame.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}
	payloadLen := binary.BigEndian.Uint32(header[1:5])
	if payloadLen > MaxFramePayload {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameTooLarge, payloadLen)
	}

	mt := MessageType(header[0])
	if mt != MessageTypeRequest && mt != MessageTypeResponse {
		return Frame{}, ErrInvalidType
	}

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: mt, Payload: payload}, nil
}
