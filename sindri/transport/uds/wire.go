package uds

import (
	"encoding/binary"
	"errors"

	"github.com/Nicoretti/sindri/sindri/crypto"
	"github.com/Nicoretti/sindri/sindri/jobs"
)

var (
	ErrTruncatedMessage = errors.New("uds: truncated message")
	ErrFieldTooLarge    = errors.New("uds: field exceeds configured bound")
)

// EncodeRequest serializes a request.
// Format (big endian):
//
//	1 byte: kind
//	4 bytes: size
//	4 bytes: key id
//	1 byte: suite
//	2 bytes: key length, N bytes: key
//	2 bytes: nonce length, N bytes: nonce
//	2 bytes: aad length, N bytes: aad
//	4 bytes: data length, N bytes: data
func EncodeRequest(req jobs.Request) ([]byte, error) {
	if len(req.Key) > jobs.MaxKeySize || len(req.Nonce) > jobs.MaxNonceSize ||
		len(req.AAD) > jobs.MaxAssociatedDataSize || len(req.Data) > jobs.MaxPayloadSize {
		return nil, ErrFieldTooLarge
	}

	size := 10 + 2 + len(req.Key) + 2 + len(req.Nonce) + 2 + len(req.AAD) + 4 + len(req.Data)
	buf := make([]byte, size)
	offset := 0

	buf[offset] = byte(req.Kind)
	offset++
	binary.BigEndian.PutUint32(buf[offset:], req.Size)
	offset += 4
	binary.BigEndian.PutUint32(buf[offset:], req.KeyID)
	offset += 4
	buf[offset] = byte(req.Suite)
	offset++

	offset = putField16(buf, offset, req.Key)
	offset = putField16(buf, offset, req.Nonce)
	offset = putField16(buf, offset, req.AAD)
	putField32(buf, offset, req.Data)
	return buf, nil
}

// DecodeRequest parses a request payload, enforcing the per-field bounds.
func DecodeRequest(payload []byte) (jobs.Request, error) {
	if len(payload) < 10 {
		return jobs.Request{}, ErrTruncatedMessage
	}
	var req jobs.Request
	req.Kind = jobs.Kind(payload[0])
	req.Size = binary.BigEndian.Uint32(payload[1:5])
	req.KeyID = binary.BigEndian.Uint32(payload[5:9])
	req.Suite = crypto.Suite(payload[9])
	rest := payload[10:]

	var err error
	if req.Key, rest, err = getField16(rest, jobs.MaxKeySize); err != nil {
		return jobs.Request{}, err
	}
	if req.Nonce, rest, err = getField16(rest, jobs.MaxNonceSize); err != nil {
		return jobs.Request{}, err
	}
	if req.AAD, rest, err = getField16(rest, jobs.MaxAssociatedDataSize); err != nil {
		return jobs.Request{}, err
	}
	if req.Data, rest, err = getField32(rest, jobs.MaxPayloadSize); err != nil {
		return jobs.Request{}, err
	}
	if len(rest) != 0 {
		return jobs.Request{}, ErrTruncatedMessage
	}
	return req, nil
}

// EncodeResponse serializes a response.
// Format (big endian):
//
//	1 byte: kind
//	1 byte: error kind
//	4 bytes: data length, N bytes: data
//
// The returned buffer owns a copy of resp.Data, so pool-backed response
// bytes are safe to reuse once encoding is done.
func EncodeResponse(resp jobs.Response) ([]byte, error) {
	if len(resp.Data) > jobs.MaxPayloadSize {
		return nil, ErrFieldTooLarge
	}
	buf := make([]byte, 2+4+len(resp.Data))
	buf[0] = byte(resp.Kind)
	buf[1] = byte(resp.Err)
	putField32(buf, 2, resp.Data)
	return buf, nil
}

// DecodeResponse parses a response payload.
func DecodeResponse(payload []byte) (jobs.Response, error) {
	if len(payload) < 6 {
		return jobs.Response{}, ErrTruncatedMessage
	}
	var resp jobs.Response
	resp.Kind = jobs.Kind(payload[0])
	resp.Err = jobs.ErrorKind(payload[1])

	data, rest, err := getField32(payload[2:], jobs.MaxPayloadSize)
	if err != nil {
		return jobs.Response{}, err
	}
	if len(rest) != 0 {
		return jobs.Response{}, ErrTruncatedMessage
	}
	resp.Data = data
	return resp, nil
}

func putField16(buf []byte, offset int, field []byte) int {
	binary.BigEndian.PutUint16(buf[offset:], uint16(len(field)))
	offset += 2
	copy(buf[offset:], field)
	return offset + len(field)
}

func putField32(buf []byte, offset int, field []byte) int {
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(field)))
	offset += 4
	copy(buf[offset:], field)
	return offset + len(field)
}

func getField16(buf []byte, maxLen int) ([]byte, []byte, error) {
	if len(buf) < 2 {
		return nil, nil, ErrTruncatedMessage
	}
	n := int(binary.BigEndian.Uint16(buf))
	return getFieldBody(buf[2:], n, maxLen)
}

func getField32(buf []byte, maxLen int) ([]byte, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, ErrTruncatedMessage
	}
	n := int(binary.BigEndian.Uint32(buf))
	return getFieldBody(buf[4:], n, maxLen)
}

func getFieldBody(buf []byte, n, maxLen int) ([]byte, []byte, error) {
	if n > maxLen {
		return nil, nil, ErrFieldTooLarge
	}
	if len(buf) < n {
		return nil, nil, ErrTruncatedMessage
	}
	if n == 0 {
		return nil, buf, nil
	}
	return buf[:n], buf[n:], nil
}
