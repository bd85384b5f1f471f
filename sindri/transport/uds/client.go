package uds

import (
	"bufio"
	"errors"
	"net"

	"go.uber.org/atomic"

	"github.com/Nicoretti/sindri/sindri/jobs"
)

var ErrChannelClosed = errors.New("uds: channel closed")

// ClientChannel implements the client API's channel over a dialed Unix
// socket. A background goroutine decodes incoming response frames into a
// bounded queue so Recv stays non-blocking. It is meant for a single
// client goroutine; concurrent Sends are not supported.
type ClientChannel struct {
	conn   net.Conn
	resp   chan jobs.Response
	done   chan struct{}
	closed atomic.Bool
	err    atomic.Error
}

// Dial connects to a server socket. queueDepth bounds how many responses
// may be buffered client-side; <= 0 uses DefaultQueueDepth.
func Dial(path string, queueDepth int) (*ClientChannel, error) {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	c := &ClientChannel{
		conn: conn,
		resp: make(chan jobs.Response, queueDepth),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *ClientChannel) readLoop() {
	br := bufio.NewReader(c.conn)
	for {
		frame, err := ReadFrame(br)
		if err != nil {
			c.err.Store(err)
			close(c.resp)
			return
		}
		if frame.Type != MessageTypeResponse {
			c.err.Store(ErrInvalidType)
			close(c.resp)
			return
		}
		resp, err := DecodeResponse(frame.Payload)
		if err != nil {
			c.err.Store(err)
			close(c.resp)
			return
		}
		// The queue may be full while the client is not receiving; Close
		// must still be able to stop this loop.
		select {
		case c.resp <- resp:
		case <-c.done:
			return
		}
	}
}

// Send encodes and writes one request frame.
func (c *ClientChannel) Send(req jobs.Request) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	payload, err := EncodeRequest(req)
	if err != nil {
		return err
	}
	return WriteFrame(c.conn, Frame{Type: MessageTypeRequest, Payload: payload})
}

// Recv returns the next buffered response, if any.
func (c *ClientChannel) Recv() (jobs.Response, bool) {
	select {
	case resp, ok := <-c.resp:
		if !ok {
			return jobs.Response{}, false
		}
		return resp, true
	default:
		return jobs.Response{}, false
	}
}

// Err reports the error that terminated the read loop, if any.
func (c *ClientChannel) Err() error {
	return c.err.Load()
}

// Close closes the socket and stops the read loop, even when it is parked
// on a full response queue.
func (c *ClientChannel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)
	return c.conn.Close()
}
