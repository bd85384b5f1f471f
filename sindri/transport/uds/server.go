package uds

import (
	"bufio"
	"errors"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/Nicoretti/sindri/sindri/core"
	"github.com/Nicoretti/sindri/sindri/jobs"
)

// DefaultQueueDepth is the per-connection request/response queue depth.
const DefaultQueueDepth = 8

var (
	ErrOutboundFull = errors.New("uds: outbound queue full")
	ErrServerClosed = errors.New("uds: server closed")
)

// connSlot bridges one accepted connection to the dispatcher. The slot
// itself lives as long as the server: it is registered with the core once
// at construction, and sockets bind to and unbind from it as clients come
// and go, preserving the fixed-channel dispatcher contract.
type connSlot struct {
	in  chan jobs.Request
	out chan []byte

	bound atomic.Bool

	// mu orders response sends against connection teardown so a response
	// produced for a disconnected client can never leak to the next one.
	mu     sync.Mutex
	gen    uint64
	reqGen uint64
}

func newConnSlot(depth int) *connSlot {
	return &connSlot{
		in:  make(chan jobs.Request, depth),
		out: make(chan []byte, depth),
	}
}

// TryRecv implements core.Channel.
func (s *connSlot) TryRecv() (jobs.Request, bool) {
	select {
	case req := <-s.in:
		s.mu.Lock()
		s.reqGen = s.gen
		s.mu.Unlock()
		return req, true
	default:
		return jobs.Request{}, false
	}
}

// Send implements core.Channel. The response is serialized immediately,
// which also copies the pool-backed payload out of dispatcher memory. A
// response whose originating connection has gone away is dropped silently;
// only a full outbound queue on a live connection is an error.
func (s *connSlot) Send(resp jobs.Response) error {
	payload, err := EncodeResponse(resp)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != s.reqGen {
		return nil
	}
	select {
	case s.out <- payload:
		return nil
	default:
		return ErrOutboundFull
	}
}

// reset prepares the slot for the next connection: pending requests and
// undelivered responses of the previous one are discarded.
func (s *connSlot) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	for {
		select {
		case <-s.in:
		case <-s.out:
		default:
			return
		}
	}
}

// Server accepts Unix-socket connections and exposes them to the
// dispatcher as a fixed set of channels. Connections beyond the slot count
// are rejected at accept time.
type Server struct {
	ln     net.Listener
	slots  []*connSlot
	logger *log.Logger
	done   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup
}

// Listen creates a server on the given socket path with clients connection
// slots. logger may be nil for the default logger.
func Listen(path string, clients, queueDepth int, logger *log.Logger) (*Server, error) {
	if clients <= 0 {
		clients = 1
	}
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	if logger == nil {
		logger = log.Default()
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	slots := make([]*connSlot, clients)
	for i := range slots {
		slots[i] = newConnSlot(queueDepth)
	}
	return &Server{ln: ln, slots: slots, logger: logger, done: make(chan struct{})}, nil
}

// Channels returns the server's channel set for dispatcher construction.
// The set is fixed for the server's lifetime.
func (s *Server) Channels() []core.Channel {
	channels := make([]core.Channel, len(s.slots))
	for i, slot := range s.slots {
		channels[i] = slot
	}
	return channels
}

// Serve accepts connections until Close. It returns ErrServerClosed after
// a clean shutdown.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}
			return err
		}
		slot := s.bindSlot()
		if slot == nil {
			s.logger.Printf("uds: rejecting connection, all %d slots in use", len(s.slots))
			_ = conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn, slot)
		}()
	}
}

// Close stops accepting, closes the listener and waits for connection
// goroutines to finish. Connections still open are closed; requests they
// have not had answered are lost.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

func (s *Server) bindSlot() *connSlot {
	for _, slot := range s.slots {
		if slot.bound.CompareAndSwap(false, true) {
			return slot
		}
	}
	return nil
}

// handle runs one connection: a writer goroutine drains the slot's
// outbound queue while the reader loop feeds decoded requests inbound.
// Either side failing tears the connection down and recycles the slot.
// Server shutdown must unblock the reader both in ReadFrame (by closing
// the socket) and in the inbound send (by the done case), or Close would
// wait on it forever.
func (s *Server) handle(conn net.Conn, slot *connSlot) {
	id := uuid.NewString()
	s.logger.Printf("uds: client %s connected", id)

	done := make(chan struct{})
	var aux sync.WaitGroup
	aux.Add(2)
	go func() {
		defer aux.Done()
		select {
		case <-s.done:
			_ = conn.Close()
		case <-done:
		}
	}()
	go func() {
		defer aux.Done()
		for {
			select {
			case payload := <-slot.out:
				if err := WriteFrame(conn, Frame{Type: MessageTypeResponse, Payload: payload}); err != nil {
					return
				}
			case <-done:
				return
			case <-s.done:
				return
			}
		}
	}()

	br := bufio.NewReader(conn)
read:
	for {
		frame, err := ReadFrame(br)
		if err != nil {
			break
		}
		if frame.Type != MessageTypeRequest {
			s.logger.Printf("uds: client %s sent unexpected frame type %d", id, frame.Type)
			break
		}
		req, err := DecodeRequest(frame.Payload)
		if err != nil {
			s.logger.Printf("uds: client %s sent malformed request: %v", id, err)
			break
		}
		select {
		case slot.in <- req:
		case <-s.done:
			break read
		}
	}

	close(done)
	_ = conn.Close()
	aux.Wait()
	slot.reset()
	slot.bound.Store(false)
	s.logger.Printf("uds: client %s disconnected", id)
}
