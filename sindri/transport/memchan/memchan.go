// Package memchan provides the static-queue channel realization used in
// embedded-style configurations. A channel is a pair of single-producer/
// single-consumer rings (requests one way, responses the other) whose
// slots carry fixed-capacity payload storage: all request and response
// bytes are copied into slot memory on send, so neither side ever holds a
// reference into the other's buffers and no allocation happens after
// construction.
package memchan

import (
	"errors"

	"go.uber.org/atomic"

	"github.com/Nicoretti/sindri/sindri/crypto"
	"github.com/Nicoretti/sindri/sindri/jobs"
)

// DefaultDepth is the queue depth used when none is given.
const DefaultDepth = 8

var (
	ErrQueueFull       = errors.New("memchan: queue full")
	ErrPayloadTooLarge = errors.New("memchan: payload exceeds configured bound")
)

// reqSlot holds one request with inline payload storage.
type reqSlot struct {
	kind  jobs.Kind
	size  uint32
	keyID uint32
	suite crypto.Suite

	keyLen   int
	nonceLen int
	aadLen   int
	dataLen  int

	key   [jobs.MaxKeySize]byte
	nonce [jobs.MaxNonceSize]byte
	aad   [jobs.MaxAssociatedDataSize]byte
	data  [jobs.MaxPayloadSize]byte
}

func (s *reqSlot) store(req jobs.Request) error {
	if len(req.Key) > len(s.key) || len(req.Nonce) > len(s.nonce) ||
		len(req.AAD) > len(s.aad) || len(req.Data) > len(s.data) {
		return ErrPayloadTooLarge
	}
	s.kind = req.Kind
	s.size = req.Size
	s.keyID = req.KeyID
	s.suite = req.Suite
	s.keyLen = copy(s.key[:], req.Key)
	s.nonceLen = copy(s.nonce[:], req.Nonce)
	s.aadLen = copy(s.aad[:], req.AAD)
	s.dataLen = copy(s.data[:], req.Data)
	return nil
}

// load rebuilds the request with slices into the slot's storage.
func (s *reqSlot) load() jobs.Request {
	return jobs.Request{
		Kind:  s.kind,
		Size:  s.size,
		KeyID: s.keyID,
		Suite: s.suite,
		Key:   s.key[:s.keyLen],
		Nonce: s.nonce[:s.nonceLen],
		AAD:   s.aad[:s.aadLen],
		Data:  s.data[:s.dataLen],
	}
}

// respSlot holds one response with inline payload storage.
type respSlot struct {
	kind    jobs.Kind
	errKind jobs.ErrorKind
	dataLen int
	data    [jobs.MaxPayloadSize]byte
}

func (s *respSlot) store(resp jobs.Response) error {
	if len(resp.Data) > len(s.data) {
		return ErrPayloadTooLarge
	}
	s.kind = resp.Kind
	s.errKind = resp.Err
	s.dataLen = copy(s.data[:], resp.Data)
	return nil
}

// ring is a lock-free SPSC ring. head is owned by the producer, tail by
// the consumer; both only ever advance.
type ring[T any] struct {
	slots []T
	head  atomic.Uint64
	tail  atomic.Uint64
}

func newRing[T any](depth int) *ring[T] {
	return &ring[T]{slots: make([]T, depth)}
}

func (r *ring[T]) push(write func(*T) error) error {
	head := r.head.Load()
	if head-r.tail.Load() >= uint64(len(r.slots)) {
		return ErrQueueFull
	}
	if err := write(&r.slots[head%uint64(len(r.slots))]); err != nil {
		return err
	}
	r.head.Store(head + 1)
	return nil
}

func (r *ring[T]) pop(read func(*T)) bool {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return false
	}
	read(&r.slots[tail%uint64(len(r.slots))])
	r.tail.Store(tail + 1)
	return true
}

// Pair creates a connected channel: the ClientSide implements the client
// API's Channel, the CoreSide implements the dispatcher's. depth <= 0
// uses DefaultDepth.
func Pair(depth int) (*ClientSide, *CoreSide) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	req := newRing[reqSlot](depth)
	resp := newRing[respSlot](depth)
	return &ClientSide{req: req, resp: resp}, &CoreSide{req: req, resp: resp}
}

// ClientSide is the client half: it produces requests and consumes
// responses. Single-producer: only one goroutine may use it.
type ClientSide struct {
	req  *ring[reqSlot]
	resp *ring[respSlot]
}

// Send enqueues a request, copying all payload bytes into ring storage.
func (c *ClientSide) Send(req jobs.Request) error {
	return c.req.push(func(s *reqSlot) error { return s.store(req) })
}

// Recv dequeues the next response, if any. The response's Data is a fresh
// copy owned by the caller.
func (c *ClientSide) Recv() (jobs.Response, bool) {
	var resp jobs.Response
	ok := c.resp.pop(func(s *respSlot) {
		resp.Kind = s.kind
		resp.Err = s.errKind
		if s.dataLen > 0 {
			resp.Data = append([]byte(nil), s.data[:s.dataLen]...)
		}
	})
	return resp, ok
}

// CoreSide is the dispatcher half: it consumes requests and produces
// responses. Single-consumer: only the dispatcher may use it.
type CoreSide struct {
	req     *ring[reqSlot]
	resp    *ring[respSlot]
	staging reqSlot
}

// TryRecv dequeues the next request, if any. The request's byte fields
// alias a staging slot owned by this side and stay valid until the next
// TryRecv call, which is sufficient for a dispatcher that runs each job to
// completion before polling again.
func (c *CoreSide) TryRecv() (jobs.Request, bool) {
	ok := c.req.pop(func(s *reqSlot) { c.staging = *s })
	if !ok {
		return jobs.Request{}, false
	}
	return c.staging.load(), true
}

// Send enqueues a response, copying its payload into ring storage before
// returning, as the dispatcher's channel contract requires.
func (c *CoreSide) Send(resp jobs.Response) error {
	return c.resp.push(func(s *respSlot) error { return s.store(resp) })
}
