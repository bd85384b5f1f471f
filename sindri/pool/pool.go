// Package pool provides the fixed-capacity byte arena backing all
// variable-length job buffers. The arena is sized at compile time from the
// configured payload limits and hands out at most one buffer per class at
// a time; there is no dynamic allocation and no locking, since the
// dispatcher owns the pool exclusively and processes jobs to completion.
package pool

import (
	"errors"

	"github.com/Nicoretti/sindri/sindri/jobs"
)

var (
	ErrBackingTooSmall = errors.New("pool: backing storage smaller than required size")
	ErrExhausted       = errors.New("pool: buffer class already checked out")
	ErrTooLarge        = errors.New("pool: requested size exceeds class capacity")
	ErrUnknownClass    = errors.New("pool: unknown buffer class")
)

// Class selects a buffer class. Each class has a fixed worst-case capacity
// and a single slot, matching the one-job-in-flight dispatcher.
type Class uint8

const (
	ClassPlaintext  Class = 0
	ClassCiphertext Class = 1
	ClassRandom     Class = 2

	numClasses = 3
)

// classCapacity returns the static capacity of a class.
func classCapacity(c Class) int {
	switch c {
	case ClassPlaintext:
		return jobs.MaxPlaintextSize
	case ClassCiphertext:
		return jobs.MaxCiphertextSize
	case ClassRandom:
		return jobs.MaxRandomSize
	default:
		return 0
	}
}

// RequiredSize returns the backing storage size the environment must
// reserve for the pool. It is a pure function of the payload limits.
func RequiredSize() int {
	return jobs.MaxPlaintextSize + jobs.MaxCiphertextSize + jobs.MaxRandomSize
}

// Buffer is an exclusively-owned, zero-initialized slice of arena memory.
// Its length starts at 0 and its capacity is the size requested at
// checkout; it is valid until released.
type Buffer struct {
	class Class
	data  []byte
}

// Bytes returns the buffer's slice (len 0, cap = requested size) for use
// as an append target.
func (b *Buffer) Bytes() []byte { return b.data }

// Cap returns the buffer's usable capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// Pool is a fixed byte arena split into per-class regions.
type Pool struct {
	regions     [numClasses][]byte
	checkedOut  [numClasses]bool
	outstanding int
}

// New creates a pool over caller-provided backing storage. The backing
// must be at least RequiredSize() bytes; the embedded environment passes a
// static array, the hosted environment a single make([]byte, ...) done at
// startup.
func New(backing []byte) (*Pool, error) {
	if len(backing) < RequiredSize() {
		return nil, ErrBackingTooSmall
	}
	p := &Pool{}
	offset := 0
	for c := Class(0); c < numClasses; c++ {
		size := classCapacity(c)
		p.regions[c] = backing[offset : offset+size]
		offset += size
	}
	return p, nil
}

// Checkout hands out the class's buffer, zeroed, with capacity size.
// It fails with ErrTooLarge if size exceeds the class capacity and with
// ErrExhausted if the class's slot is already out. Accounting is left
// unchanged on failure.
func (p *Pool) Checkout(c Class, size int) (*Buffer, error) {
	if int(c) >= numClasses {
		return nil, ErrUnknownClass
	}
	if size > classCapacity(c) {
		return nil, ErrTooLarge
	}
	if p.checkedOut[c] {
		return nil, ErrExhausted
	}
	region := p.regions[c][:size]
	for i := range region {
		region[i] = 0
	}
	p.checkedOut[c] = true
	p.outstanding += size
	return &Buffer{class: c, data: region[:0]}, nil
}

// Release returns the buffer's capacity to the arena. It must be called
// exactly once per successful checkout; it is safe on buffers that were
// never written. The memory itself is not cleared until the next checkout,
// so a response assembled in it stays readable until the next job begins.
func (p *Pool) Release(b *Buffer) {
	if b == nil || !p.checkedOut[b.class] {
		return
	}
	p.checkedOut[b.class] = false
	p.outstanding -= cap(b.data)
	b.data = nil
}

// Outstanding reports the total checked-out capacity in bytes.
func (p *Pool) Outstanding() int { return p.outstanding }
