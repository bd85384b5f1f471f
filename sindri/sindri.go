// Package sindri assembles the pieces of the cryptographic service core:
// a fixed memory pool, a seeded random-bit generator, an optional key
// store and a job dispatcher over a set of client channels. The same
// dispatcher runs over static in-memory queues (transport/memchan) and
// over a framed Unix-domain socket (transport/uds); the environment owns
// the driving loop that invokes it.
package sindri

import (
	"github.com/Nicoretti/sindri/sindri/core"
	"github.com/Nicoretti/sindri/sindri/crypto"
	"github.com/Nicoretti/sindri/sindri/keystore"
	"github.com/Nicoretti/sindri/sindri/pool"
)

// Options tunes core assembly.
type Options struct {
	// ReseedAfter is handed to the random-bit generator; 0 disables
	// automatic reseeding.
	ReseedAfter uint64
	// WithoutKeyStore builds a core that answers key-referencing
	// requests with KEY_STORE_UNAVAILABLE.
	WithoutKeyStore bool
}

// New wires a dispatcher over caller-provided backing memory, an entropy
// source and a fixed channel set. backing must hold at least
// pool.RequiredSize() bytes; the embedded environment passes a static
// array, the hosted daemon allocates once at startup.
func New(backing []byte, source crypto.EntropySource, channels []core.Channel, opts Options) (*core.Core, error) {
	p, err := pool.New(backing)
	if err != nil {
		return nil, err
	}
	rng, err := crypto.NewRng(source, opts.ReseedAfter)
	if err != nil {
		return nil, err
	}
	var store *keystore.Store
	if !opts.WithoutKeyStore {
		store = keystore.New()
	}
	return core.New(p, rng, store, channels)
}
