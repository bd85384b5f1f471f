// Package keystore holds imported key material in a fixed number of
// static slots. Keys are addressed by a small integer id chosen by the
// client at import time; the store is volatile and never touches disk.
package keystore

import (
	"errors"

	"lukechampine.com/blake3"

	"github.com/Nicoretti/sindri/sindri/crypto"
	"github.com/Nicoretti/sindri/sindri/jobs"
)

const (
	// NumSlots is the number of key slots available.
	NumSlots = 16
	// FingerprintSize is the length of a key fingerprint.
	FingerprintSize = 16
)

var (
	ErrInvalidKeyID   = errors.New("keystore: key id out of range")
	ErrKeyNotFound    = errors.New("keystore: no key in slot")
	ErrInvalidKeySize = errors.New("keystore: key size does not match suite")
)

// Fingerprint identifies key material without revealing it. It is a
// truncated BLAKE3 hash, suitable for logs and import acknowledgements.
type Fingerprint [FingerprintSize]byte

type slot struct {
	used   bool
	suite  crypto.Suite
	keyLen int
	key    [jobs.MaxKeySize]byte
	fp     Fingerprint
}

// Store is a fixed-slot key store. It is not safe for concurrent use; the
// dispatcher owns it exclusively.
type Store struct {
	slots [NumSlots]slot
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Import places key material into slot id, replacing any previous key
// there. The key length must match the suite exactly.
func (s *Store) Import(id uint32, suite crypto.Suite, key []byte) (Fingerprint, error) {
	if id >= NumSlots {
		return Fingerprint{}, ErrInvalidKeyID
	}
	if suite.KeySize() == 0 || len(key) != suite.KeySize() {
		return Fingerprint{}, ErrInvalidKeySize
	}

	sl := &s.slots[id]
	sl.used = true
	sl.suite = suite
	sl.keyLen = len(key)
	copy(sl.key[:], key)

	sum := blake3.Sum256(key)
	copy(sl.fp[:], sum[:FingerprintSize])
	return sl.fp, nil
}

// Get returns the suite and key material stored in slot id. The returned
// slice aliases slot storage and must not be retained across an Import to
// the same slot.
func (s *Store) Get(id uint32) (crypto.Suite, []byte, error) {
	if id >= NumSlots {
		return 0, nil, ErrInvalidKeyID
	}
	sl := &s.slots[id]
	if !sl.used {
		return 0, nil, ErrKeyNotFound
	}
	return sl.suite, sl.key[:sl.keyLen], nil
}

// Fingerprint returns the fingerprint of the key in slot id.
func (s *Store) Fingerprint(id uint32) (Fingerprint, error) {
	if id >= NumSlots {
		return Fingerprint{}, ErrInvalidKeyID
	}
	sl := &s.slots[id]
	if !sl.used {
		return Fingerprint{}, ErrKeyNotFound
	}
	return sl.fp, nil
}
