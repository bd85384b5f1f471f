package crypto

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

// SeedSize is the entropy seed size the generator requires (256 bits).
const SeedSize = 32

var ErrSeedFailed = errors.New("crypto: entropy source failed to produce a seed")

// EntropySource supplies fixed-size seeds for the deterministic generator.
// It is assumed cryptographically strong; sourcing (OS random device,
// hardware peripheral) is the environment's concern.
type EntropySource interface {
	Seed() ([SeedSize]byte, error)
}

// Rng is a deterministic random-bit generator backed by a ChaCha20
// keystream. It is seeded at construction, so it can never emit output
// unseeded. Rng is not safe for concurrent use; the dispatcher owns it
// exclusively.
type Rng struct {
	source      EntropySource
	stream      *chacha20.Cipher
	reseedAfter uint64
	produced    uint64
}

// NewRng creates a generator seeded from source. If reseedAfter is nonzero
// the generator reseeds itself once that many output bytes have been
// produced; zero leaves reseeding to explicit Reseed calls.
func NewRng(source EntropySource, reseedAfter uint64) (*Rng, error) {
	r := &Rng{source: source, reseedAfter: reseedAfter}
	if err := r.Reseed(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reseed pulls a fresh seed from the entropy source and reinitializes the
// keystream. The seed is expanded with HKDF-SHA256 so that the raw seed
// bytes are never used as the cipher key directly.
func (r *Rng) Reseed() error {
	seed, err := r.source.Seed()
	if err != nil {
		return ErrSeedFailed
	}

	var material [chacha20.KeySize + chacha20.NonceSize]byte
	hk := hkdf.New(sha256.New, seed[:], nil, []byte("sindri-rng-v1"))
	if _, err := io.ReadFull(hk, material[:]); err != nil {
		return err
	}

	stream, err := chacha20.NewUnauthenticatedCipher(
		material[:chacha20.KeySize],
		material[chacha20.KeySize:],
	)
	if err != nil {
		return err
	}
	r.stream = stream
	r.produced = 0
	return nil
}

// Fill overwrites out with generator output. Generation itself has no
// failure mode; an error is only possible when an automatic reseed is due
// and the entropy source fails.
func (r *Rng) Fill(out []byte) error {
	if r.reseedAfter != 0 && r.produced >= r.reseedAfter {
		if err := r.Reseed(); err != nil {
			return err
		}
	}
	for i := range out {
		out[i] = 0
	}
	r.stream.XORKeyStream(out, out)
	r.produced += uint64(len(out))
	return nil
}
