package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// NonceSize is the nonce size shared by all supported suites (96 bits).
	NonceSize = 12
	// TagSize is the authentication tag size shared by all supported suites (128 bits).
	TagSize = 16

	// KeySize128 is the AES-128-GCM key size.
	KeySize128 = 16
	// KeySize256 is the key size of AES-256-GCM and ChaCha20-Poly1305.
	KeySize256 = 32
)

var (
	ErrInvalidKeySize    = errors.New("crypto: invalid key size")
	ErrInvalidIVSize     = errors.New("crypto: invalid nonce size")
	ErrInvalidBufferSize = errors.New("crypto: ciphertext shorter than tag")
	ErrBufferTooSmall    = errors.New("crypto: output exceeds buffer capacity")
	ErrEncryptionFailed  = errors.New("crypto: encryption failed")
	ErrDecryptionFailed  = errors.New("crypto: decryption failed")
	ErrUnknownSuite      = errors.New("crypto: unknown cipher suite")
)

// Suite selects an authenticated-encryption cipher suite.
type Suite uint8

const (
	AES128GCM        Suite = 1
	AES256GCM        Suite = 2
	ChaCha20Poly1305 Suite = 3
)

func (s Suite) String() string {
	switch s {
	case AES128GCM:
		return "AES-128-GCM"
	case AES256GCM:
		return "AES-256-GCM"
	case ChaCha20Poly1305:
		return "CHACHA20-POLY1305"
	default:
		return "UNKNOWN"
	}
}

// KeySize returns the exact key size the suite requires, or 0 for an
// unknown suite.
func (s Suite) KeySize() int {
	switch s {
	case AES128GCM:
		return KeySize128
	case AES256GCM, ChaCha20Poly1305:
		return KeySize256
	default:
		return 0
	}
}

// checkSizes validates key and nonce lengths before any cryptographic work.
func checkSizes(s Suite, key, nonce []byte) error {
	ks := s.KeySize()
	if ks == 0 {
		return ErrUnknownSuite
	}
	if len(key) != ks {
		return ErrInvalidKeySize
	}
	if len(nonce) != NonceSize {
		return ErrInvalidIVSize
	}
	return nil
}

func newAEAD(s Suite, key []byte) (cipher.AEAD, error) {
	switch s {
	case AES128GCM, AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, ErrEncryptionFailed
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, ErrEncryptionFailed
		}
		return aead, nil
	case ChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, ErrEncryptionFailed
		}
		return aead, nil
	default:
		return nil, ErrUnknownSuite
	}
}

// Encrypt encrypts and authenticates plaintext under the given suite.
// The result is ciphertext||tag appended to dst[:0]; dst must have capacity
// for len(plaintext)+TagSize or ErrBufferTooSmall is returned. The nonce is
// caller-supplied and never derived here; (key, nonce) uniqueness is a
// caller precondition. aad may be empty.
func Encrypt(s Suite, key, nonce, aad, plaintext, dst []byte) ([]byte, error) {
	if err := checkSizes(s, key, nonce); err != nil {
		return nil, err
	}
	if len(plaintext)+TagSize > cap(dst) {
		return nil, ErrBufferTooSmall
	}
	aead, err := newAEAD(s, key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(dst[:0], nonce, plaintext, aad), nil
}

// Decrypt verifies and decrypts ciphertext||tag under the given suite.
// The plaintext is appended to dst[:0]. Inputs shorter than the tag fail
// with ErrInvalidBufferSize; any authentication failure is reported as
// ErrDecryptionFailed and no plaintext bytes are exposed.
func Decrypt(s Suite, key, nonce, aad, ciphertextWithTag, dst []byte) ([]byte, error) {
	if err := checkSizes(s, key, nonce); err != nil {
		return nil, err
	}
	if len(ciphertextWithTag) < TagSize {
		return nil, ErrInvalidBufferSize
	}
	if len(ciphertextWithTag)-TagSize > cap(dst) {
		return nil, ErrBufferTooSmall
	}
	aead, err := newAEAD(s, key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(dst[:0], nonce, ciphertextWithTag, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
