// Package crypto implements the primitive layer of the sindri core.
//
// It provides:
//   - Authenticated encryption (AES-128-GCM, AES-256-GCM, ChaCha20-Poly1305)
//     with strict key/nonce size validation and a contiguous ciphertext||tag layout
//   - A deterministic random-bit generator (ChaCha20 keystream) seeded from
//     an external entropy source, with an optional reseed threshold
//
// All operations write into caller-provided buffers and never allocate
// beyond them, so the same code runs against a static memory pool.
package crypto
