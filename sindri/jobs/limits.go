package jobs

import "github.com/Nicoretti/sindri/sindri/crypto"

// Compile-time payload bounds. They determine the memory pool's required
// size and must be identical on both ends of any channel for buffer-size
// assumptions to hold.
const (
	// MaxPlaintextSize bounds encrypt input and decrypt output.
	MaxPlaintextSize = 4096
	// MaxCiphertextSize bounds decrypt input and encrypt output,
	// including the appended authentication tag.
	MaxCiphertextSize = MaxPlaintextSize + crypto.TagSize
	// MaxRandomSize bounds a single GetRandom response.
	MaxRandomSize = 1024
	// MaxAssociatedDataSize bounds the authenticated associated data.
	MaxAssociatedDataSize = 256
	// MaxKeySize is the largest key material any suite accepts.
	MaxKeySize = crypto.KeySize256
	// MaxNonceSize bounds the nonce field on the wire.
	MaxNonceSize = crypto.NonceSize

	// MaxPayloadSize is the largest single variable-length field that can
	// cross a channel in either direction.
	MaxPayloadSize = MaxCiphertextSize
)
