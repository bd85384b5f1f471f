// Package jobs defines the request/response data model shared by the core,
// the client API and the channel realizations. It carries no behavior
// beyond the error taxonomy so every other package can depend on it.
package jobs

import "github.com/Nicoretti/sindri/sindri/crypto"

// Kind identifies a job operation.
type Kind uint8

const (
	KindGetRandom Kind = 1
	KindImportKey Kind = 2
	KindEncrypt   Kind = 3
	KindDecrypt   Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindGetRandom:
		return "GET_RANDOM"
	case KindImportKey:
		return "IMPORT_KEY"
	case KindEncrypt:
		return "ENCRYPT"
	case KindDecrypt:
		return "DECRYPT"
	default:
		return "UNKNOWN"
	}
}

// ErrorKind is the taxonomy value carried by an error response.
type ErrorKind uint8

const (
	ErrorNone                ErrorKind = 0
	ErrorAlloc               ErrorKind = 1
	ErrorEncryption          ErrorKind = 2
	ErrorDecryption          ErrorKind = 3
	ErrorInvalidKeySize      ErrorKind = 4
	ErrorInvalidIVSize       ErrorKind = 5
	ErrorInvalidBufferSize   ErrorKind = 6
	ErrorInvalidKeyID        ErrorKind = 7
	ErrorKeyNotFound         ErrorKind = 8
	ErrorKeyStoreUnavailable ErrorKind = 9
	ErrorUnknownRequest      ErrorKind = 10
)

func (e ErrorKind) String() string {
	switch e {
	case ErrorNone:
		return "OK"
	case ErrorAlloc:
		return "ALLOCATION_FAILED"
	case ErrorEncryption:
		return "ENCRYPTION_FAILED"
	case ErrorDecryption:
		return "DECRYPTION_FAILED"
	case ErrorInvalidKeySize:
		return "INVALID_KEY_SIZE"
	case ErrorInvalidIVSize:
		return "INVALID_IV_SIZE"
	case ErrorInvalidBufferSize:
		return "INVALID_BUFFER_SIZE"
	case ErrorInvalidKeyID:
		return "INVALID_KEY_ID"
	case ErrorKeyNotFound:
		return "KEY_NOT_FOUND"
	case ErrorKeyStoreUnavailable:
		return "KEY_STORE_UNAVAILABLE"
	case ErrorUnknownRequest:
		return "UNKNOWN_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// Request is a job submitted by a client. Kind selects the operation;
// the other fields are populated per kind:
//
//	GetRandom: Size
//	ImportKey: KeyID, Suite, Key
//	Encrypt:   KeyID, Nonce, AAD, Data (plaintext)
//	Decrypt:   KeyID, Nonce, AAD, Data (ciphertext||tag)
type Request struct {
	Kind  Kind
	Size  uint32
	KeyID uint32
	Suite crypto.Suite
	Key   []byte
	Nonce []byte
	AAD   []byte
	Data  []byte
}

// Response answers exactly one Request on the channel it arrived on.
// Err is ErrorNone on success; Data mirrors the request kind (random
// bytes, key fingerprint, ciphertext||tag, or plaintext).
type Response struct {
	Kind Kind
	Err  ErrorKind
	Data []byte
}

// OK reports whether the response is a success variant.
func (r Response) OK() bool { return r.Err == ErrorNone }
