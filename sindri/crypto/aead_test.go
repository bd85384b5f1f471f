package crypto

import (
	"bytes"
	"errors"
	"testing"
)

var (
	testKey128 = []byte("Open sesame! ...")
	testKey256 = []byte("Or was it 'open quinoa' instead?")
	testNonce  = []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	testPlain  = []byte("Hello, World!")
	testAAD    = []byte("Never gonna give you up, Never gonna let you down!")
)

func encryptBuf(n int) []byte { return make([]byte, 0, n+TagSize) }
func decryptBuf(n int) []byte { return make([]byte, 0, n) }

func TestEncryptDecryptVectors(t *testing.T) {
	tests := []struct {
		name     string
		suite    Suite
		key      []byte
		aad      []byte
		expected []byte // ciphertext || tag
	}{
		{
			name:  "aes128gcm no aad",
			suite: AES128GCM,
			key:   testKey128,
			expected: []byte{
				0xbb, 0xfe, 0x08, 0x2b, 0x97, 0x86, 0xd4, 0xe4, 0xa4, 0xec, 0x19, 0xdb, 0x63,
				0x40, 0xce, 0x93, 0x5a, 0x71, 0x5e, 0x63, 0x09, 0x0b, 0x11, 0xad, 0x51, 0x4d, 0xe8, 0x23, 0x50,
			},
		},
		{
			name:  "aes256gcm no aad",
			suite: AES256GCM,
			key:   testKey256,
			expected: []byte{
				0xab, 0xe2, 0x9e, 0x5a, 0x8d, 0xd3, 0xbd, 0x62, 0xc9, 0x46, 0x71, 0x8e, 0x50,
				0xa8, 0xcb, 0x47, 0x81, 0xad, 0x51, 0x89, 0x1f, 0x23, 0x78, 0x11, 0xcb, 0x9f, 0xc5, 0xbf, 0x8b,
			},
		},
		{
			name:  "aes128gcm with aad",
			suite: AES128GCM,
			key:   testKey128,
			aad:   testAAD,
			expected: []byte{
				0xbb, 0xfe, 0x08, 0x2b, 0x97, 0x86, 0xd4, 0xe4, 0xa4, 0xec, 0x19, 0xdb, 0x63,
				0x15, 0x6d, 0x9e, 0xd9, 0x50, 0x1d, 0x7a, 0x51, 0x77, 0x44, 0x98, 0x97, 0x7d, 0x54, 0x1c, 0x19,
			},
		},
		{
			name:  "aes256gcm with aad",
			suite: AES256GCM,
			key:   testKey256,
			aad:   testAAD,
			expected: []byte{
				0xab, 0xe2, 0x9e, 0x5a, 0x8d, 0xd3, 0xbd, 0x62, 0xc9, 0x46, 0x71, 0x8e, 0x50,
				0xc2, 0xb4, 0x2e, 0x65, 0x8f, 0xa9, 0xfc, 0xc4, 0x2d, 0xaf, 0x8e, 0x22, 0xd3, 0xc5, 0x8b, 0x6c,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := Encrypt(tt.suite, tt.key, testNonce, tt.aad, testPlain, encryptBuf(len(testPlain)))
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			if !bytes.Equal(encrypted, tt.expected) {
				t.Fatalf("ciphertext mismatch:\n got %x\nwant %x", encrypted, tt.expected)
			}

			decrypted, err := Decrypt(tt.suite, tt.key, testNonce, tt.aad, encrypted, decryptBuf(len(encrypted)))
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if !bytes.Equal(decrypted, testPlain) {
				t.Fatalf("plaintext mismatch: got %q want %q", decrypted, testPlain)
			}
		})
	}
}

func TestChaCha20Poly1305RoundTrip(t *testing.T) {
	encrypted, err := Encrypt(ChaCha20Poly1305, testKey256, testNonce, testAAD, testPlain, encryptBuf(len(testPlain)))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(encrypted) != len(testPlain)+TagSize {
		t.Fatalf("unexpected ciphertext length %d", len(encrypted))
	}
	decrypted, err := Decrypt(ChaCha20Poly1305, testKey256, testNonce, testAAD, encrypted, decryptBuf(len(encrypted)))
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, testPlain) {
		t.Fatalf("plaintext mismatch")
	}
}

func TestEmptyPlaintextAndAAD(t *testing.T) {
	for _, suite := range []Suite{AES128GCM, AES256GCM, ChaCha20Poly1305} {
		key := testKey128
		if suite.KeySize() == KeySize256 {
			key = testKey256
		}
		encrypted, err := Encrypt(suite, key, testNonce, nil, nil, encryptBuf(0))
		if err != nil {
			t.Fatalf("%s: Encrypt empty: %v", suite, err)
		}
		if len(encrypted) != TagSize {
			t.Fatalf("%s: expected tag-only output, got %d bytes", suite, len(encrypted))
		}
		decrypted, err := Decrypt(suite, key, testNonce, nil, encrypted, decryptBuf(0))
		if err != nil {
			t.Fatalf("%s: Decrypt empty: %v", suite, err)
		}
		if len(decrypted) != 0 {
			t.Fatalf("%s: expected empty plaintext", suite)
		}
	}
}

func TestInvalidKeySizes(t *testing.T) {
	tests := []struct {
		suite      Suite
		key        []byte
		wrongSizes []int
	}{
		{AES128GCM, testKey128, []int{0, 1, 8, 24, 32, 128}},
		{AES256GCM, testKey256, []int{0, 1, 8, 16, 24, 256}},
		{ChaCha20Poly1305, testKey256, []int{0, 1, 8, 16, 24, 256}},
	}
	for _, tt := range tests {
		for _, size := range tt.wrongSizes {
			wrongKey := make([]byte, size)
			if _, err := Encrypt(tt.suite, wrongKey, testNonce, nil, testPlain, encryptBuf(len(testPlain))); !errors.Is(err, ErrInvalidKeySize) {
				t.Fatalf("%s: Encrypt with %d-byte key: got %v, want ErrInvalidKeySize", tt.suite, size, err)
			}
			ct := make([]byte, len(testPlain)+TagSize)
			if _, err := Decrypt(tt.suite, wrongKey, testNonce, nil, ct, decryptBuf(len(ct))); !errors.Is(err, ErrInvalidKeySize) {
				t.Fatalf("%s: Decrypt with %d-byte key: got %v, want ErrInvalidKeySize", tt.suite, size, err)
			}
		}
	}
}

func TestInvalidNonceSizes(t *testing.T) {
	for _, size := range []int{0, 1, 10, 16, 32} {
		wrongNonce := make([]byte, size)
		if _, err := Encrypt(AES128GCM, testKey128, wrongNonce, nil, testPlain, encryptBuf(len(testPlain))); !errors.Is(err, ErrInvalidIVSize) {
			t.Fatalf("Encrypt with %d-byte nonce: got %v, want ErrInvalidIVSize", size, err)
		}
		ct := make([]byte, len(testPlain)+TagSize)
		if _, err := Decrypt(AES128GCM, testKey128, wrongNonce, nil, ct, decryptBuf(len(ct))); !errors.Is(err, ErrInvalidIVSize) {
			t.Fatalf("Decrypt with %d-byte nonce: got %v, want ErrInvalidIVSize", size, err)
		}
	}
}

func TestDecryptShortCiphertext(t *testing.T) {
	for _, size := range []int{0, 1, TagSize - 1} {
		short := make([]byte, size)
		if _, err := Decrypt(AES128GCM, testKey128, testNonce, nil, short, decryptBuf(0)); !errors.Is(err, ErrInvalidBufferSize) {
			t.Fatalf("Decrypt with %d-byte input: got %v, want ErrInvalidBufferSize", size, err)
		}
	}
}

func TestDecryptDetectsTampering(t *testing.T) {
	for _, suite := range []Suite{AES128GCM, AES256GCM, ChaCha20Poly1305} {
		key := testKey128
		if suite.KeySize() == KeySize256 {
			key = testKey256
		}
		encrypted, err := Encrypt(suite, key, testNonce, testAAD, testPlain, encryptBuf(len(testPlain)))
		if err != nil {
			t.Fatalf("%s: Encrypt: %v", suite, err)
		}
		for i := range encrypted {
			corrupted := append([]byte(nil), encrypted...)
			corrupted[i] ^= 0x01
			plaintext, err := Decrypt(suite, key, testNonce, testAAD, corrupted, decryptBuf(len(corrupted)))
			if !errors.Is(err, ErrDecryptionFailed) {
				t.Fatalf("%s: byte %d flipped: got %v, want ErrDecryptionFailed", suite, i, err)
			}
			if plaintext != nil {
				t.Fatalf("%s: byte %d flipped: plaintext exposed", suite, i)
			}
		}
	}
}

func TestEncryptOutputCapacity(t *testing.T) {
	small := make([]byte, 0, len(testPlain)+TagSize-1)
	if _, err := Encrypt(AES128GCM, testKey128, testNonce, nil, testPlain, small); !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("got %v, want ErrBufferTooSmall", err)
	}
}

func TestUnknownSuite(t *testing.T) {
	if _, err := Encrypt(Suite(0), testKey128, testNonce, nil, testPlain, encryptBuf(len(testPlain))); !errors.Is(err, ErrUnknownSuite) {
		t.Fatalf("got %v, want ErrUnknownSuite", err)
	}
}
