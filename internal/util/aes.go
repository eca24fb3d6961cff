package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	AESKeySize = 32

	envelopeDelimiter = ":"
)

// EncryptOpaque seals plaintext under rawKey with AES-256-GCM and returns the
// printable envelope hex(nonce) ":" hex(ciphertext). A fresh random nonce is
// drawn per call, so encrypting the same plaintext twice yields different
// envelopes.
func EncryptOpaque(plaintext, rawKey []byte) (string, error) {
	return EncryptOpaqueWithAAD(plaintext, rawKey, nil)
}

// EncryptOpaqueWithAAD is EncryptOpaque with additional authenticated data
// bound into the GCM tag. The AAD is not stored in the envelope; decryption
// must present the same bytes.
func EncryptOpaqueWithAAD(plaintext, rawKey, aad []byte) (string, error) {
	gcm, err := newGCM(rawKey)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	cipherText := gcm.Seal(nil, nonce, plaintext, aad)

	return HexEncode(nonce) + envelopeDelimiter + HexEncode(cipherText), nil
}

// DecryptOpaque opens an envelope produced by EncryptOpaque. Malformed
// envelopes, truncated ciphertext, and authentication failures all return an
// error; callers must treat any error as an undecryptable value.
func DecryptOpaque(envelope string, rawKey []byte) ([]byte, error) {
	return DecryptOpaqueWithAAD(envelope, rawKey, nil)
}

// DecryptOpaqueWithAAD is DecryptOpaque for envelopes sealed with AAD.
func DecryptOpaqueWithAAD(envelope string, rawKey, aad []byte) ([]byte, error) {
	gcm, err := newGCM(rawKey)
	if err != nil {
		return nil, err
	}

	noncePart, ctPart, ok := strings.Cut(envelope, envelopeDelimiter)
	if !ok {
		return nil, fmt.Errorf("envelope missing delimiter")
	}
	nonce, err := HexDecode(noncePart)
	if err != nil {
		return nil, fmt.Errorf("decoding envelope nonce: %w", err)
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid envelope nonce size: got %d, want %d", len(nonce), gcm.NonceSize())
	}
	cipherText, err := HexDecode(ctPart)
	if err != nil {
		return nil, fmt.Errorf("decoding envelope ciphertext: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, cipherText, aad)
	if err != nil {
		return nil, fmt.Errorf("decrypting envelope: %w", err)
	}

	return plaintext, nil
}

func newGCM(rawKey []byte) (cipher.AEAD, error) {
	if len(rawKey) != AESKeySize {
		return nil, fmt.Errorf("invalid AES key size: got %d, want %d", len(rawKey), AESKeySize)
	}

	block, err := aes.NewCipher(rawKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}

func NewAESKey() ([]byte, error) {
	rawKey := make([]byte, AESKeySize)
	if _, err := rand.Read(rawKey); err != nil {
		return nil, fmt.Errorf("generating AES key: %w", err)
	}
	return rawKey, nil
}
