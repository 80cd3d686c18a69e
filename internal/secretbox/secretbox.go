// Package secretbox encrypts small secrets with AES-256-GCM under a
// single process-wide key. It is used to keep per-user provider API
// keys out of the database in plaintext.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// KeySize is the required key length. AES-256 only.
	KeySize = 32

	nonceSize = 12
)

var (
	// ErrBadKey is returned when a key is not a valid 32-byte value.
	ErrBadKey = errors.New("secretbox: key must be 32 bytes")

	// ErrDecrypt is returned for every decryption failure: wrong key,
	// truncated or tampered ciphertext, bad nonce. Callers get no more
	// detail than that.
	ErrDecrypt = errors.New("secretbox: cannot decrypt")
)

// Box seals and opens secrets under one AES-256-GCM key.
type Box struct {
	aead cipher.AEAD
}

// New builds a Box from a raw 32-byte key.
func New(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, ErrBadKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh random 12-byte nonce. The
// ciphertext and nonce are returned separately and must both be stored.
func (b *Box) Encrypt(plaintext []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("read nonce: %w", err)
	}
	ciphertext = b.aead.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any failure surfaces
// as ErrDecrypt.
func (b *Box) Decrypt(ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != nonceSize {
		return nil, ErrDecrypt
	}
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// ParseKey decodes a key from its env-var form. Base64 (std or raw)
// and hex are both accepted; the decoded key must be exactly 32 bytes.
func ParseKey(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrBadKey
	}
	if k, err := base64.StdEncoding.DecodeString(s); err == nil && len(k) == KeySize {
		return k, nil
	}
	if k, err := base64.RawStdEncoding.DecodeString(s); err == nil && len(k) == KeySize {
		return k, nil
	}
	if k, err := hex.DecodeString(s); err == nil && len(k) == KeySize {
		return k, nil
	}
	return nil, ErrBadKey
}

// NewRandomKey generates a fresh random key. Anything encrypted under a
// previous key is unrecoverable once the process restarts with a new one.
func NewRandomKey() []byte {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("secretbox: read random key: %v", err))
	}
	return key
}

// EncodeKey renders a key in the base64 form ParseKey accepts.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}
