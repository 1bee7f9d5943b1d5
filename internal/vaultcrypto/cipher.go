// Package vaultcrypto encrypts vault payloads with an AEAD under a
// per-instance random key.
package vaultcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the length of the generated key in bytes.
	KeySize = 32
	// NonceSize is the length of the per-message nonce in bytes.
	NonceSize = 12
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidInput         = errors.New("invalid cipher input")
	ErrUnknownAlgorithm     = errors.New("unknown cipher algorithm")
)

// Algorithm selects the AEAD construction.
type Algorithm string

const (
	AES256GCM        Algorithm = "aes-256-gcm"
	ChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// ParseAlgorithm maps a configuration value to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case AES256GCM, ChaCha20Poly1305:
		return a, nil
	case "":
		return AES256GCM, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// Sealed is the hex-encoded output of a single encryption.
type Sealed struct {
	CiphertextHex string
	NonceHex      string
}

type options struct {
	algorithm Algorithm
	random    io.Reader
}

// Option configures a Cipher.
type Option func(*options)

// WithAlgorithm sets the AEAD construction. The default is AES256GCM.
func WithAlgorithm(a Algorithm) Option {
	return func(o *options) {
		o.algorithm = a
	}
}

// Cipher is an authenticated cipher bound to a key generated at construction.
// The key never leaves the instance.
type Cipher struct {
	aead      cipher.AEAD
	algorithm Algorithm
	random    io.Reader
}

// New generates a fresh 256-bit key and returns a Cipher using it.
func New(opts ...Option) (*Cipher, error) {
	o := options{
		algorithm: AES256GCM,
		random:    rand.Reader,
	}
	for _, opt := range opts {
		opt(&o)
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(o.random, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	return newWithKey(o.algorithm, key, o.random)
}

func newWithKey(algorithm Algorithm, key []byte, random io.Reader) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", ErrInvalidInput, KeySize)
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch algorithm {
	case AES256GCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("failed to create block cipher: %w", err)
		}
		aead, err = cipher.NewGCM(block)
	case ChaCha20Poly1305:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s: %w", algorithm, err)
	}

	return &Cipher{
		aead:      aead,
		algorithm: algorithm,
		random:    random,
	}, nil
}

// Algorithm reports the AEAD construction in use.
func (c *Cipher) Algorithm() Algorithm {
	return c.algorithm
}

// Encrypt seals plaintext under a fresh random nonce. No associated data is used.
func (c *Cipher) Encrypt(plaintext string) (Sealed, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return Sealed{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return Sealed{
		CiphertextHex: hex.EncodeToString(ciphertext),
		NonceHex:      hex.EncodeToString(nonce),
	}, nil
}

// Decrypt verifies and opens a ciphertext produced by Encrypt on the same
// instance. Any tag mismatch yields ErrAuthenticationFailed and no plaintext.
func (c *Cipher) Decrypt(ciphertextHex, nonceHex string) (string, error) {
	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrInvalidInput, err)
	}
	if len(nonce) != NonceSize {
		return "", fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrInvalidInput, NonceSize, len(nonce))
	}

	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrInvalidInput, err)
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}

	return string(plaintext), nil
}
