package vaultcrypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// PayloadSeparator joins nonce and ciphertext in a stored payload.
const PayloadSeparator = ":"

// JoinPayload renders the stored form "<nonceHex>:<ciphertextHex>".
func JoinPayload(nonceHex, ciphertextHex string) string {
	return nonceHex + PayloadSeparator + ciphertextHex
}

// SplitPayload parses a stored payload back into its nonce and ciphertext.
func SplitPayload(stored string) (nonceHex, ciphertextHex string, err error) {
	nonceHex, ciphertextHex, ok := strings.Cut(stored, PayloadSeparator)
	if !ok || nonceHex == "" || ciphertextHex == "" {
		return "", "", fmt.Errorf("%w: malformed payload", ErrInvalidInput)
	}
	return nonceHex, ciphertextHex, nil
}

// Seal encrypts plaintext with c and returns the stored payload.
func Seal(c *Cipher, plaintext string) (string, error) {
	sealed, err := c.Encrypt(plaintext)
	if err != nil {
		return "", err
	}
	return JoinPayload(sealed.NonceHex, sealed.CiphertextHex), nil
}

// Open decrypts a stored payload produced by Seal.
func Open(c *Cipher, stored string) (string, error) {
	nonceHex, ciphertextHex, err := SplitPayload(stored)
	if err != nil {
		return "", err
	}
	return c.Decrypt(ciphertextHex, nonceHex)
}

// Checksum returns the hex SHA-256 of data, matching
// encode(digest(data, 'sha256'), 'hex') in pgcrypto.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
