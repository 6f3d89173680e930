// Package phi provides field-level encryption for sensitive clinical values
// (record vitals, exam results). Values are sealed with AES-256-GCM and
// stored as base64 with the nonce prepended. A decryption failure is always
// surfaced to the caller; stored ciphertext is never passed through as if it
// were the plaintext.
package phi

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// FieldCipher encrypts and decrypts individual field values.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Cipher is the AES-256-GCM implementation of FieldCipher.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("field cipher: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("field cipher: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("field cipher: create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext and returns base64(nonce + ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("field encrypt: generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Corrupt or foreign ciphertext is an error.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("field decrypt: base64 decode: %w", err)
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("field decrypt: ciphertext too short")
	}
	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("field decrypt: %w", err)
	}
	return string(plaintext), nil
}

// Service wraps a FieldCipher with a disabled mode for development
// environments where no key is configured.
type Service struct {
	cipher  FieldCipher
	enabled bool
}

// NewService builds the encryption service from a hex-encoded key. An empty
// key disables encryption with a logged warning; a malformed key is a
// startup error so the server refuses to run misconfigured.
func NewService(hexKey string, logger zerolog.Logger) (*Service, error) {
	if hexKey == "" {
		logger.Warn().Msg("field encryption disabled: no encryption key configured")
		return &Service{enabled: false}, nil
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes (64 hex chars), got %d bytes", len(key))
	}

	c, err := NewCipher(key)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("field-level encryption enabled")
	return &Service{cipher: c, enabled: true}, nil
}

// NewServiceWithCipher wires a prebuilt cipher; used by tests.
func NewServiceWithCipher(c FieldCipher) *Service {
	return &Service{cipher: c, enabled: true}
}

// Enabled reports whether values are actually being encrypted.
func (s *Service) Enabled() bool { return s.enabled }

// Encrypt seals a field value, or returns it unchanged when disabled.
func (s *Service) Encrypt(value string) (string, error) {
	if !s.enabled || value == "" {
		return value, nil
	}
	return s.cipher.Encrypt(value)
}

// Decrypt opens a field value, or returns it unchanged when disabled.
func (s *Service) Decrypt(value string) (string, error) {
	if !s.enabled || value == "" {
		return value, nil
	}
	return s.cipher.Decrypt(value)
}
