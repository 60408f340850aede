// Package tokencodec encrypts delegated-access credentials before they are
// persisted.
//
// Records have the form "<ivHex>:<ciphertextHex>". Every Encode draws a
// fresh random IV, so the same plaintext never produces the same record and
// no IV is ever reused under one key. AES-256-GCM authenticates the
// ciphertext; tampered records fail to decode.
package tokencodec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const keySize = 32

// ErrMalformedToken is returned for records that cannot be split, decoded
// or authenticated.
var ErrMalformedToken = errors.New("malformed token record")

type Codec struct {
	aead cipher.AEAD
	rand io.Reader
}

// New builds a Codec from a 32-byte key.
func New(key []byte) (*Codec, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("token encryption key must be %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Codec{aead: aead, rand: rand.Reader}, nil
}

// KeyFromString accepts either a raw 32-character key or a base64 encoding
// of 32 bytes.
func KeyFromString(s string) ([]byte, error) {
	if len(s) == keySize {
		return []byte(s), nil
	}

	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("token encryption key is neither %d raw bytes nor valid base64: %w", keySize, err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("token encryption key must decode to %d bytes, got %d", keySize, len(key))
	}
	return key, nil
}

func (c *Codec) Encode(plaintext string) (string, error) {
	iv := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(sealed), nil
}

func (c *Codec) Decode(record string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(record, ":")
	if !ok || ivHex == "" || ctHex == "" {
		return "", ErrMalformedToken
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != c.aead.NonceSize() {
		return "", ErrMalformedToken
	}

	sealed, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", ErrMalformedToken
	}

	plain, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrMalformedToken
	}

	return string(plain), nil
}
