package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// sealedMagic prefixes every sealed payload so plain files can be told apart.
var sealedMagic = []byte("TPS1")

var (
	ErrNotConfigured = errors.New("encryption key not configured")
	ErrNotSealed     = errors.New("payload is not sealed")
)

// Sealer encrypts payslips at rest with AES-256-GCM.
type Sealer struct {
	key []byte
}

// NewSealer accepts a 32 byte key as hex, base64 or raw text. An empty key
// yields an unconfigured sealer.
func NewSealer(key string) (*Sealer, error) {
	if key == "" {
		return &Sealer{}, nil
	}
	decoded := decodeKey(key)
	if len(decoded) != 32 {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must be 32 bytes after decoding, got %d", len(decoded))
	}
	return &Sealer{key: decoded}, nil
}

func (s *Sealer) Configured() bool {
	return s != nil && len(s.key) == 32
}

func (s *Sealer) aead() (cipher.AEAD, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt returns magic || nonce || ciphertext.
func (s *Sealer) Encrypt(plain []byte) ([]byte, error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(sealedMagic)+gcm.NonceSize(), len(sealedMagic)+gcm.NonceSize()+len(plain)+gcm.Overhead())
	copy(out, sealedMagic)
	nonce := out[len(sealedMagic):]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(out, nonce, plain, sealedMagic), nil
}

func (s *Sealer) Decrypt(sealed []byte) ([]byte, error) {
	if !bytes.HasPrefix(sealed, sealedMagic) {
		return nil, ErrNotSealed
	}
	gcm, err := s.aead()
	if err != nil {
		return nil, err
	}
	body := sealed[len(sealedMagic):]
	if len(body) < gcm.NonceSize() {
		return nil, errors.New("sealed payload too short")
	}
	nonce, data := body[:gcm.NonceSize()], body[gcm.NonceSize():]
	return gcm.Open(nil, nonce, data, sealedMagic)
}

func decodeKey(raw string) []byte {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	return []byte(raw)
}
