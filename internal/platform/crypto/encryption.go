// Package crypto seals sensitive employee columns, bank account numbers
// foremost, before they are written to Postgres.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// Service applies AES-256-GCM with a random nonce prepended to each sealed
// value. Without a configured key it degrades to a passthrough so local
// setups can run unencrypted.
type Service struct {
	aead cipher.AEAD
}

func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	material, err := keyBytes(key)
	if err != nil {
		return nil, err
	}
	if len(material) != 32 {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(material))
	}
	block, err := aes.NewCipher(material)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s.aead != nil
}

func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	if s.aead == nil {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *Service) Decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, nil
	}
	if s.aead == nil {
		return sealed, nil
	}
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("sealed value shorter than its nonce")
	}
	return s.aead.Open(nil, sealed[:n], sealed[n:], nil)
}

func (s *Service) EncryptString(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	return s.Encrypt([]byte(value))
}

func (s *Service) DecryptString(sealed []byte) (string, error) {
	plain, err := s.Decrypt(sealed)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// keyBytes accepts hex, standard or raw base64, and finally literal bytes;
// operators paste keys in all three shapes.
func keyBytes(raw string) ([]byte, error) {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded, nil
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded, nil
	}
	return []byte(raw), nil
}
