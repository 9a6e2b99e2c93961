// Package encryption implements at-rest encryption for stored secrets.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// keySalt is the fixed PBKDF2 salt for deriving the data key from the
// configured secret. The same derivation is used for both encrypt and decrypt;
// deriving any part of the key from the plaintext would make round-trip
// decryption impossible.
const (
	keySalt       = "wp-pilot-credential-codec-v1"
	keyIterations = 10000
	keyLength     = 32
)

// Service provides reversible encryption for secret strings and JSON blobs.
// All ciphertexts are hex-encoded nonce||ciphertext||tag.
type Service interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	EncryptJSON(value any) (string, error)
	DecryptJSON(ciphertext string, out any) error
	// Hash returns a keyed HMAC-SHA256 digest for equality lookups without
	// decryption. Empty input yields an empty hash.
	Hash(plaintext string) string
	// IsEnabled reports whether real encryption is active.
	IsEnabled() bool
}

// NewService creates an encryption service. An empty key yields a noop service
// that stores values in plaintext; this keeps local development working but is
// never appropriate for production.
func NewService(encryptionKey string) (Service, error) {
	if encryptionKey == "" {
		return &noopService{}, nil
	}

	dataKey := pbkdf2.Key([]byte(encryptionKey), []byte(keySalt), keyIterations, keyLength, sha256.New)
	block, err := aes.NewCipher(dataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	hmacKey := pbkdf2.Key([]byte(encryptionKey), []byte(keySalt+":hmac"), keyIterations, keyLength, sha256.New)

	return &aesService{gcm: gcm, hmacKey: hmacKey}, nil
}

// aesService is the AES-256-GCM implementation.
type aesService struct {
	gcm     cipher.AEAD
	hmacKey []byte
}

func (s *aesService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

func (s *aesService) Decrypt(ciphertext string) (string, error) {
	data, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid hex ciphertext: %w", err)
	}

	nonceSize := s.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short: %d bytes", len(data))
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}

func (s *aesService) EncryptJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.Encrypt(string(data))
}

func (s *aesService) DecryptJSON(ciphertext string, out any) error {
	plaintext, err := s.Decrypt(ciphertext)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(plaintext), out); err != nil {
		return fmt.Errorf("failed to unmarshal decrypted value: %w", err)
	}
	return nil
}

func (s *aesService) Hash(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *aesService) IsEnabled() bool {
	return true
}

// noopService passes values through unchanged.
type noopService struct{}

func (s *noopService) Encrypt(plaintext string) (string, error) {
	return plaintext, nil
}

func (s *noopService) Decrypt(ciphertext string) (string, error) {
	return ciphertext, nil
}

func (s *noopService) EncryptJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}
	return string(data), nil
}

func (s *noopService) DecryptJSON(ciphertext string, out any) error {
	return json.Unmarshal([]byte(ciphertext), out)
}

func (s *noopService) Hash(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func (s *noopService) IsEnabled() bool {
	return false
}
