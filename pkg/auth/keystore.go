package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyPrefix marks keys issued by this service so leaked keys can be
	// recognized in logs and secret scanners.
	KeyPrefix = "tma_"

	KeyRandomLength = 32 // bytes of random data

	BcryptCost = 12
)

var (
	ErrKeyNotFound = errors.New("unknown API key")
	ErrEmptyKey    = errors.New("API key cannot be empty")
)

// APIKeyStore validates static API keys. Only bcrypt hashes are held in
// memory; the plaintext key exists solely at generation time.
type APIKeyStore struct {
	mu     sync.RWMutex
	hashes map[string][]byte // subject -> bcrypt hash
}

// NewAPIKeyStore creates an empty key store.
func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{hashes: make(map[string][]byte)}
}

// AddKey registers a pre-hashed key for a subject. The hash must be a bcrypt
// hash of the full key string.
func (s *APIKeyStore) AddKey(subject string, hash []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[subject] = hash
}

// GenerateKey creates a new random API key for a subject, stores its bcrypt
// hash, and returns the plaintext key. The plaintext is not recoverable
// afterwards.
func (s *APIKeyStore) GenerateKey(subject string) (string, error) {
	randomBytes := make([]byte, KeyRandomLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	key := KeyPrefix + base64.RawURLEncoding.EncodeToString(randomBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(key), BcryptCost)
	if err != nil {
		return "", err
	}
	s.AddKey(subject, hash)
	return key, nil
}

// ValidateKey checks a presented key against every stored hash and returns
// the matching subject.
func (s *APIKeyStore) ValidateKey(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for subject, hash := range s.hashes {
		if bcrypt.CompareHashAndPassword(hash, []byte(key)) == nil {
			return subject, nil
		}
	}
	return "", ErrKeyNotFound
}

// Empty reports whether the store holds no keys.
func (s *APIKeyStore) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hashes) == 0
}
