// internal/auth/apikey.go
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var ErrInvalidKey = errors.New("invalid api key")

// HashKey generates a salted Argon2id hash of an admin API key.
func HashKey(key string) (hash string, salt string, err error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(derive(key, raw)), base64.StdEncoding.EncodeToString(raw), nil
}

// GenerateKey returns a new random API key.
func GenerateKey() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Verifier checks presented keys against one stored hash.
type Verifier struct {
	hash []byte
	salt []byte
}

func NewVerifier(hash, salt string) (*Verifier, error) {
	decodedSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	decodedHash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hash: %w", err)
	}
	return &Verifier{hash: decodedHash, salt: decodedSalt}, nil
}

func (v *Verifier) Verify(key string) bool {
	return subtle.ConstantTimeCompare(v.hash, derive(key, v.salt)) == 1
}

func derive(key string, salt []byte) []byte {
	return argon2.IDKey([]byte(key), salt, 1, 64*1024, 4, 32)
}
