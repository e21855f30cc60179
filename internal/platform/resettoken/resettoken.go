// Package resettoken generates password-reset secrets and their stored digests.
package resettoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// secretBytes is the amount of randomness in a reset secret.
const secretBytes = 32

// Generate returns a new hex-encoded secret and the sha256 hex digest to persist.
// Only the digest is stored; the secret goes to the user.
func Generate() (secret, hash string, err error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	secret = hex.EncodeToString(b)
	return secret, Hash(secret), nil
}

// Hash returns the sha256 hex digest of secret.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
