// Package access gates privileged scrape sessions behind a shared secret.
package access

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
)

// DefaultSecretEnv names the environment variable holding the admin key.
const DefaultSecretEnv = "ADMIN_KEY"

var (
	// ErrNoSecret is returned when no admin key is configured.
	ErrNoSecret = errors.New("admin key not found in environment")
	// ErrAccessDenied is returned when a candidate key does not match.
	ErrAccessDenied = errors.New("invalid admin key")
)

// Verifier checks candidate keys against a secret fixed at construction.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for secret. An empty secret is rejected.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// FromEnv creates a Verifier from the named environment variable, falling
// back to DefaultSecretEnv when name is empty.
func FromEnv(name string) (*Verifier, error) {
	if name == "" {
		name = DefaultSecretEnv
	}
	v, err := NewVerifier(os.Getenv(name))
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, name)
	}
	return v, nil
}

// Verify reports whether key equals the secret exactly.
func (v *Verifier) Verify(key string) bool {
	return subtle.ConstantTimeCompare([]byte(key), v.secret) == 1
}

// Authorize returns ErrAccessDenied unless key is valid.
func (v *Verifier) Authorize(key string) error {
	if !v.Verify(key) {
		return ErrAccessDenied
	}
	return nil
}
