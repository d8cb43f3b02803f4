package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
// 12 keeps a single hash in the tens of milliseconds on current hardware.
const DefaultBcryptCost = 12

// ErrEmptyPassword is returned when an empty plaintext is hashed
var ErrEmptyPassword = errors.New("password must not be empty")

// PasswordHasher hashes and verifies credentials using bcrypt
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given cost factor.
// Costs below bcrypt.MinCost fall back to DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash produces a salted, self-contained digest of the plaintext.
// The plaintext is never logged or stored.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether the plaintext matches the digest. bcrypt's
// comparison is constant-time with respect to the digest contents.
func (h *PasswordHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
