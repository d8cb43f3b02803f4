package auth

import "time"

// Role represents an account's access level
type Role string

const (
	RolePlayer Role = "PLAYER" // Default role for registered accounts
	RoleAdmin  Role = "ADMIN"  // Elevated out-of-band; full access
)

// Valid reports whether the role is a known value
func (r Role) Valid() bool {
	return r == RolePlayer || r == RoleAdmin
}

// Satisfies reports whether this role meets the given requirement.
// ADMIN satisfies every requirement; PLAYER satisfies only PLAYER.
func (r Role) Satisfies(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// Account represents a registered identity
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose the hash
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents a persisted login artifact. It is kept for audit and
// traceability only; token verification never consults it.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the session has passed its expiry
func (s Session) IsExpired(at time.Time) bool {
	return at.After(s.ExpiresAt)
}

// Identity holds the verified claims attached to an authenticated request
type Identity struct {
	AccountID string `json:"account_id"`
	Role      Role   `json:"role"`
}
