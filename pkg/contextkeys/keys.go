// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *auth.Identity
	// Set by: middleware.Authenticator.Require (pkg/middleware/auth.go)
	// Required by: all protected endpoints, role middleware
	IdentityKey Key = "identity"

	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: logger, audit trail
	RequestIDKey Key = "request_id"

	// ClientIPKey contains the caller's IP string
	// Set by: middleware.RateLimiter.Middleware
	// Used by: audit trail (login failures, lockouts)
	ClientIPKey Key = "client_ip"

	// LoggerKey contains *observability.Logger
	// Set by: middleware.RequestID
	LoggerKey Key = "logger"
)
