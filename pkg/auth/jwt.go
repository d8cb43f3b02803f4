package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
// Tampering, malformed input, and expiry are deliberately indistinguishable
// so callers cannot leak which check failed.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the canonical token payload: account id, role, and the
// registered expiry. Any other shape fails verification.
type Claims struct {
	AccountID string `json:"account_id"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies signed identity assertions
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer. The secret is process-wide
// configuration; rotating it invalidates all outstanding tokens.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token embedding the account id and role with an
// absolute expiration of now + TTL.
func (ti *TokenIssuer) Issue(accountID string, role Role) (string, error) {
	now := ti.now()
	claims := Claims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiration and returns the embedded identity.
// All failure modes collapse into ErrInvalidToken.
func (ti *TokenIssuer) Verify(raw string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(ti.now))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	if claims.AccountID == "" || !claims.Role.Valid() || claims.ExpiresAt == nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{AccountID: claims.AccountID, Role: claims.Role}, nil
}
