package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, ttl time.Duration) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer([]byte("test-secret"), ttl)
	require.NoError(t, err)
	return issuer
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	token, err := issuer.Issue("account-1", RolePlayer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "account-1", identity.AccountID)
	assert.Equal(t, RolePlayer, identity.Role)
}

func TestTokenIssuer_VerifyRejectsExpired(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	base := time.Now()
	issuer.now = func() time.Time { return base }

	token, err := issuer.Issue("account-1", RoleAdmin)
	require.NoError(t, err)

	// Just before expiry the token is still valid
	issuer.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.NoError(t, err)

	// Past expiry it is not
	issuer.now = func() time.Time { return base.Add(61 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_VerifyRejectsTampering(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	token, err := issuer.Issue("account-1", RolePlayer)
	require.NoError(t, err)

	t.Run("modified token", func(t *testing.T) {
		_, err := issuer.Verify(token + "x")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := newTestIssuer(t, time.Hour)
		other.secret = []byte("different-secret")
		_, err := other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := issuer.Verify("")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenIssuer_VerifyRejectsInvalidClaims(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	t.Run("empty account id", func(t *testing.T) {
		token, err := issuer.Issue("", RolePlayer)
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		token, err := issuer.Issue("account-1", Role("SUPERUSER"))
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenIssuer(t *testing.T) {
	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := NewTokenIssuer(nil, time.Hour)
		assert.Error(t, err)
	})

	t.Run("non-positive ttl defaults to 24h", func(t *testing.T) {
		issuer, err := NewTokenIssuer([]byte("secret"), 0)
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, issuer.ttl)
	})
}
