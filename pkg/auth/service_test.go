package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Robertorri/HopVerk1/pkg/audit"
	"github.com/Robertorri/HopVerk1/pkg/storage"
)

// memoryAccounts is an in-memory AccountStore for tests
type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: make(map[string]Account)}
}

func (m *memoryAccounts) CreateAccount(ctx context.Context, account Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[account.Username]; exists {
		return storage.ErrDuplicate
	}
	m.accounts[account.Username] = account
	return nil
}

func (m *memoryAccounts) GetAccountByUsername(ctx context.Context, username string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[username]
	if !ok {
		return Account{}, storage.ErrNotFound
	}
	return account, nil
}

func (m *memoryAccounts) GetAccountByID(ctx context.Context, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return Account{}, storage.ErrNotFound
}

// memorySessions is an in-memory SessionStore for tests
type memorySessions struct {
	mu       sync.Mutex
	sessions []Session
}

func (m *memorySessions) CreateSession(ctx context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, session)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryAccounts, *memorySessions) {
	t.Helper()

	accounts := newMemoryAccounts()
	sessions := &memorySessions{}

	issuer, err := NewTokenIssuer([]byte("test-secret"), 24*time.Hour)
	require.NoError(t, err)

	service, err := NewService(ServiceConfig{
		Accounts: accounts,
		Sessions: sessions,
		Hasher:   NewPasswordHasher(bcrypt.MinCost),
		Tokens:   issuer,
		Lockout:  NewLockoutTracker(LockoutConfig{Threshold: 5, Duration: 15 * time.Minute}),
		Audit:    audit.NewRecorder(audit.NopLogger{}, nil),
	})
	require.NoError(t, err)

	return service, accounts, sessions
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		service, _, _ := newTestService(t)

		account, err := service.Register(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, account.ID)
		assert.Equal(t, "alice", account.Username)
		assert.Equal(t, RolePlayer, account.Role)
		assert.NotEqual(t, "password123", account.PasswordHash)
	})

	t.Run("duplicate username", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Register(ctx, "alice", "password123")
		require.NoError(t, err)

		_, err = service.Register(ctx, "alice", "different456")
		assert.ErrorIs(t, err, ErrDuplicateUser)
	})

	t.Run("password too short", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Register(ctx, "alice", "abc1")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("password without digit", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Register(ctx, "alice", "onlyletters")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("password without letter", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Register(ctx, "alice", "12345678")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("empty username", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Register(ctx, "  ", "password123")
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns token and persists session", func(t *testing.T) {
		service, _, sessions := newTestService(t)

		account, err := service.Register(ctx, "alice", "password123")
		require.NoError(t, err)

		result, err := service.Login(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, account.ID, result.AccountID)
		assert.Equal(t, RolePlayer, result.Role)

		require.Len(t, sessions.sessions, 1)
		assert.Equal(t, account.ID, sessions.sessions[0].AccountID)
		assert.False(t, sessions.sessions[0].IsExpired(time.Now()))
	})

	t.Run("unknown username and wrong password are indistinguishable", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Register(ctx, "alice", "password123")
		require.NoError(t, err)

		_, unknownErr := service.Login(ctx, "nosuchuser", "password123")
		_, wrongErr := service.Login(ctx, "alice", "wrongpass1")

		assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
		assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	})

	t.Run("lockout after consecutive failures", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Register(ctx, "alice", "password123")
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			_, err := service.Login(ctx, "alice", "wrongpass1")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}

		// Even the correct password is rejected while locked
		_, err = service.Login(ctx, "alice", "password123")
		assert.ErrorIs(t, err, ErrAccountLocked)
	})

	t.Run("failures for unknown usernames also count toward lockout", func(t *testing.T) {
		service, _, _ := newTestService(t)

		for i := 0; i < 5; i++ {
			_, err := service.Login(ctx, "ghost", "password123")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}

		_, err := service.Login(ctx, "ghost", "password123")
		assert.ErrorIs(t, err, ErrAccountLocked)
	})

	t.Run("successful login resets the failure counter", func(t *testing.T) {
		service, _, _ := newTestService(t)

		_, err := service.Register(ctx, "alice", "password123")
		require.NoError(t, err)

		for i := 0; i < 4; i++ {
			_, err := service.Login(ctx, "alice", "wrongpass1")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}

		_, err = service.Login(ctx, "alice", "password123")
		require.NoError(t, err)

		// The reset counter allows four more failures before locking
		for i := 0; i < 4; i++ {
			_, err := service.Login(ctx, "alice", "wrongpass1")
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
		_, err = service.Login(ctx, "alice", "password123")
		assert.NoError(t, err)
	})

	t.Run("issued token verifies with the issuer", func(t *testing.T) {
		service, _, _ := newTestService(t)

		account, err := service.Register(ctx, "alice", "password123")
		require.NoError(t, err)

		result, err := service.Login(ctx, "alice", "password123")
		require.NoError(t, err)

		identity, err := service.tokens.Verify(result.Token)
		require.NoError(t, err)
		assert.Equal(t, account.ID, identity.AccountID)
		assert.Equal(t, RolePlayer, identity.Role)
	})
}
