package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/Robertorri/HopVerk1/pkg/audit"
	"github.com/Robertorri/HopVerk1/pkg/observability"
	"github.com/Robertorri/HopVerk1/pkg/storage"
)

// Sentinel errors classifying authentication failures. Handlers map these
// onto HTTP statuses at the boundary.
var (
	// ErrDuplicateUser is returned when the username is already registered
	ErrDuplicateUser = errors.New("User with this username already exists")
	// ErrInvalidCredentials is returned for unknown usernames and wrong
	// passwords alike, so responses carry no account-enumeration signal.
	ErrInvalidCredentials = errors.New("Invalid username or password")
	// ErrAccountLocked is returned while a username's lockout is active
	ErrAccountLocked = errors.New("Account temporarily locked due to too many failed login attempts")
)

// ValidationError reports malformed or policy-violating input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AccountStore persists registered accounts
type AccountStore interface {
	// CreateAccount inserts a new account. Returns storage.ErrDuplicate
	// if the username is taken; the storage-level unique constraint is
	// the final backstop against concurrent duplicate registration.
	CreateAccount(ctx context.Context, account Account) error

	// GetAccountByUsername returns the account or storage.ErrNotFound
	GetAccountByUsername(ctx context.Context, username string) (Account, error)

	// GetAccountByID returns the account or storage.ErrNotFound
	GetAccountByID(ctx context.Context, id string) (Account, error)
}

// SessionStore persists login sessions
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) error
}

// ServiceConfig wires the dependencies required by Service
type ServiceConfig struct {
	Accounts          AccountStore
	Sessions          SessionStore
	Hasher            *PasswordHasher
	Tokens            *TokenIssuer
	Lockout           *LockoutTracker
	Audit             *audit.Recorder
	Metrics           *observability.Metrics
	TokenTTL          time.Duration
	PasswordMinLength int
	Now               func() time.Time
}

// Service orchestrates registration and login
type Service struct {
	accounts          AccountStore
	sessions          SessionStore
	hasher            *PasswordHasher
	tokens            *TokenIssuer
	lockout           *LockoutTracker
	audit             *audit.Recorder
	metrics           *observability.Metrics
	tokenTTL          time.Duration
	passwordMinLength int
	now               func() time.Time
}

// NewService builds an authentication service
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if cfg.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if cfg.Lockout == nil {
		cfg.Lockout = NewLockoutTracker(DefaultLockoutConfig())
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.PasswordMinLength <= 0 {
		cfg.PasswordMinLength = 8
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		accounts:          cfg.Accounts,
		sessions:          cfg.Sessions,
		hasher:            cfg.Hasher,
		tokens:            cfg.Tokens,
		lockout:           cfg.Lockout,
		audit:             cfg.Audit,
		metrics:           cfg.Metrics,
		tokenTTL:          cfg.TokenTTL,
		passwordMinLength: cfg.PasswordMinLength,
		now:               cfg.Now,
	}, nil
}

// Register creates a new account with the default PLAYER role.
// The password and its hash are never returned.
func (s *Service) Register(ctx context.Context, username, password string) (Account, error) {
	if err := s.validateRegistration(username, password); err != nil {
		return Account{}, err
	}

	// Fast duplicate check; the unique constraint closes the race window
	if _, err := s.accounts.GetAccountByUsername(ctx, username); err == nil {
		return Account{}, ErrDuplicateUser
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Account{}, fmt.Errorf("failed to check username: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account := Account{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: digest,
		Role:         RolePlayer,
		CreatedAt:    s.now(),
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return Account{}, ErrDuplicateUser
		}
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	s.audit.Record(ctx, &account.ID, audit.ActionRegister, fmt.Sprintf("account %s registered", username))
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}

	return account, nil
}

// LoginResult carries the outcome of a successful login
type LoginResult struct {
	Token     string
	AccountID string
	Role      Role
}

// Login authenticates a username/password pair and issues a token.
// Failures are classified but deliberately uninformative: unknown usernames
// and wrong passwords produce the identical error.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if !s.lockout.Allow(username) {
		return LoginResult{}, ErrAccountLocked
	}

	if strings.TrimSpace(username) == "" || password == "" {
		return LoginResult{}, &ValidationError{Message: "username and password are required"}
	}

	account, err := s.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.recordLoginFailure(ctx, nil, username)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		s.recordLoginFailure(ctx, &account.ID, username)
		return LoginResult{}, ErrInvalidCredentials
	}

	s.lockout.Reset(username)

	token, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.sessions != nil {
		session := Session{
			ID:        uuid.New().String(),
			AccountID: account.ID,
			Token:     token,
			ExpiresAt: s.now().Add(s.tokenTTL),
			CreatedAt: s.now(),
		}
		if err := s.sessions.CreateSession(ctx, session); err != nil {
			return LoginResult{}, fmt.Errorf("failed to persist session: %w", err)
		}
	}

	s.audit.Record(ctx, &account.ID, audit.ActionLoginSuccess, "user logged in successfully")
	if s.metrics != nil {
		s.metrics.LoginSuccessTotal.Inc()
	}

	return LoginResult{
		Token:     token,
		AccountID: account.ID,
		Role:      account.Role,
	}, nil
}

// recordLoginFailure increments the lockout counter and audits the failure.
// accountID is nil when the username is unknown.
func (s *Service) recordLoginFailure(ctx context.Context, accountID *string, username string) {
	locked := s.lockout.RecordFailure(username)

	s.audit.Record(ctx, accountID, audit.ActionLoginFailure, fmt.Sprintf("failed login attempt for %s", username))
	if s.metrics != nil {
		s.metrics.LoginFailureTotal.Inc()
	}

	if locked {
		s.audit.Record(ctx, accountID, audit.ActionLockoutTriggered, fmt.Sprintf("lockout triggered for %s", username))
		if s.metrics != nil {
			s.metrics.LockoutsTotal.Inc()
		}
	}
}

// validateRegistration enforces the input shape and password policy
func (s *Service) validateRegistration(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return &ValidationError{Message: "username is required"}
	}
	if len(password) < s.passwordMinLength {
		return &ValidationError{
			Message: fmt.Sprintf("password must be at least %d characters", s.passwordMinLength),
		}
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return &ValidationError{Message: "password must contain at least one letter and one digit"}
	}

	return nil
}
