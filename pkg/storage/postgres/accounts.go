package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Robertorri/HopVerk1/pkg/auth"
	"github.com/Robertorri/HopVerk1/pkg/storage"
)

// pq error code for unique constraint violations
const uniqueViolation = "23505"

// AccountRepository implements auth.AccountStore on PostgreSQL
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates the repository and ensures its table exists
func NewAccountRepository(db *sql.DB) (*AccountRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &AccountRepository{db: db}
	if err := repo.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure accounts table: %w", err)
	}
	return repo, nil
}

func (r *AccountRepository) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		username VARCHAR(255) NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'PLAYER',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_username ON accounts(username);
	`
	_, err := r.db.Exec(query)
	return err
}

// CreateAccount inserts a new account. The unique constraint on username is
// the final backstop against a duplicate-registration race.
func (r *AccountRepository) CreateAccount(ctx context.Context, account auth.Account) error {
	query := `
		INSERT INTO accounts (id, username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Username, account.PasswordHash, account.Role, account.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// GetAccountByUsername looks up an account by its exact username
func (r *AccountRepository) GetAccountByUsername(ctx context.Context, username string) (auth.Account, error) {
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM accounts
		WHERE username = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, username))
}

// GetAccountByID looks up an account by id
func (r *AccountRepository) GetAccountByID(ctx context.Context, id string) (auth.Account, error) {
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *AccountRepository) scanAccount(row *sql.Row) (auth.Account, error) {
	var account auth.Account
	err := row.Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Role, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, storage.ErrNotFound
	}
	if err != nil {
		return auth.Account{}, fmt.Errorf("failed to scan account: %w", err)
	}
	return account, nil
}
