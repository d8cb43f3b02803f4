package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Robertorri/HopVerk1/pkg/auth"
)

// SessionRepository implements auth.SessionStore on PostgreSQL
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates the repository and ensures its table exists
func NewSessionRepository(db *sql.DB) (*SessionRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &SessionRepository{db: db}
	if err := repo.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure sessions table: %w", err)
	}
	return repo, nil
}

func (r *SessionRepository) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES accounts(id),
		token TEXT NOT NULL,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_account_id ON sessions(account_id);
	`
	_, err := r.db.Exec(query)
	return err
}

// CreateSession persists a login session. Sessions expire by timestamp
// comparison and are never actively revoked.
func (r *SessionRepository) CreateSession(ctx context.Context, session auth.Session) error {
	query := `
		INSERT INTO sessions (id, account_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.AccountID, session.Token, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}
