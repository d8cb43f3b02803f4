package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// DBLogger implements audit logging to PostgreSQL
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a new database-backed audit logger
func NewDBLogger(db *sql.DB) (*DBLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	logger := &DBLogger{db: db}
	if err := logger.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit_logs table: %w", err)
	}
	return logger, nil
}

// ensureTable creates the audit_logs table if it doesn't exist
func (l *DBLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		account_id UUID,
		action VARCHAR(50) NOT NULL,
		detail TEXT,
		ip_address VARCHAR(45),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_account_id ON audit_logs(account_id);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
	`
	_, err := l.db.Exec(query)
	return err
}

// Record appends one audit entry
func (l *DBLogger) Record(ctx context.Context, accountID *string, action Action, detail string) error {
	query := `
		INSERT INTO audit_logs (account_id, action, detail, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	ip := clientIPFromContext(ctx)
	_, err := l.db.ExecContext(ctx, query, accountID, action, detail, ip, entryTimestamp())
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// Search queries audit entries based on filters
func (l *DBLogger) Search(ctx context.Context, filter SearchFilter) ([]*Entry, error) {
	query := `
		SELECT id, account_id, action, detail, ip_address, created_at
		FROM audit_logs
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	if filter.StartTime != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filter.StartTime)
		argCount++
	}

	if filter.EndTime != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, *filter.EndTime)
		argCount++
	}

	if filter.AccountID != nil {
		query += fmt.Sprintf(" AND account_id = $%d", argCount)
		args = append(args, *filter.AccountID)
		argCount++
	}

	if len(filter.Actions) > 0 {
		query += fmt.Sprintf(" AND action = ANY($%d)", argCount)
		actionStrs := make([]string, len(filter.Actions))
		for i, a := range filter.Actions {
			actionStrs[i] = string(a)
		}
		args = append(args, pq.Array(actionStrs))
		argCount++
	}

	if filter.IPAddress != "" {
		query += fmt.Sprintf(" AND ip_address = $%d", argCount)
		args = append(args, filter.IPAddress)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry := &Entry{}
		var accountID sql.NullString
		var ip sql.NullString

		if err := rows.Scan(&entry.ID, &accountID, &entry.Action, &entry.Detail, &ip, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if accountID.Valid {
			entry.AccountID = &accountID.String
		}
		if ip.Valid {
			entry.IPAddress = ip.String
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit logs: %w", err)
	}

	return entries, nil
}

// Cleanup removes entries older than the retention period
func (l *DBLogger) Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error) {
	if policy.RetentionDays <= 0 {
		policy = DefaultRetentionPolicy()
	}

	query := `
		DELETE FROM audit_logs
		WHERE created_at < NOW() - ($1 || ' days')::INTERVAL
	`
	result, err := l.db.ExecContext(ctx, query, policy.RetentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed audit logs: %w", err)
	}
	return removed, nil
}

// Close closes the database logger. The underlying connection is shared,
// so it is not closed here.
func (l *DBLogger) Close() error {
	return nil
}
