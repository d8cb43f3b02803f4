// Package audit records an append-only trail of security-relevant actions.
package audit

import (
	"context"
	"time"

	"github.com/Robertorri/HopVerk1/pkg/contextkeys"
	"github.com/Robertorri/HopVerk1/pkg/observability"
)

// Logger is the interface for audit logging
type Logger interface {
	// Record appends one immutable entry. accountID may be nil for
	// anonymous failures (e.g. login attempts for unknown usernames).
	Record(ctx context.Context, accountID *string, action Action, detail string) error

	// Search queries the audit trail
	Search(ctx context.Context, filter SearchFilter) ([]*Entry, error)

	// Cleanup removes entries older than the retention period and
	// returns the number removed.
	Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error)

	// Close closes the logger and flushes any buffered entries
	Close() error
}

// Recorder wraps a Logger with the best-effort policy: a failed audit write
// is logged as a warning and never fails the operation it accompanies.
type Recorder struct {
	logger Logger
	log    *observability.Logger
}

// NewRecorder creates a best-effort audit recorder
func NewRecorder(logger Logger, log *observability.Logger) *Recorder {
	return &Recorder{logger: logger, log: log}
}

// Record appends an entry, swallowing write failures with a warning
func (r *Recorder) Record(ctx context.Context, accountID *string, action Action, detail string) {
	if r == nil || r.logger == nil {
		return
	}
	if err := r.logger.Record(ctx, accountID, action, detail); err != nil && r.log != nil {
		r.log.WithError(err).WithField("action", string(action)).Warn("audit write failed")
	}
}

// NopLogger is a Logger that discards everything, for tests and for
// running without a database-backed trail.
type NopLogger struct{}

func (NopLogger) Record(ctx context.Context, accountID *string, action Action, detail string) error {
	return nil
}

func (NopLogger) Search(ctx context.Context, filter SearchFilter) ([]*Entry, error) {
	return nil, nil
}

func (NopLogger) Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error) {
	return 0, nil
}

func (NopLogger) Close() error { return nil }

// entryTimestamp returns the timestamp to record for a new entry
func entryTimestamp() time.Time {
	return time.Now().UTC()
}

// clientIPFromContext returns the caller IP attached by the rate-limit
// middleware, or "" when the entry is not tied to a request.
func clientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(contextkeys.ClientIPKey).(string); ok {
		return ip
	}
	return ""
}
