package audit

import "time"

// Action represents the category of a security-relevant event
type Action string

const (
	ActionRegister         Action = "REGISTER"
	ActionLoginSuccess     Action = "LOGIN_SUCCESS"
	ActionLoginFailure     Action = "LOGIN_FAILURE"
	ActionLockoutTriggered Action = "LOCKOUT_TRIGGERED"
	ActionUploadImage      Action = "UPLOAD_IMAGE"
	ActionRateImage        Action = "RATE_IMAGE"
)

// Entry represents a single audit log record. Entries are append-only;
// nothing in this subsystem mutates or deletes them.
type Entry struct {
	ID        int64     `json:"id"`
	AccountID *string   `json:"account_id,omitempty"` // nil for anonymous failures
	Action    Action    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchFilter represents filters for querying the audit trail
type SearchFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	AccountID *string
	Actions   []Action
	IPAddress string
	Limit     int
	Offset    int
}

// RetentionPolicy defines how long audit entries are kept
type RetentionPolicy struct {
	RetentionDays int
}

// DefaultRetentionPolicy returns a 90-day retention policy
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{RetentionDays: 90}
}
