package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of change recorded in a session's activity log.
type AuditAction string

const (
	ActionSessionOpen    AuditAction = "session_open"
	ActionImport         AuditAction = "import"
	ActionImportAccept   AuditAction = "import_accept"
	ActionManualAdd      AuditAction = "manual_add"
	ActionEntryRemove    AuditAction = "entry_remove"
	ActionSubmit         AuditAction = "submit"
	ActionSubmitRollback AuditAction = "submit_rollback"
)

// AuditSeverity ranks audit entries for review.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEntry is one activity log line.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	SessionID    string        `json:"sessionId"`
	TxNo         string        `json:"txNo"`
	User         string        `json:"user,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	ImportID     string        `json:"importId,omitempty"`
	RowsAffected int           `json:"rowsAffected,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// maxAuditEntries caps the per-session log; the oldest entries go first.
const maxAuditEntries = 500

func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionSubmit, ActionSubmitRollback, ActionEntryRemove:
		return SeverityHigh
	case ActionSessionOpen:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// newAuditEntry fills request metadata from ctx.
func newAuditEntry(ctx context.Context, now time.Time, s *session, action AuditAction) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Severity:  determineSeverity(action),
		SessionID: s.id,
		TxNo:      s.txNo,
		User:      s.user,
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		CreatedAt: now,
	}
}

// record appends e to the session log. Caller holds s.mu.
func (s *session) record(e AuditEntry) {
	s.audit = append(s.audit, e)
	if over := len(s.audit) - maxAuditEntries; over > 0 {
		s.audit = append(s.audit[:0:0], s.audit[over:]...)
	}
}
