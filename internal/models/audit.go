package models

import "time"

// AuditAction constants represent actions recorded on the audit trail.
const (
	AuditActionAssign       = "LESSON_ASSIGN"
	AuditActionRemove       = "RELATIONSHIP_REMOVE"
	AuditActionLessonCreate = "LESSON_CREATE"
	AuditActionSeriesCreate = "LESSON_SERIES_CREATE"
	AuditActionLessonCancel = "LESSON_CANCEL"
	AuditActionBlockCreate  = "BLOCK_CREATE"
	AuditActionBlockUpdate  = "BLOCK_UPDATE"
	AuditActionBlockRelease = "BLOCK_RELEASE"
	AuditActionDeactivate   = "CASCADE_DEACTIVATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Actor      *string   `db:"actor" json:"actor,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Detail     []byte    `db:"detail" json:"detail,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
