package models

import (
	"encoding/json"
	"time"
)

// Audited actions.
const (
	AuditActionMatriculate      = "MATRICULATE"
	AuditActionEnrollmentStatus = "ENROLLMENT_STATUS"
	AuditActionStudentRegister  = "STUDENT_REGISTER"
	AuditActionAccessCodeReset  = "ACCESS_CODE_RESET"
	AuditActionUserCreate       = "USER_CREATE"
	AuditActionUserUpdate       = "USER_UPDATE"
	AuditActionDelete           = "DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID            string          `db:"id" json:"id"`
	PrincipalID   *string         `db:"principal_id" json:"principalId,omitempty"`
	PrincipalKind string          `db:"principal_kind" json:"principalKind"`
	Action        string          `db:"action" json:"action"`
	Resource      string          `db:"resource" json:"resource"`
	ResourceID    *string         `db:"resource_id" json:"resourceId,omitempty"`
	Path          string          `db:"path" json:"path"`
	Status        int             `db:"status" json:"status"`
	Details       json.RawMessage `db:"details" json:"details,omitempty"`
	IPAddress     string          `db:"ip_address" json:"ip"`
	UserAgent     string          `db:"user_agent" json:"userAgent"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}
