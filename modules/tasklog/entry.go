// Package tasklog manages clinical task-log entries. An entry always belongs
// to the same tenant as its parent patient: the owner is derived from the
// patient row at creation time, verified against the ambient scope, and
// never settable by a client.
package tasklog

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one logged clinical task for a patient.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	PatientID  uuid.UUID `json:"patient_id"`
	Kind       string    `json:"kind"` // e.g. "medication", "observation", "transfer"
	Note       string    `json:"note"`
	RecordedBy uuid.UUID `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

// CreateParams are the caller-supplied fields for a new entry. Tenant and
// patient ownership come from the URL and the ambient scope, not the body.
type CreateParams struct {
	Kind string `json:"kind"`
	Note string `json:"note"`
}
