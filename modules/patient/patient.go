// Package patient manages patient records. Every record is owned by exactly
// one tenant, assigned from the ambient scope at creation and immutable
// afterwards; there is no cross-tenant transfer operation.
package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is one patient record within a hospital.
type Patient struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	MRN       string    `json:"mrn"` // medical record number, unique per tenant
	FullName  string    `json:"full_name"`
	Ward      string    `json:"ward"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateParams are the caller-supplied fields for a new patient. There is
// deliberately no tenant field: ownership always comes from the ambient
// scope, so a client payload cannot write into another hospital's partition.
type CreateParams struct {
	MRN      string `json:"mrn"`
	FullName string `json:"full_name"`
	Ward     string `json:"ward"`
}

// UpdateParams are the mutable fields of a patient.
type UpdateParams struct {
	FullName string `json:"full_name"`
	Ward     string `json:"ward"`
}
