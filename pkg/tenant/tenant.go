package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is one hospital: an isolated partition of patients, task logs and
// users inside shared infrastructure.
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"` // unique human-readable identifier, e.g. "st-marys"
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Directory is the read side of the tenant registry. Implementations return
// ErrTenantNotFound for unknown identifiers; the Active flag is returned
// as stored so callers decide what inactivity means for them.
type Directory interface {
	// GetByCode retrieves a tenant by its unique code.
	GetByCode(ctx context.Context, code string) (*Tenant, error)

	// GetByID retrieves a tenant by id.
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}
