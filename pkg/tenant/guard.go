package tenant

import (
	"github.com/google/uuid"

	"github.com/clinlog/clinlog/pkg/authn"
)

// Authorize decides whether the principal may operate within the target
// tenant. It is the sole gate between tenant resolution and context binding:
// super admins may act in any tenant, everyone else only in their home one.
//
// Deterministic and side-effect free; a nil return means allowed.
func Authorize(p *authn.Principal, target uuid.UUID) error {
	if p == nil {
		return ErrNoPrincipal
	}
	if p.Role == authn.RoleSuperAdmin {
		return nil
	}
	if p.HomeTenantID != nil && *p.HomeTenantID == target {
		return nil
	}
	return ErrCrossTenantDenied
}
