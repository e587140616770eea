package tenant

import "errors"

var (
	// ErrTenantNotFound is returned by Directory implementations when no
	// tenant matches the identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantRequired is returned when a request carries no resolvable
	// tenant signal: no home tenant and no header or path code.
	ErrTenantRequired = errors.New("tenant context required")

	// ErrTenantUnknown is returned when a supplied tenant code does not
	// resolve or resolves to an inactive tenant. The two cases are
	// indistinguishable on purpose: an inactive tenant must never be
	// selectable.
	ErrTenantUnknown = errors.New("unknown tenant")

	// ErrCrossTenantDenied is returned when a principal tries to act in a
	// tenant it is not a member of.
	ErrCrossTenantDenied = errors.New("cross-tenant access denied")

	// ErrNoTenantContext is returned when a data operation runs outside a
	// bound tenant scope. This is a wiring defect in handler code, not a
	// client error; it must fail safe rather than execute unscoped.
	ErrNoTenantContext = errors.New("no tenant in context")

	// ErrNoPrincipal is returned by the middleware when it runs before
	// authentication, which is a route-setup defect.
	ErrNoPrincipal = errors.New("no principal in context")
)
