package tenant

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinlog/clinlog/pkg/authn"
)

// Signals are the explicit tenant identifiers a request may carry alongside
// the principal's own membership.
type Signals struct {
	HeaderCode string // tenant code from a request header
	PathCode   string // tenant code from a URL path segment
}

// SignalsFromRequest extracts tenant signals from an HTTP request: the named
// header and the named chi route parameter.
func SignalsFromRequest(r *http.Request, headerName, pathParam string) Signals {
	return Signals{
		HeaderCode: r.Header.Get(headerName),
		PathCode:   chi.URLParam(r, pathParam),
	}
}

// Resolver determines the target tenant for a request from the principal and
// the request's explicit signals.
type Resolver struct {
	dir Directory
}

// NewResolver creates a resolver backed by the given directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve picks the target tenant id. The precedence is deliberate:
//
//  1. The principal's home tenant is the default and safest signal. An
//     explicit override signal is honored only for roles permitted to
//     operate across tenants; for everyone else it is ignored, not an error,
//     so a stray header cannot redirect a clinician's request.
//  2. Without a home tenant, a header-supplied code is resolved through the
//     directory.
//  3. Then a path-supplied code.
//  4. With no signal at all, resolution fails with ErrTenantRequired.
//
// Directory misses and inactive tenants both surface as ErrTenantUnknown.
func (r *Resolver) Resolve(ctx context.Context, p *authn.Principal, signals Signals) (uuid.UUID, error) {
	if p == nil {
		return uuid.Nil, ErrNoPrincipal
	}

	if p.HomeTenantID != nil {
		if code := signals.first(); code != "" && p.Role.CanOverrideTenant() {
			return r.lookup(ctx, code)
		}
		return *p.HomeTenantID, nil
	}

	if signals.HeaderCode != "" {
		return r.lookup(ctx, signals.HeaderCode)
	}
	if signals.PathCode != "" {
		return r.lookup(ctx, signals.PathCode)
	}

	return uuid.Nil, ErrTenantRequired
}

// first returns the highest-precedence explicit signal.
func (s Signals) first() string {
	if s.HeaderCode != "" {
		return s.HeaderCode
	}
	return s.PathCode
}

func (r *Resolver) lookup(ctx context.Context, code string) (uuid.UUID, error) {
	t, err := r.dir.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return uuid.Nil, errors.Join(ErrTenantUnknown, err)
		}
		return uuid.Nil, err
	}
	if !t.Active {
		return uuid.Nil, ErrTenantUnknown
	}
	return t.ID, nil
}
