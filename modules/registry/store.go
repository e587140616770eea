// Package registry is the Postgres-backed read side of the tenant registry.
// Hospitals are created and maintained by operational tooling outside this
// service; the API only ever looks them up.
package registry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinlog/clinlog/pkg/pg"
	"github.com/clinlog/clinlog/pkg/tenant"
)

// Store implements tenant.Directory and the authenticator's tenant-status
// check. The tenants table carries no row-level security: it is the registry
// the isolation mechanism itself is rooted in, and its rows hold no
// tenant-owned data.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a registry store on the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const tenantColumns = "id, code, display_name, active, created_at"

// GetByCode retrieves a tenant by its unique code.
func (s *Store) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	return s.get(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE code = $1", code)
}

// GetByID retrieves a tenant by id.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.get(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id)
}

// IsActive reports whether the tenant exists and is active, for the
// authenticator's home-tenant check.
func (s *Store) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return false, nil
		}
		return false, err
	}
	return t.Active, nil
}

func (s *Store) get(ctx context.Context, query string, arg any) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&t.ID, &t.Code, &t.DisplayName, &t.Active, &t.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}
