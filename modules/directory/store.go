// Package directory is the user directory: the source of truth for who a
// subject is right now (role, home hospital, account status) and the login
// flow that issues credentials. There is intentionally no self-service
// registration endpoint; accounts are provisioned by administrative tooling,
// so an unauthenticated caller can never pick or default a tenant.
package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinlog/clinlog/pkg/authn"
	"github.com/clinlog/clinlog/pkg/pg"
)

// Store implements authn.UserDirectory on Postgres. User rows are not
// tenant-owned: they anchor tenant membership rather than live inside it, so
// lookups run directly on the pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a user directory store on the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetUser resolves a subject id to its current directory record.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*authn.User, error) {
	var u authn.User
	err := s.pool.QueryRow(ctx,
		"SELECT id, role, home_tenant_id, active FROM users WHERE id = $1", id).
		Scan(&u.ID, &u.Role, &u.HomeTenantID, &u.Active)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, authn.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// credentials is the login-time projection of a user row.
type credentials struct {
	ID           uuid.UUID
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

func (s *Store) credentialsByEmail(ctx context.Context, email string) (*credentials, error) {
	var c credentials
	err := s.pool.QueryRow(ctx,
		"SELECT id, password_hash, active, created_at FROM users WHERE email = $1", email).
		Scan(&c.ID, &c.PasswordHash, &c.Active, &c.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, authn.ErrUserNotFound
		}
		return nil, err
	}
	return &c, nil
}
