package authn

import (
	"context"

	"github.com/google/uuid"
)

// Role is the coarse access level of a user. Roles are stored in the user
// directory and re-read on every request; they are never embedded in tokens.
type Role string

const (
	// RoleClinician is the default role: full access within the home hospital.
	RoleClinician Role = "clinician"
	// RoleAdmin manages users and settings of a single hospital.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin is the platform operator role and may act across hospitals.
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleClinician, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// CanOverrideTenant reports whether the role may act on a hospital other than
// its home one when an explicit tenant signal is supplied with the request.
func (r Role) CanOverrideTenant() bool {
	return r == RoleSuperAdmin
}

// Principal is the resolved identity for one request. It is immutable once
// resolved and lives exactly as long as the request that produced it.
type Principal struct {
	UserID       uuid.UUID
	Role         Role
	HomeTenantID *uuid.UUID // nil for principals without a home hospital
}

// User is the directory record backing a principal.
type User struct {
	ID           uuid.UUID
	Role         Role
	HomeTenantID *uuid.UUID
	Active       bool
}

// UserDirectory resolves a subject id into the current directory record.
// Implementations return ErrUserNotFound for unknown subjects.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// TenantDirectory is the subset of the tenant registry the authenticator
// needs to reject principals whose home hospital has been deactivated.
type TenantDirectory interface {
	IsActive(ctx context.Context, id uuid.UUID) (bool, error)
}
