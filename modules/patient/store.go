package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinlog/clinlog/pkg/tenantdb"
)

// Store persists patients through the scoped executor. Every statement
// carries an explicit tenant_id predicate on top of the row-level-security
// policy the executor's session variable activates.
type Store struct {
	db *tenantdb.Executor
}

// NewStore creates a patient store on the scoped executor.
func NewStore(db *tenantdb.Executor) *Store {
	return &Store{db: db}
}

const patientColumns = "id, tenant_id, mrn, full_name, ward, created_at, updated_at"

// Create inserts a patient owned by the ambient tenant. Any tenant id a
// client may have smuggled into the payload never reaches this layer.
func (s *Store) Create(ctx context.Context, params CreateParams) (*Patient, error) {
	var p Patient
	err := s.db.InTenantScope(ctx, func(ctx context.Context, sc tenantdb.Scope) error {
		return sc.Tx.QueryRow(ctx,
			"INSERT INTO patients (tenant_id, mrn, full_name, ward) VALUES ($1, $2, $3, $4) RETURNING "+patientColumns,
			sc.TenantID, params.MRN, params.FullName, params.Ward,
		).Scan(&p.ID, &p.TenantID, &p.MRN, &p.FullName, &p.Ward, &p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns the patient with the given id within the current tenant scope.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := s.db.InTenantScope(ctx, func(ctx context.Context, sc tenantdb.Scope) error {
		err := sc.Tx.QueryRow(ctx,
			"SELECT "+patientColumns+" FROM patients WHERE id = $1 AND tenant_id = $2",
			id, sc.TenantID,
		).Scan(&p.ID, &p.TenantID, &p.MRN, &p.FullName, &p.Ward, &p.CreatedAt, &p.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return tenantdb.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all patients of the current tenant, newest first.
func (s *Store) List(ctx context.Context) ([]Patient, error) {
	var out []Patient
	err := s.db.InTenantScope(ctx, func(ctx context.Context, sc tenantdb.Scope) error {
		rows, err := sc.Tx.Query(ctx,
			"SELECT "+patientColumns+" FROM patients WHERE tenant_id = $1 ORDER BY created_at DESC",
			sc.TenantID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p Patient
			if err := rows.Scan(&p.ID, &p.TenantID, &p.MRN, &p.FullName, &p.Ward, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update mutates a patient's editable fields. A row owned by another tenant
// matches nothing and reports tenantdb.ErrNotFound, indistinguishable from
// an absent id.
func (s *Store) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Patient, error) {
	var p Patient
	err := s.db.InTenantScope(ctx, func(ctx context.Context, sc tenantdb.Scope) error {
		err := sc.Tx.QueryRow(ctx,
			"UPDATE patients SET full_name = $1, ward = $2, updated_at = now() WHERE id = $3 AND tenant_id = $4 RETURNING "+patientColumns,
			params.FullName, params.Ward, id, sc.TenantID,
		).Scan(&p.ID, &p.TenantID, &p.MRN, &p.FullName, &p.Ward, &p.CreatedAt, &p.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return tenantdb.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a patient within the current tenant scope.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.InTenantScope(ctx, func(ctx context.Context, sc tenantdb.Scope) error {
		tag, err := sc.Tx.Exec(ctx,
			"DELETE FROM patients WHERE id = $1 AND tenant_id = $2", id, sc.TenantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return tenantdb.ErrNotFound
		}
		return nil
	})
}
