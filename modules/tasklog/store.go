package tasklog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinlog/clinlog/pkg/tenantdb"
)

// Store persists task-log entries through the scoped executor.
type Store struct {
	db  *tenantdb.Executor
	log *slog.Logger
}

// NewStore creates a task-log store on the scoped executor.
func NewStore(db *tenantdb.Executor, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, log: log}
}

const entryColumns = "id, tenant_id, patient_id, kind, note, recorded_by, recorded_at"

// Create inserts an entry under the given patient. The entry's tenant is
// derived from the parent patient row, not taken from the ambient scope
// directly; the two must agree before the insert is accepted. A patient
// outside the current scope is reported as not found.
func (s *Store) Create(ctx context.Context, patientID, recordedBy uuid.UUID, params CreateParams) (*Entry, error) {
	var e Entry
	err := s.db.InTenantScope(ctx, func(ctx context.Context, sc tenantdb.Scope) error {
		var parentTenant uuid.UUID
		err := sc.Tx.QueryRow(ctx,
			"SELECT tenant_id FROM patients WHERE id = $1 AND tenant_id = $2",
			patientID, sc.TenantID,
		).Scan(&parentTenant)
		if errors.Is(err, pgx.ErrNoRows) {
			return tenantdb.ErrNotFound
		}
		if err != nil {
			return err
		}

		// The predicate above makes a mismatch unreachable; if it happens
		// anyway something rewrote ownership mid-flight, and the write must
		// not proceed.
		if parentTenant != sc.TenantID {
			s.log.ErrorContext(ctx, "parent patient tenant does not match ambient scope",
				slog.String("patient_id", patientID.String()),
				slog.String("ambient_tenant_id", sc.TenantID.String()))
			return tenantdb.ErrNotFound
		}

		return sc.Tx.QueryRow(ctx,
			"INSERT INTO task_logs (tenant_id, patient_id, kind, note, recorded_by) VALUES ($1, $2, $3, $4, $5) RETURNING "+entryColumns,
			parentTenant, patientID, params.Kind, params.Note, recordedBy,
		).Scan(&e.ID, &e.TenantID, &e.PatientID, &e.Kind, &e.Note, &e.RecordedBy, &e.RecordedAt)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByPatient returns all entries of a patient within the current scope,
// newest first. An unknown or foreign patient reports not found rather than
// an empty list.
func (s *Store) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Entry, error) {
	var out []Entry
	err := s.db.InTenantScope(ctx, func(ctx context.Context, sc tenantdb.Scope) error {
		var exists bool
		err := sc.Tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1 AND tenant_id = $2)",
			patientID, sc.TenantID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return tenantdb.ErrNotFound
		}

		rows, err := sc.Tx.Query(ctx,
			"SELECT "+entryColumns+" FROM task_logs WHERE patient_id = $1 AND tenant_id = $2 ORDER BY recorded_at DESC",
			patientID, sc.TenantID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e Entry
			if err := rows.Scan(&e.ID, &e.TenantID, &e.PatientID, &e.Kind, &e.Note, &e.RecordedBy, &e.RecordedAt); err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one entry of the given patient within the current tenant
// scope. An entry of another patient, even a same-tenant one, reports not
// found: entries are only addressable through their parent.
func (s *Store) Get(ctx context.Context, patientID, id uuid.UUID) (*Entry, error) {
	var e Entry
	err := s.db.InTenantScope(ctx, func(ctx context.Context, sc tenantdb.Scope) error {
		err := sc.Tx.QueryRow(ctx,
			"SELECT "+entryColumns+" FROM task_logs WHERE id = $1 AND patient_id = $2 AND tenant_id = $3",
			id, patientID, sc.TenantID,
		).Scan(&e.ID, &e.TenantID, &e.PatientID, &e.Kind, &e.Note, &e.RecordedBy, &e.RecordedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return tenantdb.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes an entry of the given patient within the current tenant
// scope. Entries of other tenants or other patients match nothing and report
// not found.
func (s *Store) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	return s.db.InTenantScope(ctx, func(ctx context.Context, sc tenantdb.Scope) error {
		tag, err := sc.Tx.Exec(ctx,
			"DELETE FROM task_logs WHERE id = $1 AND patient_id = $2 AND tenant_id = $3",
			id, patientID, sc.TenantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return tenantdb.ErrNotFound
		}
		return nil
	})
}
