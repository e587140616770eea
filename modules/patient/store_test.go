package patient_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinlog/clinlog/modules/patient"
	"github.com/clinlog/clinlog/pkg/tenant"
	"github.com/clinlog/clinlog/pkg/tenantdb"
	"github.com/clinlog/clinlog/pkg/tenantdb/tenantdbtest"
)

func newStore(pool *tenantdbtest.Pool) *patient.Store {
	return patient.NewStore(tenantdb.New(pool))
}

func scopedCtx(id uuid.UUID) context.Context {
	return tenant.WithCurrent(context.Background(), id)
}

// lastDataCall returns the last recorded statement that is not the executor's
// session binding.
func lastDataCall(t *testing.T, pool *tenantdbtest.Pool) tenantdbtest.Call {
	t.Helper()
	calls := pool.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if !strings.Contains(calls[i].SQL, "set_config") {
			return calls[i]
		}
	}
	t.Fatal("no data statement recorded")
	return tenantdbtest.Call{}
}

func TestStore_Create(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	rowID := uuid.New()
	now := time.Now()

	pool := &tenantdbtest.Pool{
		OnQueryRow: func(sql string, args []any) func(dest ...any) error {
			if !strings.HasPrefix(sql, "INSERT INTO patients") {
				return nil
			}
			return func(dest ...any) error {
				*dest[0].(*uuid.UUID) = rowID
				*dest[1].(*uuid.UUID) = args[0].(uuid.UUID)
				*dest[2].(*string) = args[1].(string)
				*dest[3].(*string) = args[2].(string)
				*dest[4].(*string) = args[3].(string)
				*dest[5].(*time.Time) = now
				*dest[6].(*time.Time) = now
				return nil
			}
		},
	}
	s := newStore(pool)

	got, err := s.Create(scopedCtx(tenantID), patient.CreateParams{
		MRN:      "MRN-0042",
		FullName: "Ada Lovelace",
		Ward:     "cardiology",
	})
	require.NoError(t, err)

	// Ownership comes from the ambient scope; the insert's first argument is
	// always the ambient tenant id.
	insert := lastDataCall(t, pool)
	require.NotEmpty(t, insert.Args)
	assert.Equal(t, tenantID, insert.Args[0])

	assert.Equal(t, rowID, got.ID)
	assert.Equal(t, tenantID, got.TenantID)
	assert.Equal(t, "MRN-0042", got.MRN)
	assert.Equal(t, 1, pool.Committed())
}

func TestStore_Get(t *testing.T) {
	t.Parallel()

	t.Run("found within scope", func(t *testing.T) {
		t.Parallel()

		tenantID := uuid.New()
		patientID := uuid.New()
		now := time.Now()

		pool := &tenantdbtest.Pool{
			OnQueryRow: func(sql string, args []any) func(dest ...any) error {
				if !strings.HasPrefix(sql, "SELECT") {
					return nil
				}
				return func(dest ...any) error {
					*dest[0].(*uuid.UUID) = patientID
					*dest[1].(*uuid.UUID) = tenantID
					*dest[2].(*string) = "MRN-0042"
					*dest[3].(*string) = "Ada Lovelace"
					*dest[4].(*string) = "cardiology"
					*dest[5].(*time.Time) = now
					*dest[6].(*time.Time) = now
					return nil
				}
			},
		}
		s := newStore(pool)

		got, err := s.Get(scopedCtx(tenantID), patientID)
		require.NoError(t, err)
		assert.Equal(t, patientID, got.ID)

		// The lookup is always constrained to the ambient tenant.
		sel := lastDataCall(t, pool)
		assert.Contains(t, sel.SQL, "tenant_id = $2")
		require.Len(t, sel.Args, 2)
		assert.Equal(t, patientID, sel.Args[0])
		assert.Equal(t, tenantID, sel.Args[1])
	})

	t.Run("row of another tenant reads as absent", func(t *testing.T) {
		t.Parallel()

		// The fake reports no rows, which is exactly what the tenant predicate
		// produces for a foreign row.
		s := newStore(&tenantdbtest.Pool{})

		_, err := s.Get(scopedCtx(uuid.New()), uuid.New())
		require.ErrorIs(t, err, tenantdb.ErrNotFound)
	})

	t.Run("requires tenant scope", func(t *testing.T) {
		t.Parallel()

		pool := &tenantdbtest.Pool{}
		s := newStore(pool)

		_, err := s.Get(context.Background(), uuid.New())
		require.ErrorIs(t, err, tenant.ErrNoTenantContext)
		assert.Zero(t, pool.BeginCount())
	})
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	now := time.Now()

	row := func(id uuid.UUID, mrn string) func(dest ...any) error {
		return func(dest ...any) error {
			*dest[0].(*uuid.UUID) = id
			*dest[1].(*uuid.UUID) = tenantID
			*dest[2].(*string) = mrn
			*dest[3].(*string) = "name"
			*dest[4].(*string) = "ward"
			*dest[5].(*time.Time) = now
			*dest[6].(*time.Time) = now
			return nil
		}
	}

	first, second := uuid.New(), uuid.New()
	pool := &tenantdbtest.Pool{}
	pool.OnQuery = func(sql string, args []any) (pgx.Rows, error) {
		return &tenantdbtest.Rows{ScanFuncs: []func(dest ...any) error{
			row(first, "MRN-0001"),
			row(second, "MRN-0002"),
		}}, nil
	}
	s := newStore(pool)

	got, err := s.List(scopedCtx(tenantID))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].ID)
	assert.Equal(t, second, got[1].ID)

	sel := lastDataCall(t, pool)
	assert.Contains(t, sel.SQL, "WHERE tenant_id = $1")
	require.Len(t, sel.Args, 1)
	assert.Equal(t, tenantID, sel.Args[0])
}

func TestStore_Update(t *testing.T) {
	t.Parallel()

	t.Run("foreign row reads as absent", func(t *testing.T) {
		t.Parallel()

		s := newStore(&tenantdbtest.Pool{})

		_, err := s.Update(scopedCtx(uuid.New()), uuid.New(), patient.UpdateParams{FullName: "x"})
		require.ErrorIs(t, err, tenantdb.ErrNotFound)
	})

	t.Run("update stays tenant constrained", func(t *testing.T) {
		t.Parallel()

		tenantID := uuid.New()
		patientID := uuid.New()
		now := time.Now()

		pool := &tenantdbtest.Pool{
			OnQueryRow: func(sql string, args []any) func(dest ...any) error {
				if !strings.HasPrefix(sql, "UPDATE patients") {
					return nil
				}
				return func(dest ...any) error {
					*dest[0].(*uuid.UUID) = patientID
					*dest[1].(*uuid.UUID) = tenantID
					*dest[2].(*string) = "MRN-0042"
					*dest[3].(*string) = args[0].(string)
					*dest[4].(*string) = args[1].(string)
					*dest[5].(*time.Time) = now
					*dest[6].(*time.Time) = now
					return nil
				}
			},
		}
		s := newStore(pool)

		got, err := s.Update(scopedCtx(tenantID), patientID, patient.UpdateParams{FullName: "Grace Hopper", Ward: "icu"})
		require.NoError(t, err)
		assert.Equal(t, "Grace Hopper", got.FullName)

		upd := lastDataCall(t, pool)
		assert.Contains(t, upd.SQL, "tenant_id = $4")
		require.Len(t, upd.Args, 4)
		assert.Equal(t, tenantID, upd.Args[3])
	})
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deletes within scope", func(t *testing.T) {
		t.Parallel()

		tenantID := uuid.New()
		pool := &tenantdbtest.Pool{}
		s := newStore(pool)

		require.NoError(t, s.Delete(scopedCtx(tenantID), uuid.New()))

		del := lastDataCall(t, pool)
		assert.Contains(t, del.SQL, "DELETE FROM patients")
		require.Len(t, del.Args, 2)
		assert.Equal(t, tenantID, del.Args[1])
		assert.Equal(t, 1, pool.Committed())
	})

	t.Run("zero affected rows reads as absent", func(t *testing.T) {
		t.Parallel()

		pool := &tenantdbtest.Pool{
			OnExec: func(sql string, args []any) (int64, error) {
				if strings.HasPrefix(sql, "DELETE") {
					return 0, nil
				}
				return 1, nil
			},
		}
		s := newStore(pool)

		err := s.Delete(scopedCtx(uuid.New()), uuid.New())
		require.ErrorIs(t, err, tenantdb.ErrNotFound)
	})
}
