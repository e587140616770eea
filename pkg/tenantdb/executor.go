package tenantdb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinlog/clinlog/pkg/tenant"
)

// Pool is the transaction-starting subset of *pgxpool.Pool the executor
// depends on. Narrowing the dependency keeps the executor testable without a
// running database.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Scope is handed to scoped callbacks: the transaction to query through and
// the tenant id every statement is bound to. Storage code uses TenantID for
// explicit predicates and forced foreign keys; the session variable set on
// the transaction enforces the same boundary a second time inside the
// database.
type Scope struct {
	TenantID uuid.UUID
	Tx       pgx.Tx
}

// Executor runs storage operations inside a tenant scope. Every operation:
//
//   - requires an ambient tenant (tenant.CurrentID); absence aborts before
//     the pool is touched,
//   - runs in its own transaction on a freshly begun connection,
//   - binds the row-level-security session variable app.current_tenant as
//     the first statement, transaction-locally, so the setting can never
//     survive into another borrower of the pooled connection.
type Executor struct {
	pool          Pool
	log           *slog.Logger
	retryAttempts int
	retryInterval time.Duration
}

// Option configures the executor.
type Option func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRetry bounds the retries for transient transaction-start failures.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(e *Executor) {
		if attempts > 0 {
			e.retryAttempts = attempts
		}
		if interval > 0 {
			e.retryInterval = interval
		}
	}
}

// New creates an Executor on top of the given pool.
func New(pool Pool, opts ...Option) *Executor {
	e := &Executor{
		pool:          pool,
		log:           slog.New(slog.DiscardHandler),
		retryAttempts: 3,
		retryInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InTenantScope runs fn inside a transaction bound to the ambient tenant.
// The callback's error is returned as-is and rolls the transaction back; a
// nil return commits.
//
// A missing tenant context is a wiring defect in handler code: it is logged
// at error level and fails safe with tenant.ErrNoTenantContext, never by
// executing unscoped.
func (e *Executor) InTenantScope(ctx context.Context, fn func(ctx context.Context, s Scope) error) error {
	tenantID, err := tenant.CurrentID(ctx)
	if err != nil {
		e.log.ErrorContext(ctx, "data operation attempted outside tenant scope", slog.Any("error", err))
		return err
	}

	tx, err := e.begin(ctx, tenantID)
	if err != nil {
		return err
	}

	defer func() {
		// Rollback after commit is a no-op; this guarantees release on every
		// exit path including panics and cancellation.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, Scope{TenantID: tenantID, Tx: tx}); err != nil {
		// Statement-level connection faults and timeouts are as retryable to
		// the caller as a failed begin; business errors pass through as-is.
		if isTransient(err) {
			return errors.Join(ErrUnavailable, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isTransient(err) {
			return errors.Join(ErrUnavailable, err)
		}
		return err
	}
	return nil
}

// begin starts a transaction and binds the RLS session variable, retrying
// transient failures a bounded number of times with linear backoff. Only
// transaction setup is retried; callbacks are never re-run, so non-idempotent
// writes cannot be duplicated.
func (e *Executor) begin(ctx context.Context, tenantID uuid.UUID) (pgx.Tx, error) {
	var lastErr error
	for attempt := range e.retryAttempts {
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(ErrUnavailable, err)
		}
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * e.retryInterval):
			case <-ctx.Done():
				return nil, errors.Join(ErrUnavailable, ctx.Err())
			}
		}

		tx, err := e.pool.Begin(ctx)
		if err != nil {
			if !isTransient(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		// set_config with is_local=true scopes the setting to this
		// transaction; it resets on commit or rollback before the connection
		// returns to the pool.
		if _, err := tx.Exec(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID.String()); err != nil {
			_ = tx.Rollback(ctx)
			if !isTransient(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		return tx, nil
	}
	return nil, errors.Join(ErrUnavailable, lastErr)
}

// Exec runs a single statement in tenant scope and returns the number of
// affected rows.
func (e *Executor) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	var affected int64
	err := e.InTenantScope(ctx, func(ctx context.Context, s Scope) error {
		tag, err := s.Tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

// QueryRow runs a single-row query in tenant scope; scan receives the row.
// pgx.ErrNoRows is mapped to ErrNotFound.
func (e *Executor) QueryRow(ctx context.Context, scan func(pgx.Row) error, sql string, args ...any) error {
	return e.InTenantScope(ctx, func(ctx context.Context, s Scope) error {
		if err := scan(s.Tx.QueryRow(ctx, sql, args...)); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
}

// Query runs a multi-row query in tenant scope; fn consumes the rows and
// must not retain them past its return.
func (e *Executor) Query(ctx context.Context, fn func(pgx.Rows) error, sql string, args ...any) error {
	return e.InTenantScope(ctx, func(ctx context.Context, s Scope) error {
		rows, err := s.Tx.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		if err := fn(rows); err != nil {
			return err
		}
		return rows.Err()
	})
}

// isTransient classifies failures worth retrying: connection-level faults
// and timeouts. Constraint violations and other server-reported statement
// errors are not transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions; 57P01: admin shutdown.
		return len(pgErr.Code) >= 2 && (pgErr.Code[:2] == "08" || pgErr.Code == "57P01")
	}
	return false
}
