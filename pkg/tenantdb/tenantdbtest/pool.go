// Package tenantdbtest provides a recording fake of the tenantdb pool for
// tests that assert on the statements the scoped executor issues without a
// running database.
package tenantdbtest

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Call is one recorded statement with its arguments.
type Call struct {
	SQL  string
	Args []any
}

// Pool is a fake tenantdb.Pool. Statement behavior is configured through the
// On* hooks; by default Exec affects one row and row queries report no rows.
// All fields must be set before first use; the recorded state is guarded for
// concurrent transactions.
type Pool struct {
	mu sync.Mutex

	// BeginErrs is consumed one per Begin call; a nil entry means success.
	BeginErrs []error

	// OnExec, OnQueryRow and OnQuery override statement behavior. The hooks
	// receive every statement including the executor's set_config binding.
	OnExec     func(sql string, args []any) (int64, error)
	OnQueryRow func(sql string, args []any) func(dest ...any) error
	OnQuery    func(sql string, args []any) (pgx.Rows, error)

	calls      []Call
	began      int
	committed  int
	rolledBack int
}

// Begin starts a fake transaction.
func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.began++
	if n := p.began - 1; n < len(p.BeginErrs) && p.BeginErrs[n] != nil {
		return nil, p.BeginErrs[n]
	}
	return &Tx{pool: p}, nil
}

// Calls returns a copy of every recorded statement in order.
func (p *Pool) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// BeginCount reports how many transactions were started.
func (p *Pool) BeginCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.began
}

// Committed reports how many transactions were committed.
func (p *Pool) Committed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.committed
}

// RolledBack reports how many transactions were rolled back before commit.
func (p *Pool) RolledBack() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rolledBack
}

func (p *Pool) record(sql string, args []any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{SQL: sql, Args: args})
}

// Tx is the fake transaction handed out by Pool. Methods the executor and
// stores do not use are inherited from the embedded nil interface and panic
// if reached.
type Tx struct {
	pgx.Tx

	pool *Pool
	done bool
}

func (t *Tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.pool.record(sql, args)
	affected := int64(1)
	if t.pool.OnExec != nil {
		var err error
		affected, err = t.pool.OnExec(sql, args)
		if err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	if affected == 1 {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.NewCommandTag("UPDATE 0"), nil
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	t.pool.record(sql, args)
	if t.pool.OnQueryRow != nil {
		if scan := t.pool.OnQueryRow(sql, args); scan != nil {
			return rowFunc(scan)
		}
	}
	return rowFunc(func(dest ...any) error { return pgx.ErrNoRows })
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	t.pool.record(sql, args)
	if t.pool.OnQuery != nil {
		return t.pool.OnQuery(sql, args)
	}
	return &Rows{}, nil
}

func (t *Tx) Commit(ctx context.Context) error {
	t.pool.mu.Lock()
	defer t.pool.mu.Unlock()
	if !t.done {
		t.done = true
		t.pool.committed++
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	t.pool.mu.Lock()
	defer t.pool.mu.Unlock()
	if !t.done {
		t.done = true
		t.pool.rolledBack++
	}
	return nil
}

// rowFunc adapts a scan function to pgx.Row.
type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// Rows is a fake pgx.Rows fed by a queue of scan functions, one per row.
type Rows struct {
	pgx.Rows

	ScanFuncs []func(dest ...any) error
	ErrValue  error

	pos int
}

func (r *Rows) Next() bool {
	if r.pos >= len(r.ScanFuncs) {
		return false
	}
	r.pos++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	return r.ScanFuncs[r.pos-1](dest...)
}

func (r *Rows) Err() error { return r.ErrValue }

func (r *Rows) Close() {}
