// Package tenantdb is the only storage path for tenant-owned data. It wraps
// a pgx connection pool so that every read and write runs inside a
// transaction bound to the ambient tenant from the request context.
//
// Isolation is enforced twice, independently:
//
//   - application layer: scoped callbacks receive the tenant id and put an
//     explicit tenant_id predicate in every statement; creates take their
//     tenant_id from the scope, never from client payloads;
//   - database layer: the first statement of every transaction sets the
//     transaction-local session variable app.current_tenant, which the
//     row-level-security policies in the schema filter on. A missed
//     application-level predicate therefore narrows nothing.
//
// Because set_config(..., true) is transaction-local, the setting resets
// before the connection returns to the pool; a connection reused by another
// request carries no stale tenant state.
//
// Operations without an ambient tenant fail with tenant.ErrNoTenantContext
// before touching the pool. Transient connection failures are retried a
// bounded number of times during transaction setup only and then surface as
// ErrUnavailable.
package tenantdb
