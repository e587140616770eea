package tenantdb

import "errors"

var (
	// ErrUnavailable is returned when the storage layer cannot be reached
	// within the bounded retry budget. It is the only retryable failure in
	// the taxonomy; nothing else is retried automatically.
	ErrUnavailable = errors.New("tenantdb: storage unavailable")

	// ErrNotFound is returned when a row does not exist within the current
	// tenant scope. A row owned by a different tenant reports the same
	// error: foreign-tenant data must be indistinguishable from absent data.
	ErrNotFound = errors.New("tenantdb: not found")
)
