package authn

import "errors"

var (
	// ErrUnauthenticated covers every credential failure: missing, malformed,
	// bad signature, expired, unknown subject, disabled subject or a home
	// tenant that is no longer active. Callers get one opaque failure mode.
	ErrUnauthenticated = errors.New("authn: unauthenticated")

	// ErrUserNotFound is returned by UserDirectory implementations when the
	// subject id does not resolve to a user.
	ErrUserNotFound = errors.New("authn: user not found")

	// ErrMissingSigningKey is returned when the authenticator is constructed
	// without a signing key.
	ErrMissingSigningKey = errors.New("authn: missing signing key")
)
