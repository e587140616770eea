// Package authn resolves bearer credentials into verified principals.
//
// A credential is a signed HS256 token (github.com/golang-jwt/jwt/v5)
// carrying nothing but a subject id and temporal claims. The directory is
// the source of truth for role, home tenant and account status: both are
// re-read on every request, so deactivating a user or hospital takes effect
// immediately without token revocation machinery.
//
// The package exposes three layers:
//
//   - Authenticator: verify(token) + directory lookup -> Principal
//   - context helpers: WithPrincipal / PrincipalFromContext
//   - Middleware: HTTP wiring that rejects unauthenticated requests before
//     they reach any handler
//
// Authentication says who the caller is, nothing more. Which hospital the
// request may touch is decided afterwards by the tenant package.
package authn
