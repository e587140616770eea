package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clinlog/clinlog/pkg/authn"
)

// DefaultHeaderName is the request header carrying an explicit tenant code.
const DefaultHeaderName = "X-Tenant-Code"

// DefaultPathParam is the chi route parameter carrying a tenant code.
const DefaultPathParam = "tenantCode"

// ErrorHandler handles errors that occur during tenant establishment.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// config holds middleware configuration.
type config struct {
	headerName   string
	pathParam    string
	skipPaths    []string
	errorHandler ErrorHandler
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithHeaderName sets the header inspected for an explicit tenant code.
func WithHeaderName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.headerName = name
		}
	}
}

// WithPathParam sets the chi route parameter inspected for a tenant code.
func WithPathParam(param string) Option {
	return func(c *config) {
		if param != "" {
			c.pathParam = param
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant establishment.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) { c.skipPaths = append(c.skipPaths, paths...) }
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithLogger sets the middleware logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware establishes the tenant scope for every request. The stages run
// in a fixed order that is itself a correctness invariant: the principal must
// already be resolved, then the target tenant is resolved from its signals,
// then the access guard runs, and only then is the ambient tenant bound into
// the request context. Handlers downstream can rely on CurrentID succeeding.
func Middleware(resolver *Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		headerName:   DefaultHeaderName,
		pathParam:    DefaultPathParam,
		errorHandler: defaultErrorHandler,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			principal, ok := authn.PrincipalFromContext(r.Context())
			if !ok {
				// Route wired without authentication in front; refuse loudly.
				cfg.logger.ErrorContext(r.Context(), "tenant middleware before authentication",
					slog.String("path", r.URL.Path))
				cfg.errorHandler(w, r, ErrNoPrincipal)
				return
			}

			signals := SignalsFromRequest(r, cfg.headerName, cfg.pathParam)

			tenantID, err := resolver.Resolve(r.Context(), principal, signals)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			if err := Authorize(principal, tenantID); err != nil {
				cfg.logger.WarnContext(r.Context(), "cross-tenant access denied",
					slog.String("user_id", principal.UserID.String()),
					slog.String("target_tenant_id", tenantID.String()))
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCurrent(r.Context(), tenantID)))
		})
	}
}

// RequireTenant ensures a tenant scope is bound, for routes mounted outside
// the standard middleware chain.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := CurrentID(r.Context()); err != nil {
				errorHandler(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantRequired):
		http.Error(w, "tenant context required", http.StatusBadRequest)
	case errors.Is(err, ErrTenantUnknown), errors.Is(err, ErrTenantNotFound):
		http.Error(w, "unknown tenant", http.StatusNotFound)
	case errors.Is(err, ErrCrossTenantDenied):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNoPrincipal), errors.Is(err, ErrNoTenantContext):
		http.Error(w, "internal server error", http.StatusInternalServerError)
	default:
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}
}
