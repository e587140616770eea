package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithCurrent binds the tenant id as the ambient tenant for the given
// context. The binding lives exactly as long as the derived context, so it
// can never outlive the request or leak into a concurrently handled one.
func WithCurrent(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// CurrentID returns the ambient tenant id. It fails with ErrNoTenantContext
// when invoked outside a bound scope; there is deliberately no default
// tenant to fall back to.
func CurrentID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(contextKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoTenantContext
	}
	return id, nil
}

// LoggerExtractor returns a logger context extractor that records the
// ambient tenant id on every log line emitted within a bound scope.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, err := CurrentID(ctx); err == nil {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
