package authn

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorHandler handles errors that occur during authentication.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates every request with a bearer token and stores the
// resolved principal in the request context. Requests without a valid
// credential never reach the next handler.
func Middleware(auth *Authenticator, errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				errorHandler(w, r, err)
				return
			}

			principal, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrUnauthenticated
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrUnauthenticated) {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	http.Error(w, "service unavailable", http.StatusServiceUnavailable)
}
