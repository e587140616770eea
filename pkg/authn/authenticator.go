package authn

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Config struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required"`     // SigningKey is the HMAC secret used to sign and verify tokens.
	TokenTTL   time.Duration `env:"JWT_TOKEN_TTL" envDefault:"8h"` // TokenTTL is how long issued tokens stay valid.
	Issuer     string        `env:"JWT_ISSUER" envDefault:"clinlog"`
}

// Authenticator turns a bearer token into a verified Principal.
//
// The token is deliberately thin: it carries only a subject id and temporal
// claims. Role and home tenant are re-read from the user directory on every
// request so revocations and role changes take effect without re-issuing
// credentials.
type Authenticator struct {
	signingKey []byte
	tokenTTL   time.Duration
	issuer     string
	users      UserDirectory
	tenants    TenantDirectory
}

// New creates an Authenticator backed by the given directories.
func New(cfg Config, users UserDirectory, tenants TenantDirectory) (*Authenticator, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Authenticator{
		signingKey: []byte(cfg.SigningKey),
		tokenTTL:   ttl,
		issuer:     cfg.Issuer,
		users:      users,
		tenants:    tenants,
	}, nil
}

// Authenticate verifies the raw token and resolves the subject against the
// user directory. All credential failures collapse into ErrUnauthenticated;
// directory infrastructure failures pass through unchanged so callers can
// surface them as unavailable rather than as a rejected login.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (*Principal, error) {
	if rawToken == "" {
		return nil, ErrUnauthenticated
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Join(ErrUnauthenticated, err)
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Join(ErrUnauthenticated, err)
	}

	user, err := a.users.GetUser(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, errors.Join(ErrUnauthenticated, err)
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUnauthenticated
	}

	// A principal with a deactivated home hospital must not authenticate at
	// all, even for endpoints that would resolve another tenant.
	if user.HomeTenantID != nil {
		active, err := a.tenants.IsActive(ctx, *user.HomeTenantID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, ErrUnauthenticated
		}
	}

	return &Principal{
		UserID:       user.ID,
		Role:         user.Role,
		HomeTenantID: user.HomeTenantID,
	}, nil
}

// IssueToken signs a token for the given subject. Only the subject id and
// temporal claims go into the token; everything else stays in the directory.
func (a *Authenticator) IssueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
}

// TokenTTL reports how long issued tokens stay valid.
func (a *Authenticator) TokenTTL() time.Duration {
	return a.tokenTTL
}
