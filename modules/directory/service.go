package directory

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinlog/clinlog/pkg/authn"
)

// ErrInvalidCredentials is returned for every login failure: unknown email,
// wrong password or disabled account. One failure mode keeps account
// existence unguessable.
var ErrInvalidCredentials = errors.New("directory: invalid credentials")

// credentialSource is the slice of the store the login flow needs.
type credentialSource interface {
	credentialsByEmail(ctx context.Context, email string) (*credentials, error)
}

// Service handles the login flow.
type Service struct {
	store credentialSource
	auth  *authn.Authenticator
	log   *slog.Logger
}

// NewService creates the login service.
func NewService(store *Store, auth *authn.Authenticator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, auth: auth, log: log}
}

// Login verifies the email/password pair and issues a bearer token carrying
// only the subject id. Everything else about the user stays in the directory
// and is re-read per request.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	creds, err := s.store.credentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, authn.ErrUserNotFound) {
			// Burn a comparison anyway so unknown emails cost the same as
			// wrong passwords.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	if !creds.Active {
		return "", ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(creds.ID)
	if err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "user logged in", slog.String("user_id", creds.ID.String()))
	return token, nil
}
