package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/pkg/logging"
)

// Credential is the stored secret material for one password-authenticated
// account, plus the minimal profile returned on success.
type Credential struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
}

// ErrCredentialNotFound is returned by stores when no account matches the
// identifier. The verifier folds it into ErrInvalidCredential before it can
// reach a caller.
var ErrCredentialNotFound = errors.New("auth: credential not found")

// CredentialStore looks up stored credentials for the three
// password-authenticated principal types. Patients never have one.
type CredentialStore interface {
	FindAdminByEmail(ctx context.Context, email string) (*Credential, error)
	FindDoctorByEmail(ctx context.Context, email string) (*Credential, error)
	FindPartnerByEmail(ctx context.Context, email string) (*Credential, error)
}

// Verifier validates raw credentials against stored secrets and produces a
// principal identity. Read-only; it never mutates account state.
type Verifier struct {
	store  CredentialStore
	logger *logging.Logger
}

// NewVerifier creates a credential verifier.
func NewVerifier(store CredentialStore, logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Verifier{store: store, logger: logger}
}

// Verify checks (identifier, secret) for the given role and returns the
// principal plus display name. Every failure mode surfaces as
// ErrInvalidCredential: no-match, missing hash and bad password are
// indistinguishable to the caller.
func (v *Verifier) Verify(ctx context.Context, role session.Role, identifier, secret string) (session.Principal, string, error) {
	email := strings.ToLower(strings.TrimSpace(identifier))
	if email == "" || secret == "" {
		return session.Principal{}, "", ErrInvalidCredential
	}

	var (
		cred *Credential
		err  error
	)
	switch role {
	case session.RoleAdmin:
		cred, err = v.store.FindAdminByEmail(ctx, email)
	case session.RoleDoctor:
		cred, err = v.store.FindDoctorByEmail(ctx, email)
	case session.RolePartner:
		cred, err = v.store.FindPartnerByEmail(ctx, email)
	default:
		return session.Principal{}, "", ErrInvalidCredential
	}
	if err != nil {
		if !errors.Is(err, ErrCredentialNotFound) {
			// Storage failures are not credential failures; let them through
			// so the handler can answer 503 instead of 401.
			return session.Principal{}, "", err
		}
		v.logger.Debug("login for unknown identifier", "role", string(role))
		return session.Principal{}, "", ErrInvalidCredential
	}

	if cred.PasswordHash == "" || !VerifyPassword(secret, cred.PasswordHash) {
		v.logger.Debug("login with bad password", "role", string(role))
		return session.Principal{}, "", ErrInvalidCredential
	}

	switch role {
	case session.RoleAdmin:
		return session.AdminPrincipal(cred.ID), cred.Name, nil
	case session.RoleDoctor:
		return session.DoctorPrincipal(cred.ID), cred.Name, nil
	default:
		return session.PartnerPrincipal(cred.ID), cred.Name, nil
	}
}
