package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/pkg/logging"
)

func seededStore(t *testing.T) *InMemoryCredentialStore {
	t.Helper()
	store := NewInMemoryCredentialStore()

	hash, err := HashPassword("admin-pass", DefaultArgonParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.PutAdmin(Credential{ID: "u1", Name: "Ops", Email: "ops@platform.example", PasswordHash: hash})

	hash, err = HashPassword("partner-pass", DefaultArgonParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.PutPartner(Credential{ID: "h1", Name: "City Hospital", Email: "desk@cityhospital.example", PasswordHash: hash})

	// Doctor account with no hash set yet.
	store.PutDoctor(Credential{ID: "d1", Name: "Dr. Rao", Email: "rao@clinic.example"})

	return store
}

func TestVerifySuccess(t *testing.T) {
	v := NewVerifier(seededStore(t), logging.Default())
	ctx := context.Background()

	p, name, err := v.Verify(ctx, session.RoleAdmin, "OPS@Platform.example", "admin-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Role != session.RoleAdmin || p.UserID != "u1" {
		t.Errorf("unexpected principal: %+v", p)
	}
	if name != "Ops" {
		t.Errorf("expected name Ops, got %s", name)
	}

	p, _, err = v.Verify(ctx, session.RolePartner, "desk@cityhospital.example", "partner-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.HospitalID != "h1" {
		t.Errorf("expected hospital id h1, got %q", p.HospitalID)
	}
}

func TestVerifyFailuresAreUniform(t *testing.T) {
	v := NewVerifier(seededStore(t), logging.Default())
	ctx := context.Background()

	cases := []struct {
		name       string
		role       session.Role
		identifier string
		secret     string
	}{
		{"unknown email", session.RoleAdmin, "nobody@platform.example", "admin-pass"},
		{"wrong password", session.RoleAdmin, "ops@platform.example", "nope"},
		{"missing hash", session.RoleDoctor, "rao@clinic.example", "anything"},
		{"blank secret", session.RoleAdmin, "ops@platform.example", ""},
		{"patient role", session.RolePatient, "someone", "secret"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := v.Verify(ctx, tt.role, tt.identifier, tt.secret)
			if !errors.Is(err, ErrInvalidCredential) {
				t.Errorf("expected ErrInvalidCredential, got %v", err)
			}
		})
	}
}

type brokenStore struct{}

func (brokenStore) FindAdminByEmail(context.Context, string) (*Credential, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) FindDoctorByEmail(context.Context, string) (*Credential, error) {
	return nil, errors.New("connection refused")
}
func (brokenStore) FindPartnerByEmail(context.Context, string) (*Credential, error) {
	return nil, errors.New("connection refused")
}

func TestVerifyStorageErrorIsNotCredentialError(t *testing.T) {
	v := NewVerifier(brokenStore{}, logging.Default())

	_, _, err := v.Verify(context.Background(), session.RoleAdmin, "ops@platform.example", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredential) {
		t.Errorf("expected storage error to pass through, got %v", err)
	}
}
