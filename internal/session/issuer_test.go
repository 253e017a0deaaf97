package session

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("test-secret", 8*time.Hour, 30*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return issuer
}

func TestIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", time.Hour, time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewIssuer("s", 0, time.Hour); err == nil {
		t.Fatal("expected error for zero TTL")
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	tests := []struct {
		name      string
		principal Principal
	}{
		{"admin", AdminPrincipal("user-1")},
		{"doctor", DoctorPrincipal("doc-1")},
		{"partner", PartnerPrincipal("hosp-1")},
		{"patient", PatientPrincipal("lead-1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiresAt, err := issuer.Issue(tt.principal)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token == "" {
				t.Fatal("expected non-empty token")
			}
			if !expiresAt.After(time.Now()) {
				t.Fatal("expected future expiry")
			}

			got, err := issuer.Parse(token)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.principal {
				t.Errorf("expected principal %+v, got %+v", tt.principal, got)
			}
		})
	}
}

func TestPatientTTLShorterThanStaff(t *testing.T) {
	issuer := newTestIssuer(t)

	_, staffExp, err := issuer.Issue(AdminPrincipal("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, patientExp, err := issuer.Issue(PatientPrincipal("l1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !patientExp.Before(staffExp) {
		t.Error("expected patient session to expire before staff session")
	}
}

func TestParseExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t)

	past := time.Now().Add(-24 * time.Hour)
	issuer.now = func() time.Time { return past }
	token, _, err := issuer.Issue(AdminPrincipal("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	issuer := newTestIssuer(t)
	other, _ := NewIssuer("other-secret", 8*time.Hour, 30*time.Minute)

	token, _, err := other.Issue(AdminPrincipal("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := issuer.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}

	if _, err := issuer.Parse("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestIssueRejectsInvalidPrincipal(t *testing.T) {
	issuer := newTestIssuer(t)

	if _, _, err := issuer.Issue(Principal{Role: RoleAdmin}); err == nil {
		t.Error("expected error for missing subject id")
	}
	if _, _, err := issuer.Issue(Principal{Role: "superuser", UserID: "u1"}); err == nil {
		t.Error("expected error for unknown role")
	}
	// Two ids smuggled into one principal must be rejected.
	p := Principal{Role: RolePartner, HospitalID: "h1", LeadID: "l1"}
	if _, _, err := issuer.Issue(p); err == nil {
		t.Error("expected error for principal with two ids")
	}
}
