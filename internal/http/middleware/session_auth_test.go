package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caregate/lead-platform/internal/session"
)

func newTestIssuer(t *testing.T) *session.Issuer {
	t.Helper()
	issuer, err := session.NewIssuer("test-secret", time.Hour, 30*time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return issuer
}

func TestSessionAuthAttachesPrincipal(t *testing.T) {
	issuer := newTestIssuer(t)
	token, _, err := issuer.Issue(session.PartnerPrincipal("hosp-1"))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got session.Principal
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := session.PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("principal missing from context")
		}
		got = p
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/partner/leads", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	SessionAuth(issuer, nil)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.Role != session.RolePartner || got.HospitalID != "hosp-1" {
		t.Errorf("principal = %+v", got)
	}
}

func TestSessionAuthRejectsMissingToken(t *testing.T) {
	issuer := newTestIssuer(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	rec := httptest.NewRecorder()
	SessionAuth(issuer, nil)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSessionAuthRejectsGarbageToken(t *testing.T) {
	issuer := newTestIssuer(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	SessionAuth(issuer, nil)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSessionAuthRejectsWrongScheme(t *testing.T) {
	issuer := newTestIssuer(t)
	token, _, _ := issuer.Issue(session.AdminPrincipal("admin-1"))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	req.Header.Set("Authorization", "Basic "+token)
	rec := httptest.NewRecorder()
	SessionAuth(issuer, nil)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	issuer := newTestIssuer(t)
	token, _, _ := issuer.Issue(session.DoctorPrincipal("doc-1"))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	chain := SessionAuth(issuer, nil)(RequireRole(session.RoleAdmin)(handler))

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("doctor on admin route: status = %d, want 403", rec.Code)
	}

	chain = SessionAuth(issuer, nil)(RequireRole(session.RoleDoctor)(handler))
	req = httptest.NewRequest(http.MethodGet, "/doctor/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("doctor on doctor route: status = %d, want 200", rec.Code)
	}
}
