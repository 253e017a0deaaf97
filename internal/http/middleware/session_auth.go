package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/pkg/logging"
)

// SessionAuth validates the Bearer token on every request and attaches the
// resolved principal to the context. Requests without a valid token never
// reach the handler.
func SessionAuth(issuer *session.Issuer, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			principal, err := issuer.Parse(token)
			if err != nil {
				if errors.Is(err, session.ErrTokenExpired) {
					http.Error(w, "session expired", http.StatusUnauthorized)
					return
				}
				logger.Warn("rejected session token", "error", err, "path", r.URL.Path)
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}

			ctx := session.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects principals of any other role with 403. It assumes
// SessionAuth already ran.
func RequireRole(role session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := session.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "missing session", http.StatusUnauthorized)
				return
			}
			if principal.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
