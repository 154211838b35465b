package api

import (
	"net/http"
	"strings"
	"time"

	"eduops/internal/account"
	"eduops/internal/auth"
	"eduops/pkg/config"
)

// SessionAuth validates admin session tokens.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// In dev, if Authorization is missing, it can fall back to X-Admin-Email to
// keep local testing simple.
func SessionAuth(cfg config.Config, accounts *account.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token := strings.TrimSpace(authz[7:])
				vs, err := auth.VerifyToken(token, cfg.Auth.TokenSecret, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}

				u, err := accounts.FindByID(r.Context(), vs.UserID)
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
					return
				}

				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				email := strings.TrimSpace(r.Header.Get("X-Admin-Email"))
				if email != "" {
					u, err := accounts.FindByEmail(r.Context(), email)
					if err != nil {
						WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
						return
					}
					next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		})
	}
}
