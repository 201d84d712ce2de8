package middleware

import (
	"net/http"

	"github.com/civictrack/civictrack-backend/api/responses"
	pkgAuth "github.com/civictrack/civictrack-backend/pkg/auth"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
)

type identityVerifier interface {
	VerifyTokenFromRequest(r *http.Request) (*pkgAuth.Identity, bool)
}

// Auth resolves the caller from the bearer token or the refresh cookie and
// seeds the request context with the identity. Every failure is a plain 401.
func Auth(verifier identityVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := verifier.VerifyTokenFromRequest(r)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			if logg != nil {
				fields := map[string]any{
					"user_id":    identity.UserID.String(),
					"actor_role": string(identity.Role),
				}
				if identity.DepartmentID != nil {
					fields["department_id"] = identity.DepartmentID.String()
				}
				if identity.FromRefresh {
					fields["auth_source"] = "refresh_cookie"
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
