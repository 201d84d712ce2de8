package controllers

import (
	"net/http"

	"github.com/civictrack/civictrack-backend/api/responses"
	"github.com/civictrack/civictrack-backend/api/validators"
	"github.com/civictrack/civictrack-backend/internal/auth"
	pkgAuth "github.com/civictrack/civictrack-backend/pkg/auth"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
)

// AuthRegister creates a citizen or admin account and opens a session.
func AuthRegister(svc auth.Service, cookies pkgAuth.CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgAuth.SetRefreshCookie(w, cookies, session.RefreshToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// AuthLogin signs a user into the portal of the requested role.
func AuthLogin(svc auth.Service, cookies pkgAuth.CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgAuth.SetRefreshCookie(w, cookies, session.RefreshToken)
		responses.WriteSuccess(w, session)
	}
}

// AuthRefresh exchanges the refresh cookie for a new access token. A
// rejected cookie is cleared so the browser stops presenting it.
func AuthRefresh(svc auth.Service, cookies pkgAuth.CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		result, err := svc.Refresh(r.Context(), pkgAuth.RefreshTokenFromRequest(r))
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				pkgAuth.ClearRefreshCookie(w, cookies)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the refresh session and clears the cookie. It succeeds
// even without a live session.
func AuthLogout(svc auth.Service, cookies pkgAuth.CookieOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		if err := svc.Logout(r.Context(), pkgAuth.RefreshTokenFromRequest(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgAuth.ClearRefreshCookie(w, cookies)
		responses.WriteSuccessMessage(w, nil, "Logged out successfully")
	}
}
