package auth

import (
	"net/http"
	"time"

	"github.com/civictrack/civictrack-backend/pkg/config"
)

// RefreshCookieName is the cookie carrying the refresh JWT.
const RefreshCookieName = "refresh_token"

// CookieOptions controls how the refresh cookie is written.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// CookieOptionsFor derives cookie options from the app and JWT config.
func CookieOptionsFor(app config.AppConfig, jwtCfg config.JWTConfig) CookieOptions {
	return CookieOptions{
		Secure: app.IsProd() || jwtCfg.SecureCookies,
		MaxAge: jwtCfg.RefreshTokenTTL(),
	}
}

// SetRefreshCookie writes the refresh token as an HttpOnly, strict same-site cookie.
func SetRefreshCookie(w http.ResponseWriter, opts CookieOptions, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(opts.MaxAge / time.Second),
		Expires:  time.Now().Add(opts.MaxAge),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie expires the refresh cookie immediately.
func ClearRefreshCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// RefreshTokenFromRequest returns the refresh cookie value, if any.
func RefreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
