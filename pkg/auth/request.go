package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/civictrack/civictrack-backend/pkg/auth/session"
	"github.com/civictrack/civictrack-backend/pkg/config"
)

// AccountChecker reports whether a user may still authenticate.
type AccountChecker interface {
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Verifier resolves the caller identity from an inbound request.
type Verifier struct {
	cfg      config.JWTConfig
	sessions session.Registry
	accounts AccountChecker
}

// NewVerifier builds a verifier. A nil registry skips the refresh session check.
func NewVerifier(cfg config.JWTConfig, sessions session.Registry) *Verifier {
	return &Verifier{cfg: cfg, sessions: sessions}
}

// WithAccounts returns a copy of v that rejects tokens of deactivated users
// on both the bearer and the cookie path. Lookup failures reject too.
func (v *Verifier) WithAccounts(accounts AccountChecker) *Verifier {
	out := *v
	out.accounts = accounts
	return &out
}

// VerifyTokenFromRequest tries the bearer access token first and falls back to
// the refresh cookie. It returns false when neither yields an identity.
func (v *Verifier) VerifyTokenFromRequest(r *http.Request) (*Identity, bool) {
	if token := BearerToken(r); token != "" {
		if claims, err := ParseAccessToken(v.cfg, token); err == nil {
			return v.active(r.Context(), claims.identity())
		}
	}
	return v.VerifyRefreshToken(r.Context(), RefreshTokenFromRequest(r))
}

// VerifyRefreshToken validates a refresh token and checks that its session is live.
func (v *Verifier) VerifyRefreshToken(ctx context.Context, token string) (*Identity, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := ParseRefreshToken(v.cfg, token)
	if err != nil {
		return nil, false
	}
	if v.sessions != nil {
		ok, err := v.sessions.HasSession(ctx, claims.ID)
		if err != nil || !ok {
			return nil, false
		}
	}
	return v.active(ctx, claims.identity())
}

func (v *Verifier) active(ctx context.Context, identity *Identity) (*Identity, bool) {
	if v.accounts == nil {
		return identity, true
	}
	ok, err := v.accounts.IsActive(ctx, identity.UserID)
	if err != nil || !ok {
		return nil, false
	}
	return identity, true
}

// BearerToken extracts the token from an `Authorization: Bearer` header.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
