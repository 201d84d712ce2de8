package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civictrack/civictrack-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	live map[string]bool
}

func (f *fakeRegistry) Register(_ context.Context, jti, _ string) error {
	f.live[jti] = true
	return nil
}

func (f *fakeRegistry) Revoke(_ context.Context, jti string) error {
	delete(f.live, jti)
	return nil
}

func (f *fakeRegistry) HasSession(_ context.Context, jti string) (bool, error) {
	return f.live[jti], nil
}

func TestVerifyTokenFromRequest_Bearer(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: userID, Email: "a@b.c", Role: enums.RoleCitizen})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/complaints", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	identity, ok := NewVerifier(cfg, nil).VerifyTokenFromRequest(req)
	require.True(t, ok)
	assert.Equal(t, userID, identity.UserID)
	assert.False(t, identity.FromRefresh)
}

func TestVerifyTokenFromRequest_FallsBackToCookie(t *testing.T) {
	cfg := testJWTConfig()
	registry := &fakeRegistry{live: map[string]bool{}}
	userID := uuid.New()

	expired, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: userID, Role: enums.RoleAdmin})
	require.NoError(t, err)
	refresh, err := MintRefreshToken(cfg, time.Now(), RefreshTokenPayload{UserID: userID, Role: enums.RoleAdmin, JTI: "live-jti"})
	require.NoError(t, err)
	require.NoError(t, registry.Register(context.Background(), "live-jti", userID.String()))

	req := httptest.NewRequest(http.MethodGet, "/api/complaints", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: refresh})

	identity, ok := NewVerifier(cfg, registry).VerifyTokenFromRequest(req)
	require.True(t, ok)
	assert.Equal(t, userID, identity.UserID)
	assert.True(t, identity.FromRefresh)

	require.NoError(t, registry.Revoke(context.Background(), "live-jti"))
	_, ok = NewVerifier(cfg, registry).VerifyTokenFromRequest(req)
	assert.False(t, ok, "revoked refresh session must not authenticate")
}

type fakeAccounts struct {
	active map[uuid.UUID]bool
	err    error
}

func (f fakeAccounts) IsActive(_ context.Context, userID uuid.UUID) (bool, error) {
	return f.active[userID], f.err
}

func TestVerifyTokenFromRequest_RejectsDeactivatedAccount(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	access, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: userID, Role: enums.RoleAdmin})
	require.NoError(t, err)
	refresh, err := MintRefreshToken(cfg, time.Now(), RefreshTokenPayload{UserID: userID, Role: enums.RoleAdmin, JTI: "jti"})
	require.NoError(t, err)

	bearer := httptest.NewRequest(http.MethodGet, "/api/complaints", nil)
	bearer.Header.Set("Authorization", "Bearer "+access)
	cookie := httptest.NewRequest(http.MethodGet, "/api/complaints", nil)
	cookie.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: refresh})

	live := NewVerifier(cfg, nil).WithAccounts(fakeAccounts{active: map[uuid.UUID]bool{userID: true}})
	_, ok := live.VerifyTokenFromRequest(bearer)
	assert.True(t, ok)
	_, ok = live.VerifyTokenFromRequest(cookie)
	assert.True(t, ok)

	disabled := NewVerifier(cfg, nil).WithAccounts(fakeAccounts{active: map[uuid.UUID]bool{}})
	_, ok = disabled.VerifyTokenFromRequest(bearer)
	assert.False(t, ok, "bearer token of a deactivated user must not authenticate")
	_, ok = disabled.VerifyTokenFromRequest(cookie)
	assert.False(t, ok, "refresh cookie of a deactivated user must not authenticate")

	failing := NewVerifier(cfg, nil).WithAccounts(fakeAccounts{err: errors.New("db down")})
	_, ok = failing.VerifyTokenFromRequest(bearer)
	assert.False(t, ok)
}

func TestVerifyTokenFromRequest_Unauthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/complaints", nil)
	req.Header.Set("Authorization", "Basic abc")
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "garbage"})

	_, ok := NewVerifier(testJWTConfig(), nil).VerifyTokenFromRequest(req)
	assert.False(t, ok)
}

func TestRefreshCookieLifecycle(t *testing.T) {
	opts := CookieOptions{Secure: true, MaxAge: 7 * 24 * time.Hour}

	rec := httptest.NewRecorder()
	SetRefreshCookie(rec, opts, "tok")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, RefreshCookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 7*24*60*60, c.MaxAge)

	rec = httptest.NewRecorder()
	ClearRefreshCookie(rec, opts)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", BearerToken(req))
	req.Header.Set("Authorization", "bearer  abc ")
	assert.Equal(t, "abc", BearerToken(req))
}
